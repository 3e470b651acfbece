// Package sqlite persists the movement ledger, the settings singleton
// and the audit log in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gastos/internal/core"
	"gastos/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db       *sql.DB
	settings *SettingsRepository
}

// SettingsRepository is the settings-singleton view of the same
// database. Split from Repository because both stores have an Update
// method in their port.
type SettingsRepository struct {
	db *sql.DB
}

// Interface conformance.
var (
	_ store.MovementStore = (*Repository)(nil)
	_ store.SettingsStore = (*SettingsRepository)(nil)
	_ store.AuditLog      = (*Repository)(nil)
)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, settings: &SettingsRepository{db: db}}, nil
}

// Settings returns the settings store backed by the same database.
func (r *Repository) Settings() *SettingsRepository { return r.settings }

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert implements store.MovementStore.
func (r *Repository) Insert(ctx context.Context, m core.Movement) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movements (created_at, month_key, amount_cents, description, origin, ocr_confidence)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(m.Month),
		m.Amount.Cents,
		m.Description,
		string(m.Origin),
		confidenceValue(m.OCRConfidence),
	)
	if err != nil {
		return 0, fmt.Errorf("insert movement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("movement id: %w", err)
	}

	slog.InfoContext(ctx, "Movement saved",
		"id", id,
		"month", m.Month,
		"amount_cents", m.Amount.Cents,
		"origin", m.Origin)

	return id, nil
}

// Update implements store.MovementStore. Only amount and description
// are written; id, timestamp, month key, origin and confidence stay as
// created.
func (r *Repository) Update(ctx context.Context, m core.Movement) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE movements SET amount_cents = ?, description = ? WHERE id = ?`,
		m.Amount.Cents, m.Description, m.ID)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update movement rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update movement %d: %w", m.ID, sql.ErrNoRows)
	}
	return nil
}

// Delete implements store.MovementStore.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM movements WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	slog.InfoContext(ctx, "Movement deleted", "id", id)
	return nil
}

// GetByMonth implements store.MovementStore. Movements come back newest
// first.
func (r *Repository) GetByMonth(ctx context.Context, month core.MonthKey) ([]core.Movement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, month_key, amount_cents, description, origin, ocr_confidence
		 FROM movements WHERE month_key = ? ORDER BY created_at DESC, id DESC`, string(month))
	if err != nil {
		return nil, fmt.Errorf("get movements by month: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

// GetAll implements store.MovementStore.
func (r *Repository) GetAll(ctx context.Context) ([]core.Movement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, month_key, amount_cents, description, origin, ocr_confidence
		 FROM movements ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("get all movements: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

// GetLatest implements store.MovementStore.
func (r *Repository) GetLatest(ctx context.Context) (*core.Movement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, created_at, month_key, amount_cents, description, origin, ocr_confidence
		 FROM movements ORDER BY created_at DESC, id DESC LIMIT 1`)
	m, err := scanMovement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest movement: %w", err)
	}
	return &m, nil
}

// Get implements store.SettingsStore.
func (r *SettingsRepository) Get(ctx context.Context) (core.Settings, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, initial_cents, ocr_threshold FROM settings WHERE id = ?`, core.SettingsID)
	var s core.Settings
	if err := row.Scan(&s.ID, &s.MonthlyAllowance.Cents, &s.OCRThreshold); err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// Update implements store.SettingsStore.
func (r *SettingsRepository) Update(ctx context.Context, s core.Settings) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE settings SET initial_cents = ?, ocr_threshold = ? WHERE id = ?`,
		s.MonthlyAllowance.Cents, s.OCRThreshold, core.SettingsID)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update settings rows: %w", err)
	}
	if n == 0 {
		// Singleton row is seeded by migration; recreate if missing.
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO settings (id, initial_cents, ocr_threshold) VALUES (?, ?, ?)`,
			core.SettingsID, s.MonthlyAllowance.Cents, s.OCRThreshold); err != nil {
			return fmt.Errorf("insert settings: %w", err)
		}
	}
	slog.InfoContext(ctx, "Settings updated",
		"allowance_cents", s.MonthlyAllowance.Cents,
		"ocr_threshold", s.OCRThreshold)
	return nil
}

func confidenceValue(c *int) any {
	if c == nil {
		return nil
	}
	return *c
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(row rowScanner) (core.Movement, error) {
	var (
		m         core.Movement
		createdAt string
		month     string
		origin    string
		conf      sql.NullInt64
	)
	if err := row.Scan(&m.ID, &createdAt, &month, &m.Amount.Cents, &m.Description, &origin, &conf); err != nil {
		return core.Movement{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.Movement{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	m.CreatedAt = t
	m.Month = core.MonthKey(month)
	m.Origin = core.Origin(origin)
	if conf.Valid {
		c := int(conf.Int64)
		m.OCRConfidence = &c
	}
	return m, nil
}

func scanMovements(rows *sql.Rows) ([]core.Movement, error) {
	var out []core.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return out, nil
}
