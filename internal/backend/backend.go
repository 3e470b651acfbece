package backend

import (
	"fmt"
	"log/slog"

	"gastos/internal/config"
	"gastos/internal/store"
	"gastos/internal/store/memory"
	"gastos/internal/store/sqlite"
)

// Type selects the persistence backend.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) IsValid() bool {
	return t == SQLite || t == Memory
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result bundles the stores opened for a backend.
type Result struct {
	Movements store.MovementStore
	Settings  store.SettingsStore
	Audit     store.AuditLog
	Cleanup   CleanupFunc
}

// Open builds the stores described by cfg.
func Open(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.DataBackend)
	switch t {
	case SQLite:
		return openSQLite(cfg, logger)
	case Memory:
		return openMemory(logger)
	default:
		return nil, fmt.Errorf("unsupported data backend: %q", cfg.DataBackend)
	}
}

func openSQLite(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if cfg.SQLiteDBPath == "" {
		return nil, fmt.Errorf("sqlite backend requires a database path")
	}

	repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite repository: %w", err)
	}

	logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)

	return &Result{
		Movements: repo,
		Settings:  repo.Settings(),
		Audit:     repo,
		Cleanup:   repo.Close,
	}, nil
}

func openMemory(logger *slog.Logger) (*Result, error) {
	st := memory.New()

	logger.Info("Initialized memory backend")

	return &Result{
		Movements: st,
		Settings:  st.Settings(),
		Audit:     st,
		Cleanup:   nil,
	}, nil
}
