package sqlite

import (
	"context"
	"fmt"
	"time"

	"gastos/internal/core"
	"gastos/internal/store"
)

// RecordAudit implements store.AuditLog.
func (r *Repository) RecordAudit(ctx context.Context, e store.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (event_type, movement_id, month_key, amount_cents, origin, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventType,
		e.MovementID,
		string(e.Month),
		e.AmountCents,
		string(e.Origin),
		e.OccurredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// ListAudit implements store.AuditLog. Entries come back newest first.
func (r *Repository) ListAudit(ctx context.Context, limit int) ([]store.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_type, movement_id, month_key, amount_cents, origin, occurred_at
		 FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []store.AuditEntry
	for rows.Next() {
		var (
			e          store.AuditEntry
			month      string
			origin     string
			occurredAt string
		)
		if err := rows.Scan(&e.ID, &e.EventType, &e.MovementID, &month, &e.AmountCents, &origin, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occurredAt, err)
		}
		e.Month = core.MonthKey(month)
		e.Origin = core.Origin(origin)
		e.OccurredAt = t
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}
