// Package worker consumes movement events and maintains the audit log.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/store"
)

// AuditWorker records ledger mutations delivered over the audit queue.
// It never mutates the ledger itself; the stream is observational.
type AuditWorker struct {
	audit store.AuditLog
}

func NewAuditWorker(audit store.AuditLog) *AuditWorker {
	return &AuditWorker{audit: audit}
}

// HandleMovementEvent processes a single movement event from AMQP.
// A recording failure propagates so the delivery is requeued.
func (w *AuditWorker) HandleMovementEvent(ctx context.Context, ev *amqp.MovementEvent) error {
	if err := ev.Validate(); err != nil {
		// Malformed events are logged and dropped, not requeued.
		slog.WarnContext(ctx, "Dropping invalid movement event", "error", err)
		return nil
	}

	entry := store.AuditEntry{
		EventType:   ev.Type,
		MovementID:  ev.ID,
		Month:       core.MonthKey(ev.Month),
		AmountCents: ev.AmountCents,
		Origin:      core.Origin(ev.Origin),
		OccurredAt:  ev.Timestamp,
	}
	if err := w.audit.RecordAudit(ctx, entry); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	slog.InfoContext(ctx, "Audit entry recorded",
		"type", ev.Type,
		"movement_id", ev.ID,
		"month", ev.Month)
	return nil
}
