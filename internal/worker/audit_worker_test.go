package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/store"
)

type fakeAudit struct {
	entries []store.AuditEntry
	err     error
}

func (f *fakeAudit) RecordAudit(ctx context.Context, e store.AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) ListAudit(ctx context.Context, limit int) ([]store.AuditEntry, error) {
	return f.entries, nil
}

func TestHandleMovementEvent(t *testing.T) {
	audit := &fakeAudit{}
	w := NewAuditWorker(audit)

	ev := amqp.NewMovementEvent(amqp.EventCreated, 3, "2025-06", 1250, "ocr")
	if err := w.HandleMovementEvent(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(audit.entries))
	}
	e := audit.entries[0]
	if e.EventType != amqp.EventCreated || e.MovementID != 3 || e.Month != "2025-06" ||
		e.AmountCents != 1250 || string(e.Origin) != "ocr" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.OccurredAt.IsZero() || time.Since(e.OccurredAt) > time.Minute {
		t.Fatalf("entry must carry the event timestamp, got %v", e.OccurredAt)
	}
}

func TestHandleMovementEventInvalidDropped(t *testing.T) {
	audit := &fakeAudit{}
	w := NewAuditWorker(audit)

	ev := &amqp.MovementEvent{Type: "archived", ID: 1}
	if err := w.HandleMovementEvent(context.Background(), ev); err != nil {
		t.Fatalf("invalid events are dropped, not retried: %v", err)
	}
	if len(audit.entries) != 0 {
		t.Fatalf("invalid event must not be recorded")
	}
}

func TestHandleMovementEventStorageFailure(t *testing.T) {
	audit := &fakeAudit{err: errors.New("disk full")}
	w := NewAuditWorker(audit)

	ev := amqp.NewMovementEvent(amqp.EventDeleted, 9, "2025-06", 500, "manual")
	if err := w.HandleMovementEvent(context.Background(), ev); err == nil {
		t.Fatalf("storage failure must propagate for requeue")
	}
}
