package store

import (
	"context"
	"time"

	"gastos/internal/core"
)

// Ports for outbound persistence adapters.
type (
	// MovementStore is the durable movement collection. Any call may
	// fail with a storage error; callers surface it without retrying.
	MovementStore interface {
		// Insert persists a new movement and returns the assigned id.
		Insert(ctx context.Context, m core.Movement) (int64, error)
		// Update persists amount and description of an existing
		// movement; all other fields are left untouched.
		Update(ctx context.Context, m core.Movement) error
		Delete(ctx context.Context, id int64) error
		GetByMonth(ctx context.Context, month core.MonthKey) ([]core.Movement, error)
		GetAll(ctx context.Context) ([]core.Movement, error)
		// GetLatest returns the most recently created movement, or nil
		// when the ledger is empty.
		GetLatest(ctx context.Context) (*core.Movement, error)
	}

	// SettingsStore holds the settings singleton.
	SettingsStore interface {
		Get(ctx context.Context) (core.Settings, error)
		Update(ctx context.Context, s core.Settings) error
	}

	// AuditLog records ledger mutations observed by the audit worker.
	AuditLog interface {
		RecordAudit(ctx context.Context, e AuditEntry) error
		ListAudit(ctx context.Context, limit int) ([]AuditEntry, error)
	}
)

// AuditEntry is one observed ledger mutation.
type AuditEntry struct {
	ID          int64
	EventType   string // created, updated, deleted
	MovementID  int64
	Month       core.MonthKey
	AmountCents int64
	Origin      core.Origin
	OccurredAt  time.Time
}
