// Package ledger orchestrates the movement ledger: month selection,
// movement lifecycle, OCR-gated entry flow, settings updates and the
// budget summary derived after every mutation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/ocr"
	"gastos/internal/store"
)

var (
	ErrEntryActive     = errors.New("an entry is already in progress")
	ErrNoEntry         = errors.New("no entry in progress")
	ErrStaleCapture    = errors.New("capture superseded by cancel or restart")
	ErrMovementMissing = errors.New("movement not found")
	ErrNoPendingDelete = errors.New("no pending delete")
)

// EventPublisher posts movement events after successful mutations.
// Publishing is best-effort: a failure is logged, never surfaced to the
// user, and never rolls back the store write.
type EventPublisher interface {
	PublishMovementEvent(ctx context.Context, ev *amqp.MovementEvent) error
}

// Ledger is the single-writer controller of the budget session. All
// operations serialize on its mutex; store reloads always happen after
// the triggering write has been acknowledged, so a caller never reads
// state that misses its own mutation.
type Ledger struct {
	movements store.MovementStore
	settings  store.SettingsStore
	reader    ocr.ReceiptReader // nil disables receipt capture
	events    EventPublisher    // nil disables event publishing
	now       func() time.Time

	mu            sync.Mutex
	month         core.MonthKey
	current       core.Settings
	active        []core.Movement // active month subset
	all           []core.Movement // full history
	pendingDelete *int64

	entryState EntryState
	entryGen   uint64
	editing    *core.Movement
	review     *ReceiptReview
}

func New(movements store.MovementStore, settings store.SettingsStore, reader ocr.ReceiptReader, events EventPublisher) *Ledger {
	l := &Ledger{
		movements:  movements,
		settings:   settings,
		reader:     reader,
		events:     events,
		now:        time.Now,
		entryState: EntryIdle,
	}
	l.month = core.MonthKeyOf(l.now())
	return l
}

// Load initializes the session: reads the settings singleton, runs the
// month rollover observation and loads both movement sets.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.settings.Get(ctx)
	if err != nil {
		return storageError(fmt.Errorf("load settings: %w", err))
	}
	l.current = s

	return l.reloadLocked(ctx)
}

// SelectMonth switches the active month context and reloads.
func (l *Ledger) SelectMonth(ctx context.Context, month core.MonthKey) error {
	if err := month.Validate(); err != nil {
		return validationError(err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.month = month
	return l.reloadLocked(ctx)
}

// reloadLocked refetches the active-month and full movement sets and
// performs the rollover observation. Caller holds the mutex.
func (l *Ledger) reloadLocked(ctx context.Context) error {
	latest, err := l.movements.GetLatest(ctx)
	if err != nil {
		return storageError(fmt.Errorf("load latest movement: %w", err))
	}
	last := core.EpochMonth
	if latest != nil {
		last = latest.Month
	}
	if last.Before(l.month) {
		// Observation only: month-scoped queries zero out the new
		// month's totals on their own, nothing is migrated or archived.
		slog.InfoContext(ctx, "New month detected", "previous", last, "current", l.month)
	}

	active, err := l.movements.GetByMonth(ctx, l.month)
	if err != nil {
		return storageError(fmt.Errorf("load month movements: %w", err))
	}
	all, err := l.movements.GetAll(ctx)
	if err != nil {
		return storageError(fmt.Errorf("load all movements: %w", err))
	}
	l.active = active
	l.all = all
	return nil
}

// Month returns the active month key.
func (l *Ledger) Month() core.MonthKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.month
}

// Settings returns the active settings.
func (l *Ledger) Settings() core.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Summary derives the budget figures for the active month.
func (l *Ledger) Summary() core.MonthSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.Summarize(l.month, l.active, l.current)
}

// Movements returns the active month's movements, newest first.
func (l *Ledger) Movements() []core.Movement {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Movement, len(l.active))
	copy(out, l.active)
	return out
}

// History returns the full movement set grouped by month, newest first.
func (l *Ledger) History() []core.MonthGroup {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.GroupByMonth(l.all)
}

// EntryState reports the add/edit flow state.
func (l *Ledger) EntryState() EntryState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entryState
}

// BeginEntry opens the flow for a new movement. Manual entry starts
// directly in the reviewing state; CaptureReceipt moves it through
// capturing and back.
func (l *Ledger) BeginEntry() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entryState != EntryIdle {
		return ErrEntryActive
	}
	l.entryState = EntryReviewing
	l.editing = nil
	l.review = nil
	return nil
}

// BeginEdit opens the flow pre-filled with an existing movement. Only
// amount and description may change on submission.
func (l *Ledger) BeginEdit(id int64) (core.Movement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entryState != EntryIdle {
		return core.Movement{}, ErrEntryActive
	}
	m, ok := l.findLocked(id)
	if !ok {
		return core.Movement{}, ErrMovementMissing
	}
	l.entryState = EntryReviewing
	l.editing = &m
	l.review = nil
	return m, nil
}

// CancelEntry abandons the flow. Any in-flight OCR capture is
// invalidated so its result cannot touch later state.
func (l *Ledger) CancelEntry() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entryGen++
	l.entryState = EntryIdle
	l.editing = nil
	l.review = nil
}

// SubmitEntry validates and persists the open entry, then reloads both
// movement sets. A new movement is stamped with the wall clock and the
// active month key; an edit merges amount and description only. On
// validation or store failure the flow returns to reviewing with the
// user's values intact.
func (l *Ledger) SubmitEntry(ctx context.Context, amountCents int64, description string) (core.Movement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.entryState != EntryReviewing {
		return core.Movement{}, ErrNoEntry
	}
	l.entryState = EntrySubmitting

	m, err := l.buildEntryLocked(amountCents, description)
	if err != nil {
		l.entryState = EntryReviewing
		return core.Movement{}, err
	}

	eventType := amqp.EventCreated
	if l.editing != nil {
		eventType = amqp.EventUpdated
		if err := l.movements.Update(ctx, m); err != nil {
			l.entryState = EntryReviewing
			return core.Movement{}, storageError(fmt.Errorf("update movement: %w", err))
		}
	} else {
		id, err := l.movements.Insert(ctx, m)
		if err != nil {
			l.entryState = EntryReviewing
			return core.Movement{}, storageError(fmt.Errorf("insert movement: %w", err))
		}
		m.ID = id
	}

	l.publishLocked(ctx, eventType, m)

	if err := l.reloadLocked(ctx); err != nil {
		// The write is durable; only the refresh failed.
		l.resetEntryLocked()
		return m, err
	}
	l.resetEntryLocked()
	return m, nil
}

// buildEntryLocked validates the submission and assembles the movement
// to persist. Caller holds the mutex and has set the submitting state.
func (l *Ledger) buildEntryLocked(amountCents int64, description string) (core.Movement, error) {
	amount := core.Money{Cents: amountCents}
	if err := amount.Validate(); err != nil {
		return core.Movement{}, validationError(err)
	}

	var m core.Movement
	if l.editing != nil {
		// id, timestamp, month, origin and confidence are immutable.
		m = *l.editing
		m.Amount = amount
		m.Description = description
	} else {
		m = core.Movement{
			CreatedAt:   l.now(),
			Month:       l.month,
			Amount:      amount,
			Description: description,
			Origin:      core.OriginManual,
		}
		if l.review != nil {
			// The entry went through OCR: tag provenance and carry the
			// confidence even when the user overrode the amount.
			m.Origin = core.OriginOCR
			conf := l.review.Confidence
			m.OCRConfidence = &conf
		}
	}
	if err := m.Validate(); err != nil {
		return core.Movement{}, validationError(err)
	}
	return m, nil
}

func (l *Ledger) resetEntryLocked() {
	l.entryGen++
	l.entryState = EntryIdle
	l.editing = nil
	l.review = nil
}

// RequestDelete marks a movement as the pending deletion target and
// opens the confirmation gate. No store effect until ConfirmDelete.
func (l *Ledger) RequestDelete(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.findLocked(id); !ok {
		return ErrMovementMissing
	}
	l.pendingDelete = &id
	return nil
}

// CancelDelete clears the pending target with no store effect.
func (l *Ledger) CancelDelete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pendingDelete = nil
}

// PendingDelete reports the movement awaiting confirmation, if any.
func (l *Ledger) PendingDelete() (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pendingDelete == nil {
		return 0, false
	}
	return *l.pendingDelete, true
}

// ConfirmDelete executes the pending deletion and reloads. Irreversible
// once confirmed. The pending target is cleared whether or not the
// store call succeeds.
func (l *Ledger) ConfirmDelete(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pendingDelete == nil {
		return ErrNoPendingDelete
	}
	id := *l.pendingDelete
	l.pendingDelete = nil

	m, known := l.findLocked(id)
	if err := l.movements.Delete(ctx, id); err != nil {
		return storageError(fmt.Errorf("delete movement: %w", err))
	}
	if known {
		l.publishLocked(ctx, amqp.EventDeleted, m)
	}
	return l.reloadLocked(ctx)
}

// UpdateSettings persists the settings singleton and swaps the active
// settings immediately. Movements are held independently, so no reload
// is needed.
func (l *Ledger) UpdateSettings(ctx context.Context, s core.Settings) error {
	if err := s.Validate(); err != nil {
		return validationError(err)
	}
	s.ID = core.SettingsID

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.settings.Update(ctx, s); err != nil {
		return storageError(fmt.Errorf("update settings: %w", err))
	}
	l.current = s
	return nil
}

func (l *Ledger) findLocked(id int64) (core.Movement, bool) {
	for _, m := range l.all {
		if m.ID == id {
			return m, true
		}
	}
	return core.Movement{}, false
}

func (l *Ledger) publishLocked(ctx context.Context, eventType string, m core.Movement) {
	if l.events == nil {
		return
	}
	ev := amqp.NewMovementEvent(eventType, m.ID, string(m.Month), m.Amount.Cents, string(m.Origin))
	if err := l.events.PublishMovementEvent(ctx, ev); err != nil {
		// Best-effort: the ledger mutation already succeeded.
		slog.ErrorContext(ctx, "Failed to publish movement event",
			"type", eventType,
			"id", m.ID,
			"error", err)
	}
}
