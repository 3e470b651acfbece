// Package memory is an in-memory store backend for development and
// tests. It implements the same ports as the sqlite adapter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gastos/internal/core"
	"gastos/internal/store"
)

type Store struct {
	mu        sync.Mutex
	nextID    int64
	movements map[int64]core.Movement
	settings  core.Settings
	audit     []store.AuditEntry
}

// SettingsView exposes the settings singleton of a Store through the
// store.SettingsStore port.
type SettingsView struct {
	s *Store
}

// Interface conformance.
var (
	_ store.MovementStore = (*Store)(nil)
	_ store.SettingsStore = (*SettingsView)(nil)
	_ store.AuditLog      = (*Store)(nil)
)

func New() *Store {
	return &Store{
		nextID:    1,
		movements: make(map[int64]core.Movement),
		settings: core.Settings{
			ID:           core.SettingsID,
			OCRThreshold: 70,
		},
	}
}

// Insert implements store.MovementStore.
func (s *Store) Insert(ctx context.Context, m core.Movement) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.nextID
	s.nextID++
	s.movements[m.ID] = m
	return m.ID, nil
}

// Update implements store.MovementStore; only amount and description
// are merged into the stored record.
func (s *Store) Update(ctx context.Context, m core.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.movements[m.ID]
	if !ok {
		return fmt.Errorf("movement %d not found", m.ID)
	}
	existing.Amount = m.Amount
	existing.Description = m.Description
	s.movements[m.ID] = existing
	return nil
}

// Delete implements store.MovementStore.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.movements, id)
	return nil
}

// GetByMonth implements store.MovementStore.
func (s *Store) GetByMonth(ctx context.Context, month core.MonthKey) ([]core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Movement
	for _, m := range s.movements {
		if m.Month == month {
			out = append(out, m)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// GetAll implements store.MovementStore.
func (s *Store) GetAll(ctx context.Context) ([]core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Movement, 0, len(s.movements))
	for _, m := range s.movements {
		out = append(out, m)
	}
	sortNewestFirst(out)
	return out, nil
}

// GetLatest implements store.MovementStore.
func (s *Store) GetLatest(ctx context.Context) (*core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *core.Movement
	for id := range s.movements {
		m := s.movements[id]
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = &m
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// Settings returns the settings view of this store.
func (s *Store) Settings() *SettingsView {
	return &SettingsView{s: s}
}

// Get implements store.SettingsStore.
func (v *SettingsView) Get(ctx context.Context) (core.Settings, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.settings, nil
}

// Update implements store.SettingsStore.
func (v *SettingsView) Update(ctx context.Context, s core.Settings) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	s.ID = core.SettingsID
	v.s.settings = s
	return nil
}

// RecordAudit implements store.AuditLog.
func (s *Store) RecordAudit(ctx context.Context, e store.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = int64(len(s.audit) + 1)
	s.audit = append(s.audit, e)
	return nil
}

// ListAudit implements store.AuditLog, newest first.
func (s *Store) ListAudit(ctx context.Context, limit int) ([]store.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.audit)
	if limit > n {
		limit = n
	}
	out := make([]store.AuditEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

func sortNewestFirst(movs []core.Movement) {
	sort.Slice(movs, func(i, j int) bool {
		if movs[i].CreatedAt.Equal(movs[j].CreatedAt) {
			return movs[i].ID > movs[j].ID
		}
		return movs[i].CreatedAt.After(movs[j].CreatedAt)
	})
}
