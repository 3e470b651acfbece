package memory

import (
	"context"
	"testing"
	"time"

	"gastos/internal/core"
	"gastos/internal/store"
)

func testMovement(month core.MonthKey, cents int64, desc string, at time.Time) core.Movement {
	return core.Movement{
		CreatedAt:   at,
		Month:       month,
		Amount:      core.Money{Cents: cents},
		Description: desc,
		Origin:      core.OriginManual,
	}
}

func TestInsertAssignsSequentialIDs(t *testing.T) {
	st := New()
	ctx := context.Background()
	now := time.Now()

	id1, err := st.Insert(ctx, testMovement("2026-08", 100, "first", now))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id2, err := st.Insert(ctx, testMovement("2026-08", 200, "second", now))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("ids not unique: %d", id1)
	}
}

func TestGetByMonthOrdersNewestFirst(t *testing.T) {
	st := New()
	ctx := context.Background()
	now := time.Now()

	if _, err := st.Insert(ctx, testMovement("2026-08", 100, "older", now.Add(-time.Hour))); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := st.Insert(ctx, testMovement("2026-08", 200, "newer", now)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := st.Insert(ctx, testMovement("2026-07", 300, "other month", now)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := st.GetByMonth(ctx, "2026-08")
	if err != nil {
		t.Fatalf("GetByMonth: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetByMonth returned %d movements; want 2", len(got))
	}
	if got[0].Description != "newer" || got[1].Description != "older" {
		t.Fatalf("unexpected order: %q then %q", got[0].Description, got[1].Description)
	}
}

func TestUpdateMergesAmountAndDescriptionOnly(t *testing.T) {
	st := New()
	ctx := context.Background()

	id, err := st.Insert(ctx, testMovement("2026-08", 1000, "before", time.Now()))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	edit := core.Movement{
		ID:          id,
		Month:       "1999-01", // must be ignored
		Amount:      core.Money{Cents: 1500},
		Description: "after",
		Origin:      core.OriginOCR, // must be ignored
	}
	if err := st.Update(ctx, edit); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := st.GetByMonth(ctx, "2026-08")
	if err != nil {
		t.Fatalf("GetByMonth: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("movement left its month bucket")
	}
	if got[0].Amount.Cents != 1500 || got[0].Description != "after" {
		t.Fatalf("edit not merged: %+v", got[0])
	}
	if got[0].Origin != core.OriginManual {
		t.Fatalf("Origin changed by update: %q", got[0].Origin)
	}
}

func TestUpdateMissing(t *testing.T) {
	st := New()
	if err := st.Update(context.Background(), core.Movement{ID: 42}); err == nil {
		t.Fatal("expected error for missing movement")
	}
}

func TestGetLatest(t *testing.T) {
	st := New()
	ctx := context.Background()

	latest, err := st.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest != nil {
		t.Fatalf("GetLatest on empty store = %+v; want nil", latest)
	}

	now := time.Now()
	if _, err := st.Insert(ctx, testMovement("2026-07", 100, "older", now.Add(-time.Hour))); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := st.Insert(ctx, testMovement("2026-08", 200, "newest", now)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	latest, err = st.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest == nil || latest.Description != "newest" {
		t.Fatalf("GetLatest = %+v; want the newest movement", latest)
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	st := New()
	ctx := context.Background()
	view := st.Settings()

	s, err := view.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.OCRThreshold != 70 {
		t.Fatalf("default OCRThreshold = %d; want 70", s.OCRThreshold)
	}

	s.MonthlyAllowance = core.Money{Cents: 30000}
	if err := view.Update(ctx, s); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := view.Get(ctx)
	if got.MonthlyAllowance.Cents != 30000 {
		t.Fatalf("allowance after update = %d; want 30000", got.MonthlyAllowance.Cents)
	}
}

func TestAuditNewestFirstWithLimit(t *testing.T) {
	st := New()
	ctx := context.Background()

	for _, et := range []string{"created", "updated", "deleted"} {
		if err := st.RecordAudit(ctx, store.AuditEntry{EventType: et, MovementID: 1, Month: "2026-08"}); err != nil {
			t.Fatalf("RecordAudit: %v", err)
		}
	}

	got, err := st.ListAudit(ctx, 2)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListAudit(2) returned %d entries; want 2", len(got))
	}
	if got[0].EventType != "deleted" || got[1].EventType != "updated" {
		t.Fatalf("unexpected order: %q then %q", got[0].EventType, got[1].EventType)
	}
}
