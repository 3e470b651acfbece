package core

import (
	"testing"
	"time"
)

func TestGroupByMonth(t *testing.T) {
	base := time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)
	movs := []Movement{
		{ID: 1, CreatedAt: base, Month: "2025-05", Amount: Money{Cents: 100}, Origin: OriginManual},
		{ID: 2, CreatedAt: base.AddDate(0, 1, 0), Month: "2025-06", Amount: Money{Cents: 200}, Origin: OriginManual},
		{ID: 3, CreatedAt: base.Add(2 * time.Hour), Month: "2025-05", Amount: Money{Cents: 300}, Origin: OriginManual},
	}

	groups := GroupByMonth(movs)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Month != "2025-06" || groups[1].Month != "2025-05" {
		t.Fatalf("expected newest month first, got %q then %q", groups[0].Month, groups[1].Month)
	}
	may := groups[1].Movements
	if len(may) != 2 || may[0].ID != 3 || may[1].ID != 1 {
		t.Fatalf("expected newest movement first within month, got %+v", may)
	}
}

func TestGroupByMonthEmpty(t *testing.T) {
	if groups := GroupByMonth(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}
