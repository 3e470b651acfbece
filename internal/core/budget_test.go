package core

import (
	"testing"
	"time"
)

func mov(month MonthKey, cents int64) Movement {
	return Movement{
		CreatedAt: time.Now(),
		Month:     month,
		Amount:    Money{Cents: cents},
		Origin:    OriginManual,
	}
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		name          string
		allowance     int64
		amounts       []int64
		wantSpent     int64
		wantRemaining int64
		wantPct       float64
	}{
		{"typical month", 20000, []int64{5000, 3000}, 8000, 12000, 60},
		{"empty month", 20000, nil, 0, 20000, 100},
		{"overspent clamps to zero", 10000, []int64{15000}, 15000, -5000, 0},
		{"zero allowance guard", 0, []int64{1000}, 1000, -1000, 0},
		{"zero allowance empty", 0, nil, 0, 0, 0},
		{"exact spend", 5000, []int64{5000}, 5000, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var movs []Movement
			for _, c := range tc.amounts {
				movs = append(movs, mov("2025-06", c))
			}
			s := Settings{ID: SettingsID, MonthlyAllowance: Money{Cents: tc.allowance}, OCRThreshold: 70}
			got := Summarize("2025-06", movs, s)
			if got.TotalSpent.Cents != tc.wantSpent {
				t.Fatalf("spent: expected %d, got %d", tc.wantSpent, got.TotalSpent.Cents)
			}
			if got.Remaining.Cents != tc.wantRemaining {
				t.Fatalf("remaining: expected %d, got %d", tc.wantRemaining, got.Remaining.Cents)
			}
			if got.Percentage != tc.wantPct {
				t.Fatalf("percentage: expected %v, got %v", tc.wantPct, got.Percentage)
			}
			if got.Percentage < 0 || got.Percentage > 100 {
				t.Fatalf("percentage out of range: %v", got.Percentage)
			}
		})
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	movs := []Movement{mov("2025-06", 5000), mov("2025-06", 3000)}
	s := Settings{ID: SettingsID, MonthlyAllowance: Money{Cents: 20000}, OCRThreshold: 70}
	first := Summarize("2025-06", movs, s)
	second := Summarize("2025-06", movs, s)
	if first != second {
		t.Fatalf("expected identical summaries, got %+v and %+v", first, second)
	}
}

func TestOverspent(t *testing.T) {
	if (MonthSummary{Remaining: Money{Cents: 1}}).Overspent() {
		t.Fatalf("positive remaining is not overspent")
	}
	if !(MonthSummary{Remaining: Money{Cents: -1}}).Overspent() {
		t.Fatalf("negative remaining is overspent")
	}
}
