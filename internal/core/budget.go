package core

// MonthSummary is the derived budget state of a single month bucket.
type MonthSummary struct {
	Month      MonthKey
	TotalSpent Money
	Remaining  Money   // allowance minus spent, may be negative
	Percentage float64 // share of the allowance still available, 0-100
}

// Summarize computes the summary for a month from its movements and the
// active settings. Pure function: recomputing on the same inputs yields
// the same summary.
//
// A zero allowance pins Percentage to 0 so there is no division by
// zero; Remaining is still computed and goes negative on overspend.
func Summarize(month MonthKey, movements []Movement, s Settings) MonthSummary {
	var spent int64
	for _, m := range movements {
		spent += m.Amount.Cents
	}
	allowance := s.MonthlyAllowance.Cents
	remaining := allowance - spent

	var pct float64
	if allowance > 0 {
		pct = float64(remaining) / float64(allowance) * 100
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
	}

	return MonthSummary{
		Month:      month,
		TotalSpent: Money{Cents: spent},
		Remaining:  Money{Cents: remaining},
		Percentage: pct,
	}
}

// Overspent reports whether the month's spending exceeds the allowance.
func (s MonthSummary) Overspent() bool {
	return s.Remaining.Cents < 0
}
