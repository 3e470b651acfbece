package core

import "sort"

// MonthGroup is one month bucket of the full movement history.
type MonthGroup struct {
	Month     MonthKey
	Movements []Movement
}

// GroupByMonth buckets movements by their month key for history views.
// Months are ordered newest first; movements within a month are ordered
// by creation time, newest first.
func GroupByMonth(movements []Movement) []MonthGroup {
	buckets := make(map[MonthKey][]Movement)
	for _, m := range movements {
		buckets[m.Month] = append(buckets[m.Month], m)
	}

	groups := make([]MonthGroup, 0, len(buckets))
	for month, movs := range buckets {
		sort.Slice(movs, func(i, j int) bool {
			return movs[i].CreatedAt.After(movs[j].CreatedAt)
		})
		groups = append(groups, MonthGroup{Month: month, Movements: movs})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Month.After(groups[j].Month)
	})
	return groups
}
