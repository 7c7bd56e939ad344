// Package quran tracks recitation progress as a set of completed days.
package quran

import (
	"slices"

	"github.com/sandeepkv93/salahplan/internal/model"
)

// Goal is the number of completed days that make a full cycle.
const Goal = 60

// CompletedDays counts distinct dates in history.
func CompletedDays(history []string) int {
	seen := make(map[string]struct{}, len(history))
	for _, d := range history {
		seen[d] = struct{}{}
	}
	return len(seen)
}

// Ratio is the fraction of Goal completed, capped at 1.
func Ratio(history []string) float64 {
	r := float64(CompletedDays(history)) / Goal
	if r > 1 {
		return 1
	}
	return r
}

// Toggle records date as completed when status is Done and removes it
// otherwise. Dates are never duplicated and other dates are untouched.
func Toggle(history []string, date string, status model.Status) []string {
	out := slices.DeleteFunc(slices.Clone(history), func(d string) bool { return d == date })
	if status == model.StatusDone {
		out = append(out, date)
	}
	return out
}
