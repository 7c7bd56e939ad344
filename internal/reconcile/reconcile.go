// Package reconcile splices freshly generated derived tasks into the task list.
package reconcile

import (
	"sort"
	"time"

	"github.com/sandeepkv93/salahplan/internal/model"
)

// Family is one generator's slice of derived tasks. Reconciling a family
// replaces only the tasks it owns.
type Family string

const (
	FamilyPrayer Family = "prayer"
	FamilyHealth Family = "health"
	FamilyQuran  Family = "quran"
)

func (f Family) Owns(t model.Task) bool {
	switch f {
	case FamilyPrayer:
		return t.Origin.Kind == model.OriginPrayer
	case FamilyHealth:
		return t.Origin.Kind == model.OriginHealth && t.Origin.Habit != model.HabitQuran
	case FamilyQuran:
		return t.Origin.Kind == model.OriginHealth && t.Origin.Habit == model.HabitQuran
	default:
		return false
	}
}

// Reconcile drops today's tasks owned by family, appends generated and sorts
// today's slice. Other days are returned first and untouched. Feeding the
// result back in with the same generated tasks returns it unchanged.
func Reconcile(current, generated []model.Task, family Family, today time.Time) []model.Task {
	date := model.DateKey(today)
	others := make([]model.Task, 0, len(current))
	day := make([]model.Task, 0, len(generated)+8)
	for _, t := range current {
		switch {
		case t.Date != date:
			others = append(others, t)
		case family.Owns(t):
		default:
			day = append(day, t)
		}
	}
	day = append(day, generated...)
	SortDay(day)
	return append(others, day...)
}

// SortDay orders one day's tasks: pending before done, then by start clock.
// Tasks without a parseable time go last. The sort is stable.
func SortDay(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if ad, bd := a.Status == model.StatusDone, b.Status == model.StatusDone; ad != bd {
			return bd
		}
		av, bv := a.Time.Valid(), b.Time.Valid()
		switch {
		case av && bv:
			return a.Time.Start.Minutes() < b.Time.Start.Minutes()
		case av != bv:
			return av
		default:
			return false
		}
	})
}

// Day returns the tasks dated today, in list order.
func Day(tasks []model.Task, today time.Time) []model.Task {
	date := model.DateKey(today)
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Date == date {
			out = append(out, t)
		}
	}
	return out
}
