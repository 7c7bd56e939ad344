// Package analytics summarizes the task list for the analytics panel.
package analytics

import (
	"time"

	"github.com/sandeepkv93/salahplan/internal/model"
)

type CategoryCount struct {
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
}

type DayCount struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type Summary struct {
	Total        int             `json:"total"`
	Done         int             `json:"done"`
	Pending      int             `json:"pending"`
	Categories   []CategoryCount `json:"categories"`
	MostFrequent model.Category  `json:"mostFrequent,omitempty"`
	Week         []DayCount      `json:"week"`
	Committed    Committed       `json:"committed"`
}

// Committed is the time today already spoken for by prayers and health.
type Committed struct {
	Minutes int `json:"minutes"`
}

func (c Committed) Hours() int { return c.Minutes / 60 }

func (c Committed) Remainder() int { return c.Minutes % 60 }

// Summarize computes every panel statistic over tasks as of now.
func Summarize(tasks []model.Task, now time.Time) Summary {
	s := Summary{Total: len(tasks)}
	counts := make(map[model.Category]int, len(model.Categories))
	for _, t := range tasks {
		switch t.Status {
		case model.StatusDone:
			s.Done++
		case model.StatusPending:
			s.Pending++
		}
		counts[t.Category]++
	}

	best := -1
	for _, c := range model.Categories {
		s.Categories = append(s.Categories, CategoryCount{Category: c, Count: counts[c]})
		// Ties go to the later category.
		if counts[c] >= best {
			best = counts[c]
			s.MostFrequent = c
		}
	}
	if s.Total == 0 {
		s.MostFrequent = ""
	}

	s.Week = CompletedByDay(tasks, now, 7)
	s.Committed = CommittedToday(tasks, now)
	return s
}

// CompletedByDay counts done tasks for each of the last days days, oldest
// first, ending today.
func CompletedByDay(tasks []model.Task, now time.Time, days int) []DayCount {
	out := make([]DayCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := now.AddDate(0, 0, -i)
		key := model.DateKey(d)
		n := 0
		for _, t := range tasks {
			if t.Date == key && t.Status == model.StatusDone {
				n++
			}
		}
		out = append(out, DayCount{Date: key, Day: d.Format("Mon"), Count: n})
	}
	return out
}

// CommittedToday sums the durations of today's prayer and Health tasks.
func CommittedToday(tasks []model.Task, now time.Time) Committed {
	key := model.DateKey(now)
	total := 0
	for _, t := range tasks {
		if t.Date != key {
			continue
		}
		if t.Origin.Kind == model.OriginPrayer || t.Category == model.CategoryHealth {
			total += t.Time.Minutes()
		}
	}
	return Committed{Minutes: total}
}
