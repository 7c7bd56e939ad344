// Package derive synthesizes the prayer, health-habit and Quran-recitation
// tasks for a day from settings. Generators are pure: equal inputs give equal
// output, and a same-id task already present for the day keeps its status.
package derive

import (
	"time"

	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

const (
	// PrayerWindowMinutes is the block reserved for each prayer.
	PrayerWindowMinutes = 30
	// PrayerReminderMinutes is the fixed reminder lead of prayer tasks.
	PrayerReminderMinutes = 15
	// DefaultQuranMinutes applies when the configured duration is not positive.
	DefaultQuranMinutes = 30
)

// PrayerTasks builds one task per prayer with a known time. A time that does
// not parse is kept as raw text and never scheduled.
func PrayerTasks(times model.PrayerTimes, today time.Time, existing []model.Task) []model.Task {
	date := model.DateKey(today)
	out := make([]model.Task, 0, len(model.PrayerNames))
	for _, name := range model.PrayerNames {
		value := times.Get(name)
		if value == "" {
			continue
		}
		window := timerange.Raw(value)
		if start, ok := timerange.ParseClock(value); ok {
			window = timerange.NewRange(start, start.Add(PrayerWindowMinutes))
		}
		id := model.PrayerTaskID(name)
		out = append(out, model.Task{
			ID:       id,
			Origin:   model.PrayerOrigin(),
			Title:    name + " Prayer",
			Category: model.CategoryPersonal,
			Time:     window,
			Status:   carriedStatus(existing, id, date),
			Date:     date,
			Reminder: PrayerReminderMinutes,
		})
	}
	return out
}

// HealthTasks builds a task for every enabled habit whose clocks parse.
func HealthTasks(settings model.HealthSettings, today time.Time, existing []model.Task) []model.Task {
	date := model.DateKey(today)
	out := make([]model.Task, 0, len(model.Habits))
	for _, habit := range model.Habits {
		setting := settings.Habit(habit)
		if !setting.Enabled {
			continue
		}
		window, err := setting.Window()
		if err != nil {
			continue
		}
		id := model.HealthTaskID(habit)
		out = append(out, model.Task{
			ID:         id,
			Origin:     model.HealthOrigin(habit),
			Title:      model.HabitTitles[habit],
			Category:   model.CategoryHealth,
			Time:       window,
			Status:     carriedStatus(existing, id, date),
			Date:       date,
			Recurrence: dailyIf(settings.RepeatDaily),
		})
	}
	return out
}

// QuranTask builds the recitation block that ends at Fajr. It reports false
// when recitation is disabled or Fajr is unknown. An existing task for the day
// keeps its status and its time, which the user may have moved.
func QuranTask(settings model.HealthSettings, times *model.PrayerTimes, today time.Time, existing []model.Task) (model.Task, bool) {
	if !settings.QuranRecitation.Enabled || times == nil {
		return model.Task{}, false
	}
	fajr, ok := timerange.ParseClock(times.Fajr)
	if !ok {
		return model.Task{}, false
	}
	duration := settings.QuranRecitation.Duration
	if duration <= 0 {
		duration = DefaultQuranMinutes
	}
	date := model.DateKey(today)
	task := model.Task{
		ID:         model.QuranTaskID,
		Origin:     model.HealthOrigin(model.HabitQuran),
		Title:      "Daily Quran Recitation",
		Category:   model.CategoryHealth,
		Time:       timerange.NewRange(fajr.Add(-duration), fajr),
		Status:     model.StatusPending,
		Date:       date,
		Recurrence: &model.Recurrence{Frequency: model.FrequencyDaily},
	}
	if prev, ok := find(existing, model.QuranTaskID, date); ok {
		task.Status = prev.Status
		task.Time = prev.Time
	}
	return task, true
}

func carriedStatus(existing []model.Task, id, date string) model.Status {
	if prev, ok := find(existing, id, date); ok && prev.Status.IsValid() {
		return prev.Status
	}
	return model.StatusPending
}

func find(tasks []model.Task, id, date string) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id && t.Date == date {
			return t, true
		}
	}
	return model.Task{}, false
}

func dailyIf(repeat bool) *model.Recurrence {
	if !repeat {
		return nil
	}
	return &model.Recurrence{Frequency: model.FrequencyDaily}
}
