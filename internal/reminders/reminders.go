// Package reminders decides which of today's tasks are due a reminder, which
// prayer tasks are overdue, and which prayer alerts are still ahead.
package reminders

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/scheduler"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

const (
	PollInterval         = time.Minute
	AutoCompleteInterval = 5 * time.Minute
	// AutoCompleteGrace is how long after its start a prayer stays pending.
	AutoCompleteGrace = 20 * time.Minute
	PrayerAlertLead   = 15 * time.Minute

	ReminderTitle    = "Task Reminder"
	PrayerAlertTitle = "Prayer Time Reminder"
)

// Triggered records which tasks already fired their reminder, per day.
type Triggered map[string]struct{}

func triggeredKey(date, id string) string { return date + "/" + id }

func (t Triggered) Has(date, id string) bool {
	_, ok := t[triggeredKey(date, id)]
	return ok
}

func (t Triggered) Mark(date, id string) {
	t[triggeredKey(date, id)] = struct{}{}
}

func (t Triggered) Clear(date, id string) {
	delete(t, triggeredKey(date, id))
}

// Only returns the markers of date.
func (t Triggered) Only(date string) Triggered {
	out := make(Triggered)
	prefix := date + "/"
	for k := range t {
		if strings.HasPrefix(k, prefix) {
			out[k] = struct{}{}
		}
	}
	return out
}

func (t Triggered) Clone() Triggered {
	out := make(Triggered, len(t))
	for k := range t {
		out[k] = struct{}{}
	}
	return out
}

// Due is a reminder that should fire now.
type Due struct {
	Task  model.Task
	Title string
	Body  string
}

// Scan returns the pending tasks dated today whose reminder window
// [start-reminder, start) contains now and that have not fired yet. It does
// not mark them.
func Scan(tasks []model.Task, triggered Triggered, now time.Time) []Due {
	date := model.DateKey(now)
	var due []Due
	for _, t := range tasks {
		if t.Date != date || t.Status != model.StatusPending || t.Reminder <= 0 {
			continue
		}
		if triggered.Has(t.Date, t.ID) {
			continue
		}
		start, ok := t.Time.StartOn(now)
		if !ok {
			continue
		}
		at := start.Add(-time.Duration(t.Reminder) * time.Minute)
		if now.Before(at) || !now.Before(start) {
			continue
		}
		due = append(due, Due{
			Task:  t,
			Title: ReminderTitle,
			Body:  fmt.Sprintf("%s is starting in %d minutes.", t.Title, t.Reminder),
		})
	}
	return due
}

// OverduePrayers returns the ids of today's pending prayer tasks that started
// more than AutoCompleteGrace ago.
func OverduePrayers(tasks []model.Task, now time.Time) []string {
	date := model.DateKey(now)
	var ids []string
	for _, t := range tasks {
		if t.Date != date || t.Status != model.StatusPending || t.Origin.Kind != model.OriginPrayer {
			continue
		}
		start, ok := t.Time.StartOn(now)
		if !ok {
			continue
		}
		if now.After(start.Add(AutoCompleteGrace)) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// PrayerAlerts builds one event per prayer whose alert instant is still in
// the future.
func PrayerAlerts(times model.PrayerTimes, now time.Time) []scheduler.ReminderEvent {
	var out []scheduler.ReminderEvent
	for _, name := range model.PrayerNames {
		at, ok := timerange.ParseInstant(times.Get(name), now)
		if !ok {
			continue
		}
		alertAt := at.Add(-PrayerAlertLead)
		if !alertAt.After(now) {
			continue
		}
		out = append(out, scheduler.ReminderEvent{
			ID:        "alert-" + model.PrayerTaskID(name),
			TaskID:    model.PrayerTaskID(name),
			Title:     PrayerAlertTitle,
			Body:      fmt.Sprintf("%s prayer is in 15 minutes.", name),
			TriggerAt: alertAt,
		})
	}
	return out
}
