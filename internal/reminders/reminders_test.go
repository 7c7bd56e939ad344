package reminders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

var start = time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local)

func meeting() model.Task {
	return model.Task{
		ID: "1741600000000", Origin: model.UserOrigin(), Title: "Dentist",
		Category: model.CategoryPersonal, Time: timerange.ParseWindow("02:00 PM – 03:00 PM"),
		Status: model.StatusPending, Date: "2026-03-10", Reminder: 15,
	}
}

func TestReminderFiresOnce(t *testing.T) {
	tasks := []model.Task{meeting()}
	triggered := Triggered{}

	assert.Empty(t, Scan(tasks, triggered, start.Add(-20*time.Minute)))

	due := Scan(tasks, triggered, start.Add(-10*time.Minute))
	require.Len(t, due, 1)
	assert.Equal(t, "Task Reminder", due[0].Title)
	assert.Equal(t, "Dentist is starting in 15 minutes.", due[0].Body)
	triggered.Mark(due[0].Task.Date, due[0].Task.ID)

	assert.Empty(t, Scan(tasks, triggered, start.Add(-5*time.Minute)))
}

func TestReminderWindowIsHalfOpen(t *testing.T) {
	tasks := []model.Task{meeting()}
	assert.Len(t, Scan(tasks, Triggered{}, start.Add(-15*time.Minute)), 1)
	assert.Empty(t, Scan(tasks, Triggered{}, start))
}

func TestReminderSkips(t *testing.T) {
	done := meeting()
	done.Status = model.StatusDone
	noReminder := meeting()
	noReminder.Reminder = 0
	tomorrow := meeting()
	tomorrow.Date = "2026-03-11"
	raw := meeting()
	raw.Time = timerange.Raw("soon")

	now := start.Add(-10 * time.Minute)
	assert.Empty(t, Scan([]model.Task{done, noReminder, tomorrow, raw}, Triggered{}, now))
}

func TestTriggeredClearAllowsRefire(t *testing.T) {
	task := meeting()
	triggered := Triggered{}
	triggered.Mark(task.Date, task.ID)
	clone := triggered.Clone()

	triggered.Clear(task.Date, task.ID)
	assert.Len(t, Scan([]model.Task{task}, triggered, start.Add(-1*time.Minute)), 1)
	assert.True(t, clone.Has(task.Date, task.ID))
}

func TestTriggeredOnlyKeepsOneDay(t *testing.T) {
	tr := Triggered{}
	tr.Mark("2026-03-10", "a")
	tr.Mark("2026-03-11", "a")
	tr.Mark("2026-03-11", "b")

	only := tr.Only("2026-03-11")
	assert.Len(t, only, 2)
	assert.False(t, only.Has("2026-03-10", "a"))
	assert.True(t, only.Has("2026-03-11", "b"))
	assert.Len(t, tr, 3)
}

func TestOverduePrayersBoundary(t *testing.T) {
	asr := model.Task{
		ID: "prayer-asr", Origin: model.PrayerOrigin(), Title: "Asr Prayer",
		Category: model.CategoryPersonal, Time: timerange.ParseWindow("02:00 PM – 02:30 PM"),
		Status: model.StatusPending, Date: "2026-03-10", Reminder: 15,
	}
	user := meeting()

	assert.Empty(t, OverduePrayers([]model.Task{asr, user}, start.Add(19*time.Minute)))
	assert.Empty(t, OverduePrayers([]model.Task{asr}, start.Add(20*time.Minute)))
	assert.Equal(t, []string{"prayer-asr"}, OverduePrayers([]model.Task{asr, user}, start.Add(21*time.Minute)))

	asr.Status = model.StatusDone
	assert.Empty(t, OverduePrayers([]model.Task{asr}, start.Add(time.Hour)))
}

func TestPrayerAlertsOnlyFuture(t *testing.T) {
	times := model.PrayerTimes{
		Fajr: "05:10 AM", Dhuhr: "12:15 PM", Asr: "04:30 PM", Maghrib: "06:20 PM", Isha: "bad",
	}
	now := time.Date(2026, 3, 10, 16, 20, 0, 0, time.Local)
	events := PrayerAlerts(times, now)
	require.Len(t, events, 1)
	assert.Equal(t, "prayer-maghrib", events[0].TaskID)
	assert.Equal(t, "Prayer Time Reminder", events[0].Title)
	assert.Equal(t, "Maghrib prayer is in 15 minutes.", events[0].Body)
	assert.Equal(t, time.Date(2026, 3, 10, 18, 5, 0, 0, time.Local), events[0].TriggerAt)
}
