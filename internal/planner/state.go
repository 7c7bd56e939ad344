// Package planner holds the planner state and the transitions that move it
// forward. Every transition works on a copy and returns the next state, so a
// State value is never changed after it has been handed out.
package planner

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/salahplan/internal/aiparse"
	"github.com/sandeepkv93/salahplan/internal/conflict"
	"github.com/sandeepkv93/salahplan/internal/derive"
	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/quran"
	"github.com/sandeepkv93/salahplan/internal/reconcile"
	"github.com/sandeepkv93/salahplan/internal/reminders"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

var (
	ErrTaskNotFound  = errors.New("planner: task not found")
	ErrMissingFields = errors.New("planner: title and time are required")
)

type State struct {
	Tasks          []model.Task
	PrayerSettings model.PrayerSettings
	HealthSettings model.HealthSettings
	Theme          model.Theme
	Notifications  []model.Notification

	// PrayerTimes is nil while no times are known for today.
	PrayerTimes *model.PrayerTimes
	Triggered   reminders.Triggered
}

// New builds a state from a saved snapshot, filling in defaults for anything
// missing.
func New(saved model.SavedState) State {
	def := model.DefaultSavedState()
	s := State{
		Tasks:          normalizeTasks(saved.Tasks),
		PrayerSettings: saved.PrayerSettings,
		HealthSettings: saved.HealthSettings,
		Theme:          saved.Theme,
		Notifications:  normalizeNotifications(saved.Notifications),
		Triggered:      reminders.Triggered{},
	}
	if !s.PrayerSettings.Juristic.IsValid() {
		s.PrayerSettings.Juristic = def.PrayerSettings.Juristic
	}
	if !s.PrayerSettings.HighLatitudeMethod.IsValid() {
		s.PrayerSettings.HighLatitudeMethod = def.PrayerSettings.HighLatitudeMethod
	}
	if !s.Theme.IsValid() {
		s.Theme = def.Theme
	}
	return s
}

// normalizeTasks keeps the first task per (id, date) and reopens tasks whose
// status is not one of the known values.
func normalizeTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.Key()]; dup {
			continue
		}
		seen[t.Key()] = struct{}{}
		if !t.Status.IsValid() {
			t.Status = model.StatusPending
		}
		out = append(out, t)
	}
	return out
}

func normalizeNotifications(ns []model.Notification) []model.Notification {
	out := make([]model.Notification, 0, len(ns))
	seen := make(map[string]struct{}, len(ns))
	for _, n := range ns {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Saved is the persisted part of the state.
func (s State) Saved() model.SavedState {
	return model.SavedState{
		Tasks:          slices.Clone(s.Tasks),
		PrayerSettings: s.PrayerSettings,
		HealthSettings: s.HealthSettings,
		Theme:          s.Theme,
		Notifications:  slices.Clone(s.Notifications),
	}
}

func (s State) clone() State {
	next := s
	next.Tasks = slices.Clone(s.Tasks)
	next.Notifications = slices.Clone(s.Notifications)
	next.Triggered = s.Triggered.Clone()
	next.PrayerSettings.ManualTimes = maps.Clone(s.PrayerSettings.ManualTimes)
	next.HealthSettings.QuranRecitation.CompletionHistory = slices.Clone(s.HealthSettings.QuranRecitation.CompletionHistory)
	if s.PrayerTimes != nil {
		times := *s.PrayerTimes
		next.PrayerTimes = &times
	}
	return next
}

// Today returns today's tasks in display order.
func (s State) Today(now time.Time) []model.Task {
	return reconcile.Day(s.Tasks, now)
}

// Find returns the task with id on date.
func (s State) Find(id, date string) (model.Task, bool) {
	i := s.index(id, date)
	if i < 0 {
		return model.Task{}, false
	}
	return s.Tasks[i], true
}

func (s State) index(id, date string) int {
	return slices.IndexFunc(s.Tasks, func(t model.Task) bool { return t.ID == id && t.Date == date })
}

// UnreadNotifications counts notifications not yet marked read.
func (s State) UnreadNotifications() int {
	n := 0
	for _, note := range s.Notifications {
		if !note.Read {
			n++
		}
	}
	return n
}

// Rollover moves the state to the day of now: reminder markers of other days
// are dropped and the derived tasks regenerated.
func (s State) Rollover(now time.Time) State {
	next := s.clone()
	next.Triggered = s.Triggered.Only(model.DateKey(now))
	return next.Regenerate(now)
}

// Regenerate reruns every generator for today.
func (s State) Regenerate(now time.Time) State {
	next := s.clone()
	next.regeneratePrayer(now)
	next.regenerateHealth(now)
	next.regenerateQuran(now)
	return next
}

func (s *State) regeneratePrayer(now time.Time) {
	var generated []model.Task
	if s.PrayerTimes != nil {
		generated = derive.PrayerTasks(*s.PrayerTimes, now, s.Tasks)
	}
	s.Tasks = reconcile.Reconcile(s.Tasks, generated, reconcile.FamilyPrayer, now)
}

func (s *State) regenerateHealth(now time.Time) {
	generated := derive.HealthTasks(s.HealthSettings, now, s.Tasks)
	s.Tasks = reconcile.Reconcile(s.Tasks, generated, reconcile.FamilyHealth, now)
}

func (s *State) regenerateQuran(now time.Time) {
	var generated []model.Task
	if task, ok := derive.QuranTask(s.HealthSettings, s.PrayerTimes, now, s.Tasks); ok {
		generated = []model.Task{task}
	}
	s.Tasks = reconcile.Reconcile(s.Tasks, generated, reconcile.FamilyQuran, now)
}

// ApplyPrayerTimes installs today's prayer times, or clears them when times is
// nil, and regenerates the prayer and Quran tasks.
func (s State) ApplyPrayerTimes(times *model.PrayerTimes, now time.Time) State {
	next := s.clone()
	next.PrayerTimes = nil
	if times != nil {
		t := *times
		next.PrayerTimes = &t
	}
	next.regeneratePrayer(now)
	next.regenerateQuran(now)
	return next
}

// SetPrayerSettings stores new prayer settings. Times are resolved outside the
// state and arrive through ApplyPrayerTimes.
func (s State) SetPrayerSettings(settings model.PrayerSettings) (State, error) {
	if err := settings.Validate(); err != nil {
		return s, err
	}
	next := s.clone()
	next.PrayerSettings = settings
	next.PrayerSettings.ManualTimes = maps.Clone(settings.ManualTimes)
	return next, nil
}

// SaveHealthSettings stores habit settings and regenerates the habit and Quran
// tasks. The recitation history is kept when settings carry none.
func (s State) SaveHealthSettings(settings model.HealthSettings, now time.Time) State {
	next := s.clone()
	if settings.QuranRecitation.CompletionHistory == nil {
		settings.QuranRecitation.CompletionHistory = next.HealthSettings.QuranRecitation.CompletionHistory
	}
	next.HealthSettings = settings
	next.HealthSettings.QuranRecitation.CompletionHistory = slices.Clone(settings.QuranRecitation.CompletionHistory)
	next.regenerateHealth(now)
	next.regenerateQuran(now)
	return next
}

// SetQuranSettings changes whether and how long to recite. The completion
// history is not touched.
func (s State) SetQuranSettings(enabled bool, duration int, now time.Time) State {
	next := s.clone()
	next.HealthSettings.QuranRecitation.Enabled = enabled
	next.HealthSettings.QuranRecitation.Duration = duration
	next.regenerateQuran(now)
	return next
}

// TaskInput is a task as entered by the user. An empty ID creates a new task.
type TaskInput struct {
	ID         string
	Date       string
	Title      string
	Category   model.Category
	Time       timerange.Window
	Reminder   int
	Recurrence *model.Recurrence
}

// FromDraft turns a parsed prompt into a new task.
func FromDraft(d aiparse.Draft) TaskInput {
	return TaskInput{
		Title:      d.Title,
		Category:   d.Category,
		Time:       d.Time,
		Reminder:   d.Reminder,
		Recurrence: d.Recurrence,
	}
}

// SaveTask creates or edits a task. The whole save is rejected when the time
// does not parse or overlaps another task on the same date.
func (s State) SaveTask(in TaskInput, now time.Time) (State, model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.Time.String() == "" {
		return s, model.Task{}, ErrMissingFields
	}
	if !in.Time.Valid() {
		return s, model.Task{}, fmt.Errorf("%w: %q", conflict.ErrInvalidTime, in.Time.String())
	}
	category := in.Category
	if category == "" {
		category = model.CategoryWork
	}

	date := in.Date
	if date == "" {
		date = model.DateKey(now)
	}
	var task model.Task
	if in.ID != "" {
		prev, ok := s.Find(in.ID, date)
		if !ok {
			return s, model.Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, in.ID)
		}
		task = prev
	} else {
		task = model.Task{
			ID:     s.newID(now),
			Origin: model.UserOrigin(),
			Status: model.StatusPending,
			Date:   date,
		}
	}
	task.Title = title
	task.Category = category
	task.Time = in.Time
	task.Reminder = in.Reminder
	task.Recurrence = in.Recurrence

	if err := task.Validate(); err != nil {
		return s, model.Task{}, err
	}
	if err := conflict.Check(task, s.Tasks, now.Location()); err != nil {
		return s, model.Task{}, err
	}

	next := s.clone()
	if i := next.index(task.ID, task.Date); i >= 0 {
		next.Tasks[i] = task
	} else {
		next.Tasks = append(next.Tasks, task)
	}
	next.sortDate(task.Date)
	return next, task, nil
}

// newID is the creation time in milliseconds, bumped past any id in use.
func (s State) newID(now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if !slices.ContainsFunc(s.Tasks, func(t model.Task) bool { return t.ID == id }) {
			return id
		}
		ms++
	}
}

func (s *State) sortDate(date string) {
	others := make([]model.Task, 0, len(s.Tasks))
	day := make([]model.Task, 0, 8)
	for _, t := range s.Tasks {
		if t.Date == date {
			day = append(day, t)
		} else {
			others = append(others, t)
		}
	}
	reconcile.SortDay(day)
	s.Tasks = append(others, day...)
}

// DeleteTask removes one task. Derived tasks come back with the next
// regeneration.
func (s State) DeleteTask(id, date string) (State, error) {
	i := s.index(id, date)
	if i < 0 {
		return s, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	next := s.clone()
	next.Tasks = slices.Delete(next.Tasks, i, i+1)
	next.Triggered.Clear(date, id)
	return next, nil
}

// ToggleTask flips a task between pending and done.
func (s State) ToggleTask(id, date string, now time.Time) (State, error) {
	task, ok := s.Find(id, date)
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return s.SetTaskStatus(id, date, task.Status.Toggled(), now)
}

// SetTaskStatus is the single path for status changes. Reopening a task
// clears its reminder marker and the Quran task keeps the recitation history
// in step with its status.
func (s State) SetTaskStatus(id, date string, status model.Status, now time.Time) (State, error) {
	if !status.IsValid() {
		return s, fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}
	i := s.index(id, date)
	if i < 0 {
		return s, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	next := s.clone()
	next.Tasks[i].Status = status
	if status == model.StatusPending {
		next.Triggered.Clear(date, id)
	}
	if id == model.QuranTaskID {
		q := &next.HealthSettings.QuranRecitation
		q.CompletionHistory = quran.Toggle(q.CompletionHistory, date, status)
	}
	next.sortDate(date)
	return next, nil
}

// RepeatTomorrow copies a task to tomorrow as a new pending user task.
func (s State) RepeatTomorrow(id, date string, now time.Time) (State, model.Task, error) {
	task, ok := s.Find(id, date)
	if !ok {
		return s, model.Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return s.SaveTask(TaskInput{
		Date:       model.DateKey(now.AddDate(0, 0, 1)),
		Title:      task.Title,
		Category:   task.Category,
		Time:       task.Time,
		Reminder:   task.Reminder,
		Recurrence: task.Recurrence,
	}, now)
}

// Tick fires the reminders due now. Each fired task is marked so that later
// ticks in the same window stay quiet.
func (s State) Tick(now time.Time) (State, []model.Notification) {
	due := reminders.Scan(s.Tasks, s.Triggered, now)
	if len(due) == 0 {
		return s, nil
	}
	next := s.clone()
	fired := make([]model.Notification, 0, len(due))
	for _, d := range due {
		n := model.NewNotification(d.Title, d.Body, now)
		next = next.withNotification(n)
		next.Triggered.Mark(d.Task.Date, d.Task.ID)
		fired = append(fired, n)
	}
	return next, fired
}

// AutoComplete marks prayers done once their grace period has passed. It does
// nothing while prayer times are unknown.
func (s State) AutoComplete(now time.Time) (State, []string) {
	if s.PrayerTimes == nil {
		return s, nil
	}
	ids := reminders.OverduePrayers(s.Tasks, now)
	next := s
	date := model.DateKey(now)
	for _, id := range ids {
		var err error
		if next, err = next.SetTaskStatus(id, date, model.StatusDone, now); err != nil {
			continue
		}
	}
	return next, ids
}

// Notify prepends n to the notification log.
func (s State) Notify(n model.Notification) State {
	return s.clone().withNotification(n)
}

func (s State) withNotification(n model.Notification) State {
	s.Notifications = append([]model.Notification{n}, s.Notifications...)
	return s
}

func (s State) ClearNotifications() State {
	next := s.clone()
	next.Notifications = []model.Notification{}
	return next
}

func (s State) MarkNotificationsRead() State {
	next := s.clone()
	for i := range next.Notifications {
		next.Notifications[i].Read = true
	}
	return next
}

func (s State) SetTheme(theme model.Theme) (State, error) {
	if !theme.IsValid() {
		return s, fmt.Errorf("%w: %q", model.ErrInvalidTheme, theme)
	}
	next := s.clone()
	next.Theme = theme
	return next, nil
}

// Import replaces tasks, settings and theme with a backup. The notification
// log is kept. Derived tasks are regenerated for today.
func (s State) Import(saved model.SavedState, now time.Time) State {
	imported := New(saved)
	next := s.clone()
	next.Tasks = imported.Tasks
	next.PrayerSettings = imported.PrayerSettings
	next.HealthSettings = imported.HealthSettings
	next.Theme = imported.Theme
	next.Triggered = reminders.Triggered{}
	return next.Regenerate(now)
}
