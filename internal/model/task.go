package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/salahplan/internal/timerange"
)

var (
	ErrInvalidStatus   = errors.New("model: invalid task status")
	ErrInvalidCategory = errors.New("model: invalid task category")
	ErrInvalidOrigin   = errors.New("model: invalid task origin")
	ErrInvalidDate     = errors.New("model: invalid task date")
)

// DateLayout is the calendar-day key every task carries.
const DateLayout = "2006-01-02"

// DateKey formats t as a local calendar-day key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate binds a date key to midnight in loc.
func ParseDate(key string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, key)
	}
	return d, nil
}

type Status string

const (
	StatusPending Status = "Pending"
	StatusDone    Status = "Done"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDone:
		return true
	default:
		return false
	}
}

// Toggled flips Pending and Done.
func (s Status) Toggled() Status {
	if s == StatusDone {
		return StatusPending
	}
	return StatusDone
}

type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryHealth   Category = "Health"
	CategoryFinance  Category = "Finance"
	CategoryHome     Category = "Home"
	CategorySocial   Category = "Social"
	CategoryOther    Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryWork, CategoryPersonal, CategoryHealth, CategoryFinance,
	CategoryHome, CategorySocial, CategoryOther,
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	for _, known := range Categories {
		if strings.EqualFold(strings.TrimSpace(s), string(known)) {
			return known, true
		}
	}
	return "", false
}

type OriginKind string

const (
	OriginUser   OriginKind = "user"
	OriginPrayer OriginKind = "prayer"
	OriginHealth OriginKind = "health"
)

type Habit string

const (
	HabitGym    Habit = "gym"
	HabitSleep  Habit = "sleep"
	HabitLunch  Habit = "lunch"
	HabitDinner Habit = "dinner"
	HabitQuran  Habit = "quran-recitation"
)

// Origin says which source created a task. Derived origins are owned by
// their generator and replaced on every reconciliation.
type Origin struct {
	Kind  OriginKind
	Habit Habit
}

func UserOrigin() Origin { return Origin{Kind: OriginUser} }

func PrayerOrigin() Origin { return Origin{Kind: OriginPrayer} }

func HealthOrigin(h Habit) Origin { return Origin{Kind: OriginHealth, Habit: h} }

func (o Origin) IsDerived() bool { return o.Kind == OriginPrayer || o.Kind == OriginHealth }

func (o Origin) String() string {
	if o.Kind == OriginHealth && o.Habit != "" {
		return string(o.Kind) + ":" + string(o.Habit)
	}
	return string(o.Kind)
}

func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Origin) UnmarshalText(b []byte) error {
	kind, habit, _ := strings.Cut(string(b), ":")
	switch OriginKind(kind) {
	case "":
		*o = Origin{}
	case OriginUser, OriginPrayer:
		*o = Origin{Kind: OriginKind(kind)}
	case OriginHealth:
		*o = HealthOrigin(Habit(habit))
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrigin, string(b))
	}
	return nil
}

const (
	prayerIDPrefix = "prayer-"
	healthIDPrefix = "health-"

	QuranTaskID = healthIDPrefix + string(HabitQuran)
)

func PrayerTaskID(name string) string { return prayerIDPrefix + strings.ToLower(name) }

func HealthTaskID(h Habit) string { return healthIDPrefix + string(h) }

// OriginFromID infers the origin of tasks saved without one. Derived ids are
// stable and prefixed; everything else was created by the user.
func OriginFromID(id string) Origin {
	switch {
	case strings.HasPrefix(id, prayerIDPrefix):
		return PrayerOrigin()
	case strings.HasPrefix(id, healthIDPrefix):
		return HealthOrigin(Habit(strings.TrimPrefix(id, healthIDPrefix)))
	default:
		return UserOrigin()
	}
}

type Task struct {
	ID         string           `json:"id"`
	Origin     Origin           `json:"origin"`
	Title      string           `json:"title"`
	Category   Category         `json:"category"`
	Time       timerange.Window `json:"time"`
	Status     Status           `json:"status"`
	Date       string           `json:"date"`
	Reminder   int              `json:"reminder,omitempty"`
	Recurrence *Recurrence      `json:"recurrence,omitempty"`
}

func (t *Task) UnmarshalJSON(b []byte) error {
	type plain Task
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Origin.Kind == "" {
		p.Origin = OriginFromID(p.ID)
	}
	*t = Task(p)
	return nil
}

// Key identifies a task within the whole list.
func (t Task) Key() string {
	return t.Date + "/" + t.ID
}

// On reports whether the task belongs to the day keyed by date.
func (t Task) On(date string) bool {
	return t.Date == date
}

// Range binds the task window to its own date.
func (t Task) Range(loc *time.Location) (timerange.Range, bool) {
	day, err := ParseDate(t.Date, loc)
	if err != nil {
		return timerange.Range{}, false
	}
	return t.Time.On(day)
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if _, err := ParseDate(t.Date, time.UTC); err != nil {
		return err
	}
	if t.Reminder < 0 {
		return errors.New("model: reminder minutes must not be negative")
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return nil
}
