package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sandeepkv93/salahplan/internal/timerange"
)

var (
	ErrInvalidJuristic   = errors.New("model: invalid juristic method")
	ErrInvalidLatitude   = errors.New("model: invalid high latitude method")
	ErrInvalidHabitClock = errors.New("model: invalid habit time")
)

type Juristic string

const (
	JuristicStandard Juristic = "Standard"
	JuristicHanafi   Juristic = "Hanafi"
)

func (j Juristic) IsValid() bool {
	return j == JuristicStandard || j == JuristicHanafi
}

type HighLatitudeMethod string

const (
	LatitudeAngleBased       HighLatitudeMethod = "AngleBased"
	LatitudeMiddleOfTheNight HighLatitudeMethod = "MiddleOfTheNight"
	LatitudeOneSeventh       HighLatitudeMethod = "OneSeventh"
)

func (h HighLatitudeMethod) IsValid() bool {
	switch h {
	case LatitudeAngleBased, LatitudeMiddleOfTheNight, LatitudeOneSeventh:
		return true
	default:
		return false
	}
}

// PrayerNames is the fixed order prayers are shown and generated in.
var PrayerNames = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// PrayerTimes maps each prayer to its display time, e.g. "05:10 AM". Empty
// fields are missing.
type PrayerTimes struct {
	Fajr    string `json:"Fajr,omitempty" yaml:"Fajr,omitempty" toml:"Fajr,omitempty"`
	Dhuhr   string `json:"Dhuhr,omitempty" yaml:"Dhuhr,omitempty" toml:"Dhuhr,omitempty"`
	Asr     string `json:"Asr,omitempty" yaml:"Asr,omitempty" toml:"Asr,omitempty"`
	Maghrib string `json:"Maghrib,omitempty" yaml:"Maghrib,omitempty" toml:"Maghrib,omitempty"`
	Isha    string `json:"Isha,omitempty" yaml:"Isha,omitempty" toml:"Isha,omitempty"`
}

func (p PrayerTimes) Get(name string) string {
	switch name {
	case "Fajr":
		return p.Fajr
	case "Dhuhr":
		return p.Dhuhr
	case "Asr":
		return p.Asr
	case "Maghrib":
		return p.Maghrib
	case "Isha":
		return p.Isha
	default:
		return ""
	}
}

func (p *PrayerTimes) Set(name, value string) {
	switch name {
	case "Fajr":
		p.Fajr = value
	case "Dhuhr":
		p.Dhuhr = value
	case "Asr":
		p.Asr = value
	case "Maghrib":
		p.Maghrib = value
	case "Isha":
		p.Isha = value
	}
}

// Count is the number of prayers with a time set.
func (p PrayerTimes) Count() int {
	n := 0
	for _, name := range PrayerNames {
		if strings.TrimSpace(p.Get(name)) != "" {
			n++
		}
	}
	return n
}

func (p PrayerTimes) Complete() bool {
	return p.Count() == len(PrayerNames)
}

type PrayerSettings struct {
	AutoFetch          bool                   `json:"autoFetch"`
	City               string                 `json:"city"`
	Country            string                 `json:"country"`
	Juristic           Juristic               `json:"juristic"`
	HighLatitudeMethod HighLatitudeMethod     `json:"highLatitudeMethod"`
	Notifications      bool                   `json:"notifications"`
	ManualTimes        map[string]PrayerTimes `json:"manualTimes,omitempty"`
	RepeatWeekly       bool                   `json:"repeatWeekly"`
}

func DefaultPrayerSettings() PrayerSettings {
	return PrayerSettings{
		AutoFetch:          true,
		City:               "Minchinabad",
		Country:            "Pakistan",
		Juristic:           JuristicHanafi,
		HighLatitudeMethod: LatitudeAngleBased,
		Notifications:      true,
		ManualTimes:        map[string]PrayerTimes{},
	}
}

func (p PrayerSettings) Validate() error {
	if !p.Juristic.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidJuristic, p.Juristic)
	}
	if !p.HighLatitudeMethod.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidLatitude, p.HighLatitudeMethod)
	}
	return nil
}

// HabitSetting is a daily habit window in 24-hour "HH:MM" clock strings.
type HabitSetting struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Window converts the 24-hour clocks into a task window.
func (h HabitSetting) Window() (timerange.Window, error) {
	start, ok := timerange.ParseClock24(h.StartTime)
	if !ok {
		return timerange.Window{}, fmt.Errorf("%w: %q", ErrInvalidHabitClock, h.StartTime)
	}
	end, ok := timerange.ParseClock24(h.EndTime)
	if !ok {
		return timerange.Window{}, fmt.Errorf("%w: %q", ErrInvalidHabitClock, h.EndTime)
	}
	return timerange.NewRange(start, end), nil
}

type QuranSetting struct {
	Enabled bool `json:"enabled"`
	// Duration is the reading length in minutes, ending at Fajr.
	Duration          int      `json:"duration"`
	CompletionHistory []string `json:"completionHistory"`
}

// HasCompleted reports whether date is in the completion history.
func (q QuranSetting) HasCompleted(date string) bool {
	return slices.Contains(q.CompletionHistory, date)
}

type HealthSettings struct {
	Gym             HabitSetting `json:"gym"`
	Sleep           HabitSetting `json:"sleep"`
	Lunch           HabitSetting `json:"lunch"`
	Dinner          HabitSetting `json:"dinner"`
	QuranRecitation QuranSetting `json:"quranRecitation"`
	RepeatDaily     bool         `json:"repeatDaily"`
}

// Habits lists the four windowed habits in generation order.
var Habits = []Habit{HabitGym, HabitSleep, HabitLunch, HabitDinner}

// HabitTitles are the task titles of generated habit tasks.
var HabitTitles = map[Habit]string{
	HabitGym:    "Gym Session",
	HabitSleep:  "Sleep",
	HabitLunch:  "Lunch Break",
	HabitDinner: "Dinner",
}

func (h HealthSettings) Habit(habit Habit) HabitSetting {
	switch habit {
	case HabitGym:
		return h.Gym
	case HabitSleep:
		return h.Sleep
	case HabitLunch:
		return h.Lunch
	case HabitDinner:
		return h.Dinner
	default:
		return HabitSetting{}
	}
}

func (h *HealthSettings) SetHabit(habit Habit, s HabitSetting) {
	switch habit {
	case HabitGym:
		h.Gym = s
	case HabitSleep:
		h.Sleep = s
	case HabitLunch:
		h.Lunch = s
	case HabitDinner:
		h.Dinner = s
	}
}

func DefaultHealthSettings() HealthSettings {
	return HealthSettings{
		Gym:             HabitSetting{StartTime: "19:00", EndTime: "20:00"},
		Sleep:           HabitSetting{StartTime: "22:00", EndTime: "06:00"},
		Lunch:           HabitSetting{StartTime: "13:00", EndTime: "13:30"},
		Dinner:          HabitSetting{StartTime: "20:00", EndTime: "20:30"},
		QuranRecitation: QuranSetting{Duration: 30, CompletionHistory: []string{}},
		RepeatDaily:     true,
	}
}
