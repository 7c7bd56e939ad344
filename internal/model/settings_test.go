package model

import (
	"errors"
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	p := DefaultPrayerSettings()
	if !p.AutoFetch || p.City != "Minchinabad" || p.Juristic != JuristicHanafi || p.RepeatWeekly {
		t.Fatalf("unexpected prayer defaults: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	h := DefaultHealthSettings()
	for _, habit := range Habits {
		if h.Habit(habit).Enabled {
			t.Fatalf("%s should be disabled by default", habit)
		}
	}
	if h.QuranRecitation.Duration != 30 || !h.RepeatDaily {
		t.Fatalf("unexpected health defaults: %+v", h)
	}
	w, err := h.Sleep.Window()
	if err != nil {
		t.Fatalf("sleep window: %v", err)
	}
	if w.String() != "10:00 PM – 06:00 AM" || w.Minutes() != 480 {
		t.Fatalf("unexpected sleep window %q (%d min)", w.String(), w.Minutes())
	}
}

func TestHabitWindowRejectsBadClock(t *testing.T) {
	_, err := HabitSetting{StartTime: "7pm", EndTime: "20:00"}.Window()
	if !errors.Is(err, ErrInvalidHabitClock) {
		t.Fatalf("expected ErrInvalidHabitClock, got %v", err)
	}
}

func TestPrayerTimesCount(t *testing.T) {
	var p PrayerTimes
	p.Set("Fajr", "05:10 AM")
	p.Set("Isha", "08:00 PM")
	p.Set("Tahajjud", "03:00 AM")
	if p.Count() != 2 || p.Complete() {
		t.Fatalf("unexpected count %d", p.Count())
	}
	if p.Get("Isha") != "08:00 PM" {
		t.Fatalf("unexpected Isha %q", p.Get("Isha"))
	}
}

func TestSavedStateValidate(t *testing.T) {
	s := DefaultSavedState()
	if err := s.Validate(); err != nil {
		t.Fatalf("default state should validate: %v", err)
	}
	s.Theme = "solarized"
	if err := s.Validate(); !errors.Is(err, ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
}
