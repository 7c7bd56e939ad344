package model

import (
	"errors"
	"fmt"
)

var ErrInvalidTheme = errors.New("model: invalid theme")

type Theme string

const (
	ThemeLight        Theme = "light"
	ThemeDark         Theme = "dark"
	ThemeHighContrast Theme = "high-contrast"
)

func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeHighContrast:
		return true
	default:
		return false
	}
}

// SavedState is everything that survives a restart.
type SavedState struct {
	Tasks          []Task         `json:"tasks"`
	PrayerSettings PrayerSettings `json:"prayerSettings"`
	HealthSettings HealthSettings `json:"healthSettings"`
	Theme          Theme          `json:"theme"`
	Notifications  []Notification `json:"notifications"`
}

func DefaultSavedState() SavedState {
	return SavedState{
		Tasks:          []Task{},
		PrayerSettings: DefaultPrayerSettings(),
		HealthSettings: DefaultHealthSettings(),
		Theme:          ThemeLight,
		Notifications:  []Notification{},
	}
}

func (s SavedState) Validate() error {
	for i, task := range s.Tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
	}
	if err := s.PrayerSettings.Validate(); err != nil {
		return err
	}
	if !s.Theme.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, s.Theme)
	}
	return nil
}
