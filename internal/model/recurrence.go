package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidFrequency = errors.New("model: invalid recurrence frequency")

type Frequency string

const (
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// ParseFrequency matches a frequency name case-insensitively.
func ParseFrequency(s string) (Frequency, bool) {
	for _, f := range []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly} {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, true
		}
	}
	return "", false
}

// Recurrence is advisory: it is stored and displayed, but no occurrences are
// materialized from it.
type Recurrence struct {
	Frequency Frequency `json:"frequency"`
}

func (r Recurrence) Validate() error {
	if !r.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency)
	}
	return nil
}

// Next is the day the task would next occur after date.
func (r Recurrence) Next(date time.Time) time.Time {
	switch r.Frequency {
	case FrequencyWeekly:
		return date.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return sameDayNextMonth(date)
	default:
		return date.AddDate(0, 0, 1)
	}
}

// sameDayNextMonth clamps to the last day of a shorter month.
func sameDayNextMonth(date time.Time) time.Time {
	y, m, d := date.Date()
	first := time.Date(y, m, 1, date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location()).AddDate(0, 1, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	fy, fm, _ := first.Date()
	return time.Date(fy, fm, d, date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
}
