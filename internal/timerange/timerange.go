// Package timerange parses the 12-hour clock strings tasks are displayed with
// ("09:00 AM", "10:00 PM – 06:00 AM") and binds them to calendar days.
package timerange

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Separator splits the start and end of a displayed range.
const Separator = "–"

var amPmPattern = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)

// durationDay is the reference day for DurationMinutes. It is UTC so DST
// transitions never stretch or shrink a range.
var durationDay = time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)

// Range is a concrete interval. End is never before Start.
type Range struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the half-open intervals [Start, End) intersect.
// Ranges that only touch do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && r.End.After(other.Start)
}

// Minutes is the rounded length of the range.
func (r Range) Minutes() int {
	return int(math.Round(r.End.Sub(r.Start).Minutes()))
}

// ParseInstant binds an "H:MM AM|PM" string to day at hh:mm:00.000.
func ParseInstant(s string, day time.Time) (time.Time, bool) {
	c, ok := ParseClock(s)
	if !ok {
		return time.Time{}, false
	}
	return c.On(day), true
}

// ParseRangeStart parses the start of a range string (or a single instant).
func ParseRangeStart(s string, day time.Time) (time.Time, bool) {
	start, _, _ := strings.Cut(s, Separator)
	return ParseInstant(strings.TrimSpace(start), day)
}

// FormatInstant renders t as a zero-padded 12-hour clock, e.g. "07:05 PM".
func FormatInstant(t time.Time) string {
	return ClockOf(t).String()
}

// ParseRange parses "start – end" (or a single instant, giving a zero-length
// range) on day. An end earlier than the start rolls over to the next day.
func ParseRange(s string, day time.Time) (Range, bool) {
	parts := strings.Split(s, Separator)
	startText := strings.TrimSpace(parts[0])
	endText := startText
	if len(parts) > 1 {
		endText = strings.TrimSpace(parts[1])
	}
	start, ok := ParseInstant(startText, day)
	if !ok {
		return Range{}, false
	}
	end, ok := ParseInstant(endText, day)
	if !ok {
		return Range{}, false
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	return Range{Start: start, End: end}, true
}

// DurationMinutes returns the length of a range string in minutes, or 0 when
// it cannot be parsed.
func DurationMinutes(s string) int {
	r, ok := ParseRange(s, durationDay)
	if !ok {
		return 0
	}
	return r.Minutes()
}

// Clock is a time of day with minute precision, stored on a 24-hour clock.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock reads the first "H:MM AM|PM" occurrence in s.
func ParseClock(s string) (Clock, bool) {
	m := amPmPattern.FindStringSubmatch(s)
	if m == nil {
		return Clock{}, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return Clock{}, false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute > 59 {
		return Clock{}, false
	}
	pm := strings.EqualFold(m[3], "pm")
	switch {
	case pm && hour < 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}
	return Clock{Hour: hour, Minute: minute}, true
}

// ParseClock24 reads a 24-hour "HH:MM" string as stored in health settings.
func ParseClock24(s string) (Clock, bool) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Clock{}, false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, false
	}
	return Clock{Hour: hour, Minute: minute}, true
}

// ClockOf extracts the time of day of t.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// On binds the clock to the calendar day of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

// Add shifts the clock by minutes, wrapping around midnight.
func (c Clock) Add(minutes int) Clock {
	total := ((c.Hour*60+c.Minute+minutes)%1440 + 1440) % 1440
	return Clock{Hour: total / 60, Minute: total % 60}
}

// Minutes is the number of minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	suffix := "AM"
	if c.Hour >= 12 {
		suffix = "PM"
	}
	h := c.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, c.Minute, suffix)
}

// String24 renders the clock as "HH:MM".
func (c Clock) String24() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
