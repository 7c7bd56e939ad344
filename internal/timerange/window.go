package timerange

import (
	"strings"
	"time"
)

// Window is the structured time of a task: a start clock and, for ranges, an
// end clock. Text that does not parse is kept verbatim so it can be shown and
// round-tripped, but it never yields a Range.
type Window struct {
	Start Clock
	End   Clock
	Span  bool

	raw   string
	valid bool
}

// NewRange builds a start–end window.
func NewRange(start, end Clock) Window {
	return Window{Start: start, End: end, Span: true, valid: true}
}

// NewInstant builds a single-point window.
func NewInstant(at Clock) Window {
	return Window{Start: at, End: at, valid: true}
}

// Raw keeps unparseable text as a window that is shown but never scheduled.
func Raw(s string) Window {
	return Window{raw: s}
}

// ParseWindow reads "hh:mm AM – hh:mm PM" or "hh:mm AM". Anything else is kept
// as raw text.
func ParseWindow(s string) Window {
	startText, endText, span := strings.Cut(s, Separator)
	start, ok := ParseClock(strings.TrimSpace(startText))
	if !ok {
		return Raw(s)
	}
	if !span {
		return NewInstant(start)
	}
	end, ok := ParseClock(strings.TrimSpace(endText))
	if !ok {
		return Raw(s)
	}
	return NewRange(start, end)
}

// Valid reports whether the window has a parseable start and end.
func (w Window) Valid() bool {
	return w.valid
}

func (w Window) String() string {
	if !w.valid {
		return w.raw
	}
	if !w.Span {
		return w.Start.String()
	}
	return w.Start.String() + " " + Separator + " " + w.End.String()
}

// On binds the window to day. An end clock before the start clock belongs to
// the following day.
func (w Window) On(day time.Time) (Range, bool) {
	if !w.valid {
		return Range{}, false
	}
	start := w.Start.On(day)
	end := w.End.On(day)
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	return Range{Start: start, End: end}, true
}

// StartOn is the start instant of the window on day.
func (w Window) StartOn(day time.Time) (time.Time, bool) {
	if !w.valid {
		return time.Time{}, false
	}
	return w.Start.On(day), true
}

// Minutes is the length of the window, or 0 when it is not valid.
func (w Window) Minutes() int {
	r, ok := w.On(durationDay)
	if !ok {
		return 0
	}
	return r.Minutes()
}

func (w Window) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Window) UnmarshalText(b []byte) error {
	*w = ParseWindow(string(b))
	return nil
}
