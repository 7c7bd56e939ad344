// Package conflict rejects tasks whose time overlaps another task on the same
// day.
package conflict

import (
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

var ErrInvalidTime = errors.New("conflict: invalid time format")

// Error names the task a candidate collides with.
type Error struct {
	Task model.Task
}

func (e *Error) Error() string {
	return fmt.Sprintf("Time conflict detected with task: %q (%s)", e.Task.Title, e.Task.Time.String())
}

// HasConflict reports whether candidate overlaps any of others. Touching
// endpoints are allowed.
func HasConflict(candidate timerange.Range, others []timerange.Range) bool {
	for _, o := range others {
		if candidate.Overlaps(o) {
			return true
		}
	}
	return false
}

// Check validates the candidate time and compares it with every other task on
// its date. The candidate itself, matched by id, is skipped. Tasks whose time
// does not parse never conflict.
func Check(candidate model.Task, existing []model.Task, loc *time.Location) error {
	r, ok := candidate.Range(loc)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidTime, candidate.Time.String())
	}
	for _, other := range existing {
		if other.Date != candidate.Date || other.ID == candidate.ID {
			continue
		}
		or, ok := other.Range(loc)
		if !ok {
			continue
		}
		if HasConflict(r, []timerange.Range{or}) {
			return &Error{Task: other}
		}
	}
	return nil
}
