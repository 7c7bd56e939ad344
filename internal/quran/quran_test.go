package quran

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sandeepkv93/salahplan/internal/model"
)

func TestToggleSetSemantics(t *testing.T) {
	history := []string{"2026-03-08"}

	history = Toggle(history, "2026-03-10", model.StatusDone)
	history = Toggle(history, "2026-03-10", model.StatusDone)
	assert.Equal(t, []string{"2026-03-08", "2026-03-10"}, history)

	history = Toggle(history, "2026-03-10", model.StatusPending)
	assert.Equal(t, []string{"2026-03-08"}, history)

	history = Toggle(history, "2026-03-10", model.StatusDone)
	assert.Equal(t, 2, CompletedDays(history))
}

func TestToggleDoesNotAliasInput(t *testing.T) {
	history := []string{"2026-03-10", "2026-03-09"}
	_ = Toggle(history, "2026-03-10", model.StatusPending)
	assert.Equal(t, []string{"2026-03-10", "2026-03-09"}, history)
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.0, Ratio(nil))
	assert.InDelta(t, 0.5, Ratio(make30()), 1e-9)
	assert.Equal(t, 1, CompletedDays([]string{"2026-03-10", "2026-03-10"}))
}

func make30() []string {
	out := make([]string, 0, 30)
	for i := 1; i <= 30; i++ {
		out = append(out, "2026-04-"+twoDigits(i))
	}
	return out
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
