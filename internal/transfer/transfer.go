// Package transfer reads and writes the backup document a user exports and
// imports.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sandeepkv93/salahplan/internal/model"
)

var ErrInvalidBackup = errors.New("transfer: invalid backup file")

// requiredKeys must all be present for an import to be accepted.
var requiredKeys = []string{"tasks", "prayerSettings", "healthSettings", "theme"}

// Export writes state as indented JSON.
func Export(w io.Writer, state model.SavedState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

// Import reads a backup. Tasks, prayer settings, health settings and theme
// must be present and tasks must be an array. Notifications are optional and
// dropped.
func Import(r io.Reader) (model.SavedState, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.SavedState{}, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.SavedState{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	for _, key := range requiredKeys {
		v, ok := fields[key]
		if !ok || string(v) == "null" {
			return model.SavedState{}, fmt.Errorf("%w: missing %s", ErrInvalidBackup, key)
		}
	}
	var tasks []json.RawMessage
	if err := json.Unmarshal(fields["tasks"], &tasks); err != nil {
		return model.SavedState{}, fmt.Errorf("%w: tasks must be an array", ErrInvalidBackup)
	}

	state := model.DefaultSavedState()
	if err := json.Unmarshal(raw, &state); err != nil {
		return model.SavedState{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if state.Tasks == nil {
		state.Tasks = []model.Task{}
	}
	state.Notifications = []model.Notification{}
	return state, nil
}
