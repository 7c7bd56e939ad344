package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sandeepkv93/salahplan/internal/model"
)

// FileStore keeps the snapshot as one indented JSON document, replaced
// atomically on every save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(context.Context) (model.SavedState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := model.DefaultSavedState()
	trimmed := strings.TrimSpace(s.path)
	if trimmed == "" {
		return state, false, nil
	}
	raw, err := os.ReadFile(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return state, false, nil
		}
		return model.SavedState{}, false, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return state, false, nil
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return model.SavedState{}, false, err
	}
	return state, true, nil
}

func (s *FileStore) Save(_ context.Context, state model.SavedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.path) == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Close() error { return nil }

// MemoryStore holds the snapshot in process, for tests and throwaway sessions.
type MemoryStore struct {
	mu    sync.Mutex
	state *model.SavedState
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (model.SavedState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return model.DefaultSavedState(), false, nil
	}
	return cloneState(*s.state)
}

func (s *MemoryStore) Save(_ context.Context, state model.SavedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied, _, err := cloneState(state)
	if err != nil {
		return err
	}
	s.state = &copied
	s.saves++
	return nil
}

// Saves counts successful saves.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Close() error { return nil }

func cloneState(state model.SavedState) (model.SavedState, bool, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return model.SavedState{}, false, err
	}
	var out model.SavedState
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.SavedState{}, false, err
	}
	return out, true, nil
}
