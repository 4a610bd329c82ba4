package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/rulemaker/pkg/cache"
	"github.com/matzehuels/rulemaker/pkg/geometry"
)

// State is the part of a session that is not stored in the rule file:
// the manual positions and the selection.
type State struct {
	Path      string                    `json:"path"`
	RuleID    string                    `json:"ruleId"`
	Overrides map[string]geometry.Point `json:"overrides,omitempty"`
	Selected  string                    `json:"selected,omitempty"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// StateStore keeps one JSON file per rule file and rule id.
type StateStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewStateStore creates the store. If baseDir is empty it defaults to
// <user config dir>/rulemaker/state.
func NewStateStore(baseDir string) (*StateStore, error) {
	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		baseDir = filepath.Join(dir, "rulemaker", "state")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &StateStore{baseDir: baseDir}, nil
}

// StateKey identifies the state of ruleID inside the file at path.
func StateKey(path, ruleID string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return cache.Hash([]byte(path + "\x00" + ruleID))[:24]
}

func (s *StateStore) statePath(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

// Get returns the stored state, or nil when there is none.
func (s *StateStore) Get(ctx context.Context, key string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.statePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return &st, nil
}

// Set stores st under key.
func (s *StateStore) Set(ctx context.Context, key string, st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(s.statePath(key), data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Delete removes the state under key. A missing entry is not an error.
func (s *StateStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.statePath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

// Cleanup removes entries not updated within maxAge and entries whose rule
// file no longer exists.
func (s *StateStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("read state dir: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var st State
		if err := json.Unmarshal(data, &st); err != nil {
			continue
		}
		_, statErr := os.Stat(st.Path)
		if st.UpdatedAt.Before(cutoff) || os.IsNotExist(statErr) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Path returns the base directory.
func (s *StateStore) Path() string { return s.baseDir }

// SaveState stores the manual positions and selection of the open rule.
// Sessions without a file path have nothing to key on and are skipped.
func (s *Session) SaveState(ctx context.Context, store *StateStore) error {
	if s.rule == nil || s.path == "" {
		return nil
	}
	st := &State{
		Path:      s.path,
		RuleID:    s.rule.ID,
		Overrides: s.Overrides(),
		Selected:  s.selected,
		UpdatedAt: time.Now().UTC(),
	}
	return store.Set(ctx, StateKey(s.path, s.rule.ID), st)
}

// RestoreState reapplies stored positions and selection to the open rule.
// Entries for steps that no longer exist are ignored. It reports whether
// anything was restored.
func (s *Session) RestoreState(ctx context.Context, store *StateStore) (bool, error) {
	if s.rule == nil || s.path == "" {
		return false, nil
	}
	st, err := store.Get(ctx, StateKey(s.path, s.rule.ID))
	if err != nil || st == nil {
		return false, err
	}
	restored := false
	for id, p := range st.Overrides {
		if s.rule.HasStep(id) {
			s.overrides[id] = p
			restored = true
		}
	}
	if st.Selected != "" && s.rule.HasStep(st.Selected) {
		s.selected = st.Selected
		restored = true
	}
	if restored {
		s.invalidate()
	}
	return restored, nil
}
