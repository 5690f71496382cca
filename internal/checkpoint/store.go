// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists the pipeline state in a single JSON slot so an
// interrupted run can resume without repeating extraction.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/deal-analyzer/internal/fsutil"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// FileName is the slot's file name inside the state directory.
const FileName = "deal-analyzer-state.json"

const filePerm = 0o600

// Store reads and writes the checkpoint slot. Every Save fully replaces the
// previous state.
type Store struct {
	Path string

	// Log receives warnings about unreadable checkpoints. Nil discards them.
	Log io.Writer

	now func() time.Time
}

// New returns a store whose slot lives in dir.
func New(dir string, log io.Writer) *Store {
	return &Store{Path: filepath.Join(dir, FileName), Log: log, now: time.Now}
}

// Save writes state atomically with owner-only permissions. A zero
// Timestamp is set to the current time.
func (s *Store) Save(state *types.PipelineState) error {
	if state == nil {
		return errors.New("checkpoint: nil state")
	}
	if state.Timestamp.IsZero() {
		state.Timestamp = s.clock()
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.Path, data, filePerm); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Load returns the saved state. A missing or malformed slot yields nil with
// no error; only an unreadable slot is an error. Freshness is the caller's
// decision.
func (s *Store) Load() (*types.PipelineState, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	var state types.PipelineState
	if err := json.Unmarshal(data, &state); err != nil {
		s.warn("checkpoint: ignoring malformed %s: %v\n", s.Path, err)
		return nil, nil
	}
	if state.Timestamp.IsZero() {
		s.warn("checkpoint: ignoring %s without timestamp\n", s.Path)
		return nil, nil
	}
	return &state, nil
}

// LoadFresh returns the saved state when it is reusable at the current time
// within window, or nil otherwise.
func (s *Store) LoadFresh(window time.Duration) (*types.PipelineState, error) {
	state, err := s.Load()
	if err != nil || state == nil {
		return nil, err
	}
	if !state.Reusable(s.clock(), window) {
		return nil, nil
	}
	return state, nil
}

// Clear removes the slot. A missing slot is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Store) warn(format string, args ...any) {
	if s.Log != nil {
		fmt.Fprintf(s.Log, format, args...)
	}
}
