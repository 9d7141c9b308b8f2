// Package jsonstate persists the monitor state as a single JSON document on disk.
package jsonstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/prwatch/internal/domain/model"
	"github.com/ericfisherdev/prwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.StateStore = (*Store)(nil)

// Store implements the StateStore port with whole-file JSON snapshots.
// Every save overwrites the file atomically via a rename, so a crash mid-write
// leaves the previous snapshot intact.
type Store struct {
	path string
}

// NewStore creates a Store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads and decodes the state file. A missing file is a fresh install,
// reported as (nil, nil) rather than an error. Legacy watch-list entry shapes
// are tolerated by the PersistedState decoder.
func (s *Store) Load(ctx context.Context) (*model.PersistedState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", s.path, err)
	}

	var state model.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding state file %s: %w", s.path, err)
	}

	return &state, nil
}

// Save encodes the snapshot as indented JSON and replaces the file atomically.
func (s *Store) Save(ctx context.Context, state model.PersistedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing state file %s: %w", s.path, err)
	}

	return nil
}
