// Package application contains use-case orchestration services.
package application

import (
	"sort"
	"sync"

	"github.com/ericfisherdev/prwatch/internal/domain/model"
)

// WatchList is the ordered, deduplicated collection of watched pull requests.
// Insertion order is preserved and significant: it is the display and
// persistence order. The list is safe for concurrent use -- fetch cycle
// goroutines write results back while the driving adapter reads snapshots.
type WatchList struct {
	mu      sync.RWMutex
	entries []model.WatchedPR
}

// NewWatchList creates an empty watch list.
func NewWatchList() *WatchList {
	return &WatchList{}
}

// Add appends an entry for the given identity. It returns
// model.ErrDuplicateWatch when the identity is already present; duplicates
// are rejected, never merged. status may be nil when no initial fetch was
// performed.
func (w *WatchList) Add(id model.PRIdentity, status *model.PRStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range w.entries {
		if e.Identity == id {
			return model.ErrDuplicateWatch
		}
	}

	w.entries = append(w.entries, model.NewWatchedPR(id, status))
	return nil
}

// RemoveAt removes the entries at the given positions. Indices are applied
// highest-first so earlier removals do not shift the later ones; duplicates
// and out-of-range indices are ignored.
func (w *WatchList) RemoveAt(indices []int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	prev := -1
	for _, i := range sorted {
		if i == prev {
			continue
		}
		prev = i
		if i < 0 || i >= len(w.entries) {
			continue
		}
		w.entries = append(w.entries[:i], w.entries[i+1:]...)
	}
}

// UpdateStatus replaces the status of the entry with the given identity
// wholesale. A result arriving after the entry was removed is dropped
// silently so a racing fetch cannot resurrect it.
func (w *WatchList) UpdateStatus(id model.PRIdentity, status model.PRStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.entries {
		if w.entries[i].Identity == id {
			st := status
			w.entries[i].Status = &st
			return
		}
	}
}

// Snapshot returns a copy of the entries in insertion order. Status values
// are immutable once assigned, so sharing the pointers is safe.
func (w *WatchList) Snapshot() []model.WatchedPR {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]model.WatchedPR, len(w.entries))
	copy(out, w.entries)
	return out
}

// Identities returns the watched identities in insertion order.
func (w *WatchList) Identities() []model.PRIdentity {
	w.mu.RLock()
	defer w.mu.RUnlock()

	ids := make([]model.PRIdentity, 0, len(w.entries))
	for _, e := range w.entries {
		ids = append(ids, e.Identity)
	}
	return ids
}

// Len returns the number of watched entries.
func (w *WatchList) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entries)
}
