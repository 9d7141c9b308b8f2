package driven

import (
	"context"

	"github.com/ericfisherdev/prwatch/internal/domain/model"
)

// StateStore is the driven port for durable snapshots of the monitor state.
// The storage format is opaque to the core.
type StateStore interface {
	// Load returns the last saved state, or nil when none has been saved yet.
	Load(ctx context.Context) (*model.PersistedState, error)

	// Save atomically replaces the stored state with the given snapshot.
	Save(ctx context.Context, state model.PersistedState) error
}
