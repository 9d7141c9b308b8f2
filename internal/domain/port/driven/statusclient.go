// Package driven defines the outbound ports of the application core.
package driven

import (
	"context"

	"github.com/ericfisherdev/prwatch/internal/domain/model"
)

// StatusClient is the driven port for the source-control hosting API.
type StatusClient interface {
	// FetchStatus composes a pull request's metadata, head-commit CI state,
	// and review state into one snapshot. Only the metadata call is fatal;
	// CI and review failures degrade their fields to unknown. Errors are
	// *model.FetchError values carrying the failure kind.
	FetchStatus(ctx context.Context, id model.PRIdentity) (model.PRStatus, error)

	// ListRepositories returns repository names for an owner, trying the
	// organization listing first and falling back to the user listing when
	// the owner is not an organization. The call is advisory: any failure
	// yields an empty slice, never an error.
	ListRepositories(ctx context.Context, owner string) []string
}
