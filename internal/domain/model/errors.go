package model

import (
	"errors"
	"fmt"
)

// Validation errors surfaced synchronously to the caller that triggered them.
// They are never retried automatically.
var (
	ErrDuplicateWatch    = errors.New("pull request is already in the watch list")
	ErrEmptyWatchList    = errors.New("watch list is empty")
	ErrAlreadyMonitoring = errors.New("monitoring is already running")
	ErrNotMonitoring     = errors.New("monitoring is not running")
)

// FetchErrorKind classifies failures of the PR metadata fetch. The kinds must
// stay distinguishable because they drive user-facing messages.
type FetchErrorKind string

const (
	FetchErrorNotFound         FetchErrorKind = "not_found"
	FetchErrorRateLimited      FetchErrorKind = "rate_limited"
	FetchErrorTimeout          FetchErrorKind = "timeout"
	FetchErrorNetwork          FetchErrorKind = "network"
	FetchErrorUnexpectedStatus FetchErrorKind = "unexpected_status"
)

// FetchError is a classified failure of a status fetch. StatusCode is set for
// FetchErrorUnexpectedStatus and zero otherwise.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

// Error returns the message shown to the user for this failure.
func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchErrorNotFound:
		return "pull request not found or repository inaccessible"
	case FetchErrorRateLimited:
		return "API rate limit reached, try again later"
	case FetchErrorTimeout:
		return "request timed out, check network connectivity"
	case FetchErrorNetwork:
		return "network connection failed"
	default:
		return fmt.Sprintf("unexpected API response status %d", e.StatusCode)
	}
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *FetchError) Unwrap() error { return e.Err }

// FetchErrorKindOf returns the kind of err if it is (or wraps) a FetchError,
// and ok=false otherwise.
func FetchErrorKindOf(err error) (FetchErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}
