package model

import (
	"strings"
	"time"
)

// PRState represents the lifecycle state of a pull request.
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	// PRStateError marks a synthetic status recorded when the metadata fetch failed.
	PRStateError PRState = "error"
)

// CIState is the aggregate continuous-integration result for a PR's head commit.
type CIState string

const (
	CISuccess CIState = "success"
	CIPending CIState = "pending"
	CIFailure CIState = "failure"
	CIError   CIState = "error"
	CIUnknown CIState = "unknown"
)

// ReviewState is the aggregate code-review status across all reviewers.
type ReviewState string

const (
	ReviewApproved         ReviewState = "approved"
	ReviewChangesRequested ReviewState = "changes_requested"
	// ReviewPending means the PR is awaiting review, including the zero-reviews
	// case. ReviewUnknown means the review state could not be determined.
	ReviewPending ReviewState = "pending"
	ReviewUnknown ReviewState = "unknown"
)

// PRStatus is an immutable snapshot of one status fetch. A new fetch produces
// a brand-new value; the previous one is replaced wholesale, never mutated.
type PRStatus struct {
	Title          string      `json:"title"`
	State          PRState     `json:"state"`
	Merged         bool        `json:"merged"`
	Author         string      `json:"author"`
	CreatedAt      time.Time   `json:"created_at,omitzero"`
	UpdatedAt      time.Time   `json:"updated_at,omitzero"`
	Mergeable      *bool       `json:"mergeable"` // nil while GitHub has not computed mergeability.
	MergeableState string      `json:"mergeable_state,omitempty"`
	Draft          bool        `json:"draft"`
	HTMLURL        string      `json:"html_url,omitempty"`
	CIStatus       CIState     `json:"ci_status"`
	ReviewStatus   ReviewState `json:"review_status"`
}

// NewErrorStatus builds the synthetic status stored for an entry whose
// metadata fetch failed. The human-readable message lands in the title so the
// presentation layer can show it in place; CI and review stay unknown.
func NewErrorStatus(message string) PRStatus {
	return PRStatus{
		Title:        "Error: " + message,
		State:        PRStateError,
		CIStatus:     CIUnknown,
		ReviewStatus: ReviewUnknown,
	}
}

// Review is one code review as delivered by the API, in arrival order.
type Review struct {
	Author string
	State  string // Raw API state, e.g. "APPROVED" or "CHANGES_REQUESTED".
}

// ReduceReviewStates collapses a chronological review list into an overall
// ReviewState. Each reviewer's latest review supersedes their earlier ones
// (arrival order is authoritative). Any outstanding change request dominates;
// otherwise a single approval suffices. An empty list means the PR is
// awaiting review, which is ReviewPending rather than ReviewUnknown.
func ReduceReviewStates(reviews []Review) ReviewState {
	latest := make(map[string]string, len(reviews))
	for _, r := range reviews {
		if r.Author == "" || r.State == "" {
			continue
		}
		latest[r.Author] = strings.ToUpper(r.State)
	}

	var approved bool
	for _, state := range latest {
		switch state {
		case "CHANGES_REQUESTED":
			return ReviewChangesRequested
		case "APPROVED":
			approved = true
		}
	}

	if approved {
		return ReviewApproved
	}
	return ReviewPending
}
