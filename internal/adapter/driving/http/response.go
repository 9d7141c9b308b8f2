package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/prwatch/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// AddWatchRequest is the JSON body for adding a pull request.
type AddWatchRequest struct {
	URL string `json:"url"`
}

// RemoveWatchesRequest is the JSON body for removing watch-list entries by position.
type RemoveWatchesRequest struct {
	Indices []int `json:"indices"`
}

// RemoveWatchesResponse reports the watch-list size after a removal.
type RemoveWatchesResponse struct {
	Remaining int `json:"remaining"`
}

// SetCredentialRequest is the JSON body for setting the bearer credential.
// An empty token clears the credential.
type SetCredentialRequest struct {
	Token string `json:"token"`
}

// CredentialResponse acknowledges a credential update.
type CredentialResponse struct {
	HasCredential bool `json:"has_credential"`
}

// StartMonitorRequest is the JSON body for starting the monitor. A zero
// interval falls back to the configured one.
type StartMonitorRequest struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// RefreshResponse acknowledges a manual refresh trigger.
type RefreshResponse struct {
	Triggered bool `json:"triggered"`
}

// MonitorStatusResponse is the JSON representation of the scheduler state.
type MonitorStatusResponse struct {
	Running          bool   `json:"running"`
	IntervalSeconds  int    `json:"interval_seconds"`
	CountdownSeconds int    `json:"countdown_seconds"`
	WatchedCount     int    `json:"watched_count"`
	LastRefreshTime  string `json:"last_refresh_time,omitempty"`
}

// OwnerReposResponse lists repository names for an owner.
type OwnerReposResponse struct {
	Owner        string   `json:"owner"`
	Repositories []string `json:"repositories"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// WatchedPRResponse is the JSON representation of one watch-list entry.
type WatchedPRResponse struct {
	Owner  string            `json:"owner"`
	Repo   string            `json:"repo"`
	Number string            `json:"number"`
	URL    string            `json:"url"`
	Status *PRStatusResponse `json:"status"`
}

// PRStatusResponse is the JSON representation of a status snapshot.
type PRStatusResponse struct {
	Title          string `json:"title"`
	State          string `json:"state"`
	Merged         bool   `json:"merged"`
	Author         string `json:"author"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
	Mergeable      *bool  `json:"mergeable"`
	MergeableState string `json:"mergeable_state,omitempty"`
	Draft          bool   `json:"draft"`
	HTMLURL        string `json:"html_url,omitempty"`
	CIStatus       string `json:"ci_status"`
	ReviewStatus   string `json:"review_status"`
}

// toWatchedPRResponse converts a domain entry to its JSON representation.
func toWatchedPRResponse(pr model.WatchedPR) WatchedPRResponse {
	return WatchedPRResponse{
		Owner:  pr.Identity.Owner,
		Repo:   pr.Identity.Repo,
		Number: pr.Identity.Number,
		URL:    pr.URL,
		Status: toPRStatusResponse(pr.Status),
	}
}

// toPRStatusResponse converts a status snapshot to its JSON representation.
// A nil status (no fetch yet) stays nil.
func toPRStatusResponse(status *model.PRStatus) *PRStatusResponse {
	if status == nil {
		return nil
	}

	return &PRStatusResponse{
		Title:          status.Title,
		State:          string(status.State),
		Merged:         status.Merged,
		Author:         status.Author,
		CreatedAt:      formatTime(status.CreatedAt),
		UpdatedAt:      formatTime(status.UpdatedAt),
		Mergeable:      status.Mergeable,
		MergeableState: status.MergeableState,
		Draft:          status.Draft,
		HTMLURL:        status.HTMLURL,
		CIStatus:       string(status.CIStatus),
		ReviewStatus:   string(status.ReviewStatus),
	}
}

// formatTime renders a timestamp as RFC 3339, or empty for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
