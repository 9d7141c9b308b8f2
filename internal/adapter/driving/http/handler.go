// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/prwatch/internal/application"
	"github.com/ericfisherdev/prwatch/internal/domain/model"
)

// Handler exposes the watch service over HTTP.
type Handler struct {
	svc    *application.WatchService
	logger *slog.Logger
}

// NewHandler creates a Handler around the given watch service.
func NewHandler(svc *application.WatchService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/watchlist", h.ListWatched)
	mux.HandleFunc("POST /api/v1/watchlist", h.AddWatch)
	mux.HandleFunc("DELETE /api/v1/watchlist", h.RemoveWatches)
	mux.HandleFunc("PUT /api/v1/credential", h.SetCredential)
	mux.HandleFunc("POST /api/v1/monitor/start", h.StartMonitor)
	mux.HandleFunc("POST /api/v1/monitor/stop", h.StopMonitor)
	mux.HandleFunc("POST /api/v1/monitor/refresh", h.RefreshMonitor)
	mux.HandleFunc("GET /api/v1/monitor", h.MonitorStatus)
	mux.HandleFunc("GET /api/v1/owners/{owner}/repos", h.ListOwnerRepos)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ListWatched returns the watch list in insertion order.
func (h *Handler) ListWatched(w http.ResponseWriter, r *http.Request) {
	snapshot := h.svc.Snapshot()

	resp := make([]WatchedPRResponse, 0, len(snapshot))
	for _, pr := range snapshot {
		resp = append(resp, toWatchedPRResponse(pr))
	}

	writeJSON(w, http.StatusOK, resp)
}

// AddWatch adds a pull request to the watch list by URL.
func (h *Handler) AddWatch(w http.ResponseWriter, r *http.Request) {
	var req AddWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pr, err := h.svc.AddPR(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateWatch) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toWatchedPRResponse(pr))
}

// RemoveWatches removes the watch-list entries at the given positions.
func (h *Handler) RemoveWatches(w http.ResponseWriter, r *http.Request) {
	var req RemoveWatchesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Indices) == 0 {
		writeError(w, http.StatusBadRequest, "no indices given")
		return
	}

	h.svc.RemovePRs(r.Context(), req.Indices)
	writeJSON(w, http.StatusOK, RemoveWatchesResponse{Remaining: len(h.svc.Snapshot())})
}

// SetCredential sets or clears the bearer credential.
func (h *Handler) SetCredential(w http.ResponseWriter, r *http.Request) {
	var req SetCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.svc.SetCredential(r.Context(), req.Token)
	writeJSON(w, http.StatusOK, CredentialResponse{HasCredential: h.svc.HasCredential()})
}

// StartMonitor starts periodic polling at the requested interval.
func (h *Handler) StartMonitor(w http.ResponseWriter, r *http.Request) {
	var req StartMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IntervalSeconds == 0 {
		req.IntervalSeconds = h.svc.IntervalSeconds()
	}

	if err := h.svc.StartMonitoring(r.Context(), req.IntervalSeconds); err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyWatchList), errors.Is(err, model.ErrAlreadyMonitoring):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.writeMonitorStatus(w)
}

// StopMonitor stops periodic polling.
func (h *Handler) StopMonitor(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.StopMonitoring(r.Context()); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	h.writeMonitorStatus(w)
}

// RefreshMonitor triggers one fetch cycle outside the timer.
func (h *Handler) RefreshMonitor(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ManualRefresh(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, RefreshResponse{Triggered: true})
}

// MonitorStatus reports the scheduler state for display.
func (h *Handler) MonitorStatus(w http.ResponseWriter, r *http.Request) {
	h.writeMonitorStatus(w)
}

// ListOwnerRepos returns repository names for an owner. The listing is
// best-effort; an unknown owner simply yields an empty list.
func (h *Handler) ListOwnerRepos(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}

	names := h.svc.ListRepositories(r.Context(), owner)
	writeJSON(w, http.StatusOK, OwnerReposResponse{Owner: owner, Repositories: names})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeMonitorStatus writes the current scheduler state.
func (h *Handler) writeMonitorStatus(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, MonitorStatusResponse{
		Running:          h.svc.Running(),
		IntervalSeconds:  h.svc.IntervalSeconds(),
		CountdownSeconds: h.svc.CountdownSeconds(),
		WatchedCount:     len(h.svc.Snapshot()),
		LastRefreshTime:  h.svc.LastRefreshTime(),
	})
}
