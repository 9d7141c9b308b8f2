package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/ericfisherdev/prwatch/internal/domain/model"
	"github.com/ericfisherdev/prwatch/internal/domain/port/driven"
)

// Interval bounds for the repeat timer, in seconds.
const (
	MinIntervalSeconds = 10
	MaxIntervalSeconds = 300
)

// clampInterval forces an interval into the valid range. A hand-edited state
// file may carry an out-of-range value; restoring it verbatim would leave the
// service with a default interval that Start rejects.
func clampInterval(seconds int) int {
	if seconds < MinIntervalSeconds {
		return MinIntervalSeconds
	}
	if seconds > MaxIntervalSeconds {
		return MaxIntervalSeconds
	}
	return seconds
}

// ClientFactory builds a status client for the given credential. An empty
// token yields an unauthenticated client.
type ClientFactory func(token string) driven.StatusClient

// WatchService is the use-case facade tying the watch list, the poll service,
// the client provider, and the durable state store together. Every mutating
// action persists a fresh snapshot best-effort: persistence failures are
// logged and never block the in-memory operation that triggered the save.
type WatchService struct {
	list      *WatchList
	provider  *StatusClientProvider
	store     driven.StateStore
	poll      *PollService
	newClient ClientFactory
	observer  func([]model.WatchedPR)

	mu              sync.Mutex
	credential      string
	intervalSeconds int
	ownerHistory    []string
	lastRefreshTime string
}

// NewWatchService wires a WatchService from its collaborators. observer is
// invoked with the updated snapshot whenever fetch results merge into the
// watch list; it may be nil.
func NewWatchService(store driven.StateStore, newClient ClientFactory, observer func([]model.WatchedPR)) *WatchService {
	svc := &WatchService{
		list:            NewWatchList(),
		provider:        NewStatusClientProvider(newClient("")),
		store:           store,
		newClient:       newClient,
		observer:        observer,
		intervalSeconds: 30,
	}
	svc.poll = NewPollService(svc.list, svc.provider, svc.notifyObserver, svc.cycleEnded)
	return svc
}

// Restore loads the persisted snapshot, if any, and rebuilds the in-memory
// state from it. Watch entries the decoder could not recognize were already
// dropped during load; duplicate identities are skipped here.
func (s *WatchService) Restore(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}

	s.mu.Lock()
	s.credential = state.Credential
	if state.IntervalSeconds > 0 {
		s.intervalSeconds = clampInterval(state.IntervalSeconds)
	}
	s.ownerHistory = lo.Uniq(state.OwnerHistory)
	s.lastRefreshTime = state.LastRefreshTime
	credential := s.credential
	s.mu.Unlock()

	if credential != "" {
		s.provider.Replace(s.newClient(credential))
	}

	for _, entry := range state.WatchList {
		if err := s.list.Add(entry.Identity(), entry.CachedStatus); err != nil {
			slog.Warn("skipping duplicate persisted watch entry", "url", entry.URL)
		}
	}

	slog.Info("state restored",
		"prs", s.list.Len(),
		"interval_seconds", state.IntervalSeconds,
		"has_credential", credential != "",
	)
	return nil
}

// AddPR parses the URL, adds the identity to the watch list, and persists the
// new snapshot. The entry starts without a status; the next fetch cycle fills
// it in.
func (s *WatchService) AddPR(ctx context.Context, rawURL string) (model.WatchedPR, error) {
	id, err := model.ParsePRURL(rawURL)
	if err != nil {
		return model.WatchedPR{}, err
	}

	if err := s.list.Add(id, nil); err != nil {
		return model.WatchedPR{}, err
	}

	s.persist(ctx)
	slog.Info("pull request added", "pr", id.String())
	return model.NewWatchedPR(id, nil), nil
}

// RemovePRs removes the entries at the given watch-list positions and
// persists the new snapshot.
func (s *WatchService) RemovePRs(ctx context.Context, indices []int) {
	s.list.RemoveAt(indices)
	s.persist(ctx)
	slog.Info("pull requests removed", "remaining", s.list.Len())
}

// SetCredential swaps the API credential and persists it. Requests already in
// flight keep the client they started with; the next request picks up the new
// credential. An empty token clears the credential.
func (s *WatchService) SetCredential(ctx context.Context, token string) {
	s.mu.Lock()
	s.credential = token
	s.mu.Unlock()

	s.provider.Replace(s.newClient(token))
	s.persist(ctx)
	slog.Info("credential updated", "cleared", token == "")
}

// HasCredential reports whether a credential is currently set.
func (s *WatchService) HasCredential() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential != ""
}

// StartMonitoring validates the interval, starts the poll service, and
// persists the chosen interval.
func (s *WatchService) StartMonitoring(ctx context.Context, intervalSeconds int) error {
	if intervalSeconds < MinIntervalSeconds || intervalSeconds > MaxIntervalSeconds {
		return fmt.Errorf("refresh interval must be between %d and %d seconds", MinIntervalSeconds, MaxIntervalSeconds)
	}

	if err := s.poll.Start(time.Duration(intervalSeconds) * time.Second); err != nil {
		return err
	}

	s.mu.Lock()
	s.intervalSeconds = intervalSeconds
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// StopMonitoring stops the poll service and persists the snapshot.
func (s *WatchService) StopMonitoring(ctx context.Context) error {
	if err := s.poll.Stop(); err != nil {
		return err
	}

	s.persist(ctx)
	return nil
}

// ManualRefresh triggers one extra fetch cycle outside the timer.
func (s *WatchService) ManualRefresh() error {
	return s.poll.ManualRefresh()
}

// ListRepositories returns repository names for the owner and records the
// owner in the deduplicated lookup history.
func (s *WatchService) ListRepositories(ctx context.Context, owner string) []string {
	names := s.provider.Get().ListRepositories(ctx, owner)

	s.mu.Lock()
	s.ownerHistory = lo.Uniq(append(s.ownerHistory, owner))
	s.mu.Unlock()

	s.persist(ctx)
	return names
}

// OwnerHistory returns the owners previously queried for repositories.
func (s *WatchService) OwnerHistory() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ownerHistory...)
}

// Snapshot returns the current watch list in insertion order.
func (s *WatchService) Snapshot() []model.WatchedPR {
	return s.list.Snapshot()
}

// Running reports whether monitoring is active.
func (s *WatchService) Running() bool {
	return s.poll.Running()
}

// IntervalSeconds returns the configured refresh interval.
func (s *WatchService) IntervalSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intervalSeconds
}

// CountdownSeconds returns the display value for time until the next tick.
func (s *WatchService) CountdownSeconds() int {
	return s.poll.CountdownSeconds()
}

// LastRefreshTime returns the RFC 3339 completion time of the most recent
// fetch cycle, or an empty string when none has completed.
func (s *WatchService) LastRefreshTime() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefreshTime
}

// cycleEnded records the refresh timestamp and persists the fetched statuses
// once per completed cycle.
func (s *WatchService) cycleEnded(snapshot []model.WatchedPR) {
	s.mu.Lock()
	s.lastRefreshTime = time.Now().UTC().Format(time.RFC3339)
	s.mu.Unlock()

	s.persist(context.Background())
	s.notifyObserver(snapshot)
}

// notifyObserver forwards the snapshot to the registered observer, if any.
func (s *WatchService) notifyObserver(snapshot []model.WatchedPR) {
	if s.observer != nil {
		s.observer(snapshot)
	}
}

// persist writes the current snapshot. Failures are logged and swallowed:
// saving is fire-and-forget relative to the action that triggered it.
func (s *WatchService) persist(ctx context.Context) {
	if err := s.store.Save(ctx, s.persistedState()); err != nil {
		slog.Error("state save failed", "error", err)
	}
}

// persistedState assembles the durable snapshot from current state.
func (s *WatchService) persistedState() model.PersistedState {
	entries := lo.Map(s.list.Snapshot(), func(pr model.WatchedPR, _ int) model.WatchEntry {
		return model.NewWatchEntry(pr)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	return model.PersistedState{
		Credential:      s.credential,
		WatchList:       entries,
		IntervalSeconds: s.intervalSeconds,
		OwnerHistory:    append([]string(nil), s.ownerHistory...),
		LastRefreshTime: s.lastRefreshTime,
	}
}
