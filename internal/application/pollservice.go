package application

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/prwatch/internal/domain/model"
)

// PollService owns the refresh timer and the single-flight fetch cycle. Each
// tick fetches every currently watched pull request concurrently and merges
// results into the watch list as they land, so partial progress is visible
// before the cycle completes.
type PollService struct {
	list     *WatchList
	provider *StatusClientProvider

	// onUpdate fires after each merged result, onCycleEnd once per completed
	// cycle. Both receive the current snapshot and may be nil.
	onUpdate   func([]model.WatchedPR)
	onCycleEnd func([]model.WatchedPR)

	inflight  atomic.Bool
	countdown atomic.Int64

	mu          sync.Mutex
	running     bool
	interval    time.Duration
	stopCh      chan struct{}
	lastRefresh time.Time
}

// NewPollService creates a PollService over the given watch list and client
// provider.
func NewPollService(list *WatchList, provider *StatusClientProvider, onUpdate, onCycleEnd func([]model.WatchedPR)) *PollService {
	return &PollService{
		list:       list,
		provider:   provider,
		onUpdate:   onUpdate,
		onCycleEnd: onCycleEnd,
	}
}

// Start runs one immediate fetch cycle and arms the repeat timer at the given
// interval. It returns model.ErrEmptyWatchList when nothing is watched and
// model.ErrAlreadyMonitoring when a previous Start has not been stopped.
func (s *PollService) Start(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return model.ErrAlreadyMonitoring
	}
	if s.list.Len() == 0 {
		return model.ErrEmptyWatchList
	}

	s.running = true
	s.interval = interval
	s.stopCh = make(chan struct{})
	go s.run(interval, s.stopCh)

	slog.Info("monitoring started", "interval", interval, "prs", s.list.Len())
	return nil
}

// Stop cancels the repeat timer. An in-flight cycle is left to drain; its
// late results still merge through the watch list's ignore-if-absent rule.
func (s *PollService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return model.ErrNotMonitoring
	}

	s.running = false
	close(s.stopCh)
	s.countdown.Store(0)

	slog.Info("monitoring stopped")
	return nil
}

// ManualRefresh triggers one extra fetch cycle outside the timer. It is
// rejected when monitoring is not running, and skipped like any other tick
// when a cycle is already in flight.
func (s *PollService) ManualRefresh() error {
	s.mu.Lock()
	running, interval := s.running, s.interval
	s.mu.Unlock()

	if !running {
		return model.ErrNotMonitoring
	}

	s.triggerCycle(interval)
	return nil
}

// Running reports whether the repeat timer is armed.
func (s *PollService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Interval returns the interval set by the most recent Start.
func (s *PollService) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// LastRefresh returns the completion time of the most recent cycle, or the
// zero time when no cycle has completed yet.
func (s *PollService) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

// CountdownSeconds returns the display value for time until the next tick.
// It resets to the interval at the start of every cycle, decrements once per
// second, and floors at zero.
func (s *PollService) CountdownSeconds() int {
	return int(s.countdown.Load())
}

// run owns the tick and countdown timers until the stop channel closes.
func (s *PollService) run(interval time.Duration, stopCh chan struct{}) {
	s.triggerCycle(interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	secondTick := time.NewTicker(time.Second)
	defer secondTick.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.triggerCycle(interval)
		case <-secondTick.C:
			if v := s.countdown.Load(); v > 0 {
				s.countdown.Store(v - 1)
			}
		}
	}
}

// triggerCycle starts one fetch cycle unless a previous cycle's fetches have
// not all completed, in which case the tick is dropped entirely. Dropped, not
// queued: at most one cycle is in flight no matter how slow the network is
// relative to the interval.
func (s *PollService) triggerCycle(interval time.Duration) {
	if !s.inflight.CompareAndSwap(false, true) {
		slog.Warn("previous fetch cycle still in flight, skipping tick")
		return
	}

	s.countdown.Store(int64(interval / time.Second))
	go s.runCycle()
}

// runCycle fetches every watched identity concurrently and merges each result
// independently as it completes. A metadata fetch failure becomes a synthetic
// error status for that entry; it never aborts the cycle or touches other
// entries.
func (s *PollService) runCycle() {
	defer s.inflight.Store(false)

	start := time.Now()
	ids := s.list.Identities()
	client := s.provider.Get()

	// Stopping the service does not cancel requests already issued; each
	// sub-call carries its own timeout, so an abandoned cycle terminates on
	// its own and late results are dropped for removed entries.
	ctx := context.Background()

	var failures atomic.Int64
	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			status, err := client.FetchStatus(ctx, id)
			if err != nil {
				failures.Add(1)
				slog.Error("status fetch failed", "pr", id.String(), "error", err)
				status = model.NewErrorStatus(err.Error())
			}

			s.list.UpdateStatus(id, status)
			if s.onUpdate != nil {
				s.onUpdate(s.list.Snapshot())
			}
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	if s.onCycleEnd != nil {
		s.onCycleEnd(s.list.Snapshot())
	}

	slog.Info("fetch cycle complete",
		"prs", len(ids),
		"errors", failures.Load(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}
