// Package medreq manages the medication-request lifecycle on the nurse's
// side: a Store holding the latest pending list and a Dispatcher turning
// approve / reject / administer intents into backend calls.
//
// The backend owns every state change. The console never patches a
// request in place; each successful action is followed by a full refresh
// and the list is replaced wholesale.
package medreq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aanand-mishra/school-health/internal/api"
	"github.com/aanand-mishra/school-health/internal/clock"
	"github.com/aanand-mishra/school-health/internal/storage"
	"github.com/aanand-mishra/school-health/internal/types"
	"github.com/samber/lo"
)

// Fetcher loads the pending-request list. *api.Client satisfies it.
type Fetcher interface {
	PendingRequests(ctx context.Context) ([]types.MedicationRequest, error)
}

// Store holds the last list returned by the backend.
type Store struct {
	fetcher   Fetcher
	snapshots storage.Snapshotter
	clock     clock.Clock

	mu        sync.RWMutex
	started   uint64 // Refresh calls begun
	applied   uint64 // newest Refresh whose outcome is held
	list      []types.MedicationRequest
	err       error
	fetchedAt time.Time
}

// NewStore returns an empty Store. snapshots may be nil.
func NewStore(fetcher Fetcher, snapshots storage.Snapshotter, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{fetcher: fetcher, snapshots: snapshots, clock: clk}
}

// Refresh fetches the full list. On success it replaces the held list; on
// failure it keeps the previous one, remembers the error and returns it.
// There is no retry.
//
// Overlapping calls may finish out of order. Only the most recently started
// call that has finished is kept: a response older than the held one is
// dropped, and its error (if any) is still returned to its caller.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.started++
	gen := s.started
	s.mu.Unlock()

	reqs, err := s.fetcher.PendingRequests(ctx)
	if err != nil {
		s.mu.Lock()
		if gen > s.applied {
			s.applied = gen
			s.err = err
		}
		s.mu.Unlock()
		slog.Warn("pending requests refresh failed",
			slog.String("kind", api.KindOf(err).String()),
			slog.String("error", err.Error()))
		return err
	}

	now := s.clock.Now()
	s.mu.Lock()
	if gen < s.applied {
		s.mu.Unlock()
		slog.Debug("dropping stale pending requests response", slog.Uint64("generation", gen))
		return nil
	}
	s.applied = gen
	s.list = reqs
	s.err = nil
	s.fetchedAt = now
	s.mu.Unlock()

	slog.Debug("pending requests refreshed", slog.Int("count", len(reqs)))

	if s.snapshots != nil {
		if err := s.snapshots.SaveSnapshot(ctx, reqs, now); err != nil {
			slog.Warn("failed to save snapshot", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Restore loads the last saved snapshot into an empty store, so the
// console has something to show while the backend is unreachable.
// It is a no-op when the store already holds a list.
func (s *Store) Restore(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	reqs, at, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.list != nil || at.IsZero() {
		return nil
	}
	s.list = reqs
	s.fetchedAt = at
	return nil
}

// Get returns a deep copy of the current list.
func (s *Store) Get() []types.MedicationRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.list, func(r types.MedicationRequest, _ int) types.MedicationRequest {
		return r.Clone()
	})
}

// Pending returns only requests still awaiting approval or rejection.
func (s *Store) Pending() []types.MedicationRequest {
	return lo.Filter(s.Get(), func(r types.MedicationRequest, _ int) bool {
		return r.Status == types.StatusPending
	})
}

// Find returns the request with the given ID from the current list.
func (s *Store) Find(id string) (types.MedicationRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := lo.Find(s.list, func(r types.MedicationRequest) bool {
		return r.ID == id
	})
	return r.Clone(), ok
}

// Err is the error from the last Refresh, nil after a success.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// ErrMessage is Err rendered for the user, "" when there is none.
func (s *Store) ErrMessage() string {
	return api.UserMessage(s.Err())
}

// FetchedAt is when the held list was obtained (zero if never).
func (s *Store) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}
