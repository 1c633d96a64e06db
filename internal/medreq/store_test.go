package medreq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aanand-mishra/school-health/internal/api"
	"github.com/aanand-mishra/school-health/internal/clock"
	"github.com/aanand-mishra/school-health/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	calls int
	reqs  []types.MedicationRequest
	err   error
}

func (f *fakeFetcher) PendingRequests(context.Context) ([]types.MedicationRequest, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.MedicationRequest, len(f.reqs))
	for i, r := range f.reqs {
		out[i] = r.Clone()
	}
	return out, nil
}

// gatedFetcher answers call n with responses[n] (the last one repeats) and,
// when gates[n] is set, blocks until that channel is closed.
type gatedFetcher struct {
	mu        sync.Mutex
	calls     int
	responses [][]types.MedicationRequest
	gates     map[int]chan struct{}
	entered   chan int
}

func newGatedFetcher(responses ...[]types.MedicationRequest) *gatedFetcher {
	return &gatedFetcher{
		responses: responses,
		gates:     make(map[int]chan struct{}),
		entered:   make(chan int, 16),
	}
}

// gate makes call n block and returns the channel that releases it.
func (f *gatedFetcher) gate(n int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[n] = ch
	return ch
}

func (f *gatedFetcher) PendingRequests(context.Context) ([]types.MedicationRequest, error) {
	f.mu.Lock()
	n := f.calls
	f.calls++
	resp := f.responses[min(n, len(f.responses)-1)]
	gate := f.gates[n]
	f.mu.Unlock()

	f.entered <- n
	if gate != nil {
		<-gate
	}
	return lo.Map(resp, func(r types.MedicationRequest, _ int) types.MedicationRequest {
		return r.Clone()
	}), nil
}

type memSnapshots struct {
	reqs []types.MedicationRequest
	at   time.Time
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, reqs []types.MedicationRequest, at time.Time) error {
	m.reqs, m.at = reqs, at
	return nil
}

func (m *memSnapshots) LoadSnapshot(context.Context) ([]types.MedicationRequest, time.Time, error) {
	return m.reqs, m.at, nil
}

func TestStoreRefreshReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{reqs: []types.MedicationRequest{
		{ID: "R1", Status: types.StatusPending},
		{ID: "R2", Status: types.StatusApproved},
	}}
	s := NewStore(f, nil, clock.NewManaged(now))

	require.NoError(t, s.Refresh(ctx))
	assert.Len(t, s.Get(), 2)
	assert.Len(t, s.Pending(), 1)
	assert.Equal(t, now, s.FetchedAt())

	f.reqs = []types.MedicationRequest{{ID: "R3", Status: types.StatusPending}}
	require.NoError(t, s.Refresh(ctx))
	got := s.Get()
	require.Len(t, got, 1)
	assert.Equal(t, "R3", got[0].ID)

	_, ok := s.Find("R1")
	assert.False(t, ok)
}

func TestStoreKeepsLastGoodListOnFailure(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{reqs: []types.MedicationRequest{{ID: "R1", Status: types.StatusPending}}}
	s := NewStore(f, nil, nil)
	require.NoError(t, s.Refresh(ctx))

	f.err = &api.Error{Kind: api.KindNetwork, Err: errors.New("connection refused")}
	err := s.Refresh(ctx)
	require.Error(t, err)
	assert.Equal(t, api.KindNetwork, api.KindOf(s.Err()))
	assert.Equal(t, "could not reach the server: connection refused", s.ErrMessage())
	assert.Len(t, s.Get(), 1)
	assert.Equal(t, 2, f.calls, "no automatic retry")

	f.err = nil
	require.NoError(t, s.Refresh(ctx))
	assert.NoError(t, s.Err())
	assert.Empty(t, s.ErrMessage())
}

func TestStoreGetIsACopy(t *testing.T) {
	f := &fakeFetcher{reqs: []types.MedicationRequest{{
		ID: "R1", Status: types.StatusApproved,
		AdministrationRecords: []types.AdministrationRecord{{Notes: "ok"}},
	}}}
	s := NewStore(f, nil, nil)
	require.NoError(t, s.Refresh(context.Background()))

	got := s.Get()
	got[0].Status = types.StatusRejected
	got[0].AdministrationRecords[0].Notes = "tampered"

	again, ok := s.Find("R1")
	require.True(t, ok)
	assert.Equal(t, types.StatusApproved, again.Status)
	assert.Equal(t, "ok", again.AdministrationRecords[0].Notes)
}

func TestStoreSnapshot(t *testing.T) {
	ctx := context.Background()
	snaps := &memSnapshots{}
	f := &fakeFetcher{reqs: []types.MedicationRequest{{ID: "R1", Status: types.StatusPending}}}

	s := NewStore(f, snaps, clock.NewManaged(now))
	require.NoError(t, s.Refresh(ctx))
	require.Len(t, snaps.reqs, 1)
	assert.Equal(t, now, snaps.at)

	offline := NewStore(&fakeFetcher{err: errors.New("down")}, snaps, nil)
	require.NoError(t, offline.Restore(ctx))
	assert.Error(t, offline.Refresh(ctx))
	require.Len(t, offline.Get(), 1)
	assert.Equal(t, now, offline.FetchedAt())
}

func TestStoreStaleRefreshDoesNotWin(t *testing.T) {
	ctx := context.Background()
	older := []types.MedicationRequest{{ID: "R1", Status: types.StatusPending}}
	newer := []types.MedicationRequest{{ID: "R1", Status: types.StatusApproved}}

	f := newGatedFetcher(older, newer)
	release := f.gate(0)
	s := NewStore(f, nil, clock.NewManaged(now))

	first := make(chan error, 1)
	go func() { first <- s.Refresh(ctx) }()
	require.Equal(t, 0, <-f.entered)

	require.NoError(t, s.Refresh(ctx))
	require.Equal(t, 1, <-f.entered)

	close(release)
	require.NoError(t, <-first)

	got, ok := s.Find("R1")
	require.True(t, ok)
	assert.Equal(t, types.StatusApproved, got.Status)
}
