package scheduledata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bassista/go_fest/internal/freshness"
	"github.com/bassista/go_fest/internal/kvstore"
	"github.com/bassista/go_fest/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func sampleEvents(n int) []schedule.Event {
	out := make([]schedule.Event, n)
	for i := range out {
		start := time.Date(2026, 8, 29, 18+i, 0, 0, 0, time.UTC)
		out[i] = schedule.Event{
			ID:        string(rune('a' + i)),
			Title:     "Set " + string(rune('A'+i)),
			StartTime: start,
			EndTime:   start.Add(45 * time.Minute),
			Stage:     "Main Stage",
			Category:  "Music",
		}
	}
	return out
}

// fakeFetcher counts calls and optionally parks until release is closed.
type fakeFetcher struct {
	mu      sync.Mutex
	events  []schedule.Event
	err     error
	calls   atomic.Int32
	release chan struct{}
	entered chan struct{}
}

func (f *fakeFetcher) FetchSchedule(ctx context.Context) ([]schedule.Event, error) {
	f.calls.Add(1)
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events, f.err
}

func (f *fakeFetcher) set(events []schedule.Event, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events, f.err = events, err
}

func seededCache(t *testing.T, events []schedule.Event, lastUpdated time.Time) *schedule.Cache {
	t.Helper()
	cache := schedule.NewCache(kvstore.NewMemoryStore())
	if events != nil {
		require.NoError(t, cache.Save(context.Background(), events, lastUpdated.UnixMilli()))
	}
	return cache
}

func newController(t *testing.T, cache *schedule.Cache, fetcher Fetcher, online bool, clock *atomic.Int64) *Controller {
	t.Helper()
	c := New(cache, fetcher, online, WithClock(func() time.Time { return time.UnixMilli(clock.Load()) }))
	t.Cleanup(c.Close)
	select {
	case <-c.Ready():
	case <-time.After(time.Second):
		t.Fatal("initial load did not finish")
	}
	return c
}

func clockAt(t time.Time) *atomic.Int64 {
	var v atomic.Int64
	v.Store(t.UnixMilli())
	return &v
}

func TestController_OfflineWithCache(t *testing.T) {
	lastUpdated := testNow.Add(-5 * time.Minute)
	fetcher := &fakeFetcher{}
	c := newController(t, seededCache(t, sampleEvents(3), lastUpdated), fetcher, false, clockAt(testNow))

	st := c.State()
	assert.Len(t, st.Events, 3)
	assert.False(t, st.IsInitialLoading)
	assert.True(t, st.HasCache)
	assert.False(t, st.IsStale, "five minutes old is fresh")
	require.NotNil(t, st.LastUpdatedMs)
	assert.Equal(t, lastUpdated.UnixMilli(), *st.LastUpdatedMs)

	st, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
	assert.Equal(t, ErrOffline.Error(), st.RefreshError)
	assert.True(t, st.IsStale)
	assert.Len(t, st.Events, 3)
	assert.Equal(t, int32(0), fetcher.calls.Load(), "no network while offline")
}

func TestController_EmptyCacheIsStale(t *testing.T) {
	c := newController(t, seededCache(t, nil, time.Time{}), &fakeFetcher{}, false, clockAt(testNow))

	st := c.State()
	assert.Empty(t, st.Events)
	assert.NotNil(t, st.Events)
	assert.Nil(t, st.LastUpdatedMs)
	assert.False(t, st.HasCache)
	assert.True(t, st.IsStale)
	assert.Equal(t, PhaseIdle, st.Phase)
}

func TestController_AutoRefreshWhenStaleAndOnline(t *testing.T) {
	fetcher := &fakeFetcher{events: sampleEvents(5)}
	cache := seededCache(t, sampleEvents(2), testNow.Add(-freshness.Window-time.Minute))
	c := newController(t, cache, fetcher, true, clockAt(testNow))

	require.Eventually(t, func() bool { return c.State().Phase == PhaseFresh }, time.Second, 5*time.Millisecond)

	st := c.State()
	assert.Len(t, st.Events, 5)
	assert.False(t, st.IsStale)
	assert.Empty(t, st.RefreshError)
	assert.Equal(t, testNow.UnixMilli(), *st.LastUpdatedMs)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	rec, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rec.Events, 5, "refreshed events are persisted")
}

func TestController_AutoRefreshWhenComingOnline(t *testing.T) {
	fetcher := &fakeFetcher{events: sampleEvents(1)}
	cache := seededCache(t, sampleEvents(2), testNow.Add(-time.Hour))
	c := newController(t, cache, fetcher, false, clockAt(testNow))

	assert.Equal(t, int32(0), fetcher.calls.Load())
	c.SetOnline(true)

	require.Eventually(t, func() bool { return c.State().Phase == PhaseFresh }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestController_NoAutoRefreshWithoutCache(t *testing.T) {
	fetcher := &fakeFetcher{events: sampleEvents(1)}
	c := newController(t, seededCache(t, nil, time.Time{}), fetcher, true, clockAt(testNow))

	c.SetOnline(false)
	c.SetOnline(true)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fetcher.calls.Load())
	assert.Equal(t, PhaseIdle, c.State().Phase)
}

func TestController_FailureRetainsCache(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("API 500: boom")}
	c := newController(t, seededCache(t, sampleEvents(3), testNow.Add(-time.Minute)), fetcher, true, clockAt(testNow))

	st, err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, "API 500: boom", st.RefreshError)
	assert.True(t, st.IsStale)
	assert.False(t, st.IsRefreshing)
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Len(t, st.Events, 3)

	// the failure made the data stale, which arms the trigger once; the retry fails
	// too and, with nothing else changing, no further attempts follow
	require.Eventually(t, func() bool {
		s := c.State()
		return fetcher.calls.Load() == 2 && !s.IsRefreshing && s.Phase == PhaseFailed
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), fetcher.calls.Load())

	fetcher.set(sampleEvents(4), nil)
	st, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseFresh, st.Phase)
	assert.Empty(t, st.RefreshError)
	assert.Len(t, st.Events, 4)
}

func TestController_SingleFlightRefresh(t *testing.T) {
	fetcher := &fakeFetcher{
		events:  sampleEvents(2),
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := newController(t, seededCache(t, sampleEvents(1), testNow), fetcher, true, clockAt(testNow))

	results := make(chan State, 2)
	go func() { st, _ := c.Refresh(context.Background()); results <- st }()
	<-fetcher.entered

	assert.True(t, c.State().IsRefreshing)
	assert.Equal(t, PhaseRefreshing, c.State().Phase)

	go func() { st, _ := c.Refresh(context.Background()); results <- st }()
	time.Sleep(20 * time.Millisecond)
	close(fetcher.release)

	first, second := <-results, <-results
	assert.Len(t, first.Events, 2)
	assert.Len(t, second.Events, 2)
	assert.Equal(t, int32(1), fetcher.calls.Load(), "overlapping refreshes share one fetch")
}

func TestController_RecheckStaleness(t *testing.T) {
	clock := clockAt(testNow)
	fetcher := &fakeFetcher{events: sampleEvents(2)}
	c := newController(t, seededCache(t, sampleEvents(2), testNow), fetcher, true, clock)

	c.RecheckStaleness()
	assert.False(t, c.State().IsStale)

	clock.Store(testNow.Add(freshness.Window + time.Second).UnixMilli())
	c.RecheckStaleness()

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !c.State().IsStale }, time.Second, 5*time.Millisecond)
}

func TestController_CloseFreezesState(t *testing.T) {
	fetcher := &fakeFetcher{events: sampleEvents(2), release: make(chan struct{})}
	c := New(seededCache(t, sampleEvents(1), testNow.Add(-time.Hour)), fetcher, true,
		WithClock(func() time.Time { return testNow }))
	<-c.Ready()

	require.Eventually(t, func() bool { return c.State().IsRefreshing }, time.Second, 5*time.Millisecond)
	c.Close()
	c.Close()

	st := c.State()
	assert.True(t, st.IsRefreshing, "the cancelled fetch does not write into a closed controller")
	assert.Len(t, st.Events, 1)
}

func TestController_CancelledCallerDoesNotAbortSharedRefresh(t *testing.T) {
	fetcher := &fakeFetcher{
		events:  sampleEvents(3),
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := newController(t, seededCache(t, sampleEvents(1), testNow), fetcher, true, clockAt(testNow))

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() { _, err := c.Refresh(ctxA); errA <- err }()
	<-fetcher.entered

	resultB := make(chan State, 1)
	errB := make(chan error, 1)
	go func() {
		st, err := c.Refresh(context.Background())
		resultB <- st
		errB <- err
	}()

	// the first caller gives up while the fetch is still in progress
	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)
	assert.True(t, c.State().IsRefreshing)

	time.Sleep(20 * time.Millisecond)
	close(fetcher.release)
	require.NoError(t, <-errB)
	assert.Len(t, (<-resultB).Events, 3)

	st := c.State()
	assert.Equal(t, PhaseFresh, st.Phase)
	assert.False(t, st.IsStale)
	assert.Empty(t, st.RefreshError)
	assert.Len(t, st.Events, 3)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestController_RefreshAfterClose(t *testing.T) {
	fetcher := &fakeFetcher{events: sampleEvents(2)}
	c := newController(t, seededCache(t, sampleEvents(1), testNow), fetcher, true, clockAt(testNow))
	c.Close()

	_, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, int32(0), fetcher.calls.Load())
}

// unwritableStore reads fine but rejects every write.
type unwritableStore struct {
	*kvstore.MemoryStore
}

func (unwritableStore) MultiSet(context.Context, []kvstore.Pair) error {
	return errors.New("disk full")
}

func TestController_SaveFailureIsReported(t *testing.T) {
	fetcher := &fakeFetcher{events: sampleEvents(2)}
	cache := schedule.NewCache(unwritableStore{kvstore.NewMemoryStore()})
	c := newController(t, cache, fetcher, true, clockAt(testNow))

	st, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseFresh, st.Phase)
	assert.Len(t, st.Events, 2)
	assert.Contains(t, st.CacheWarning, "disk full")

	fetcher.set(sampleEvents(3), nil)
	c2 := newController(t, seededCache(t, nil, time.Time{}), fetcher, true, clockAt(testNow))
	st, err = c2.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.CacheWarning)
}
