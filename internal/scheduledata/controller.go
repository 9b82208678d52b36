package scheduledata

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bassista/go_fest/internal/freshness"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/metrics"
	"github.com/bassista/go_fest/internal/schedule"
	"golang.org/x/sync/singleflight"
)

// ErrOffline is reported when a refresh is requested without connectivity.
var ErrOffline = errors.New("offline: showing saved schedule")

// ErrClosed is returned by Refresh after Close.
var ErrClosed = errors.New("schedule controller closed")

// Phase is the position in the current refresh cycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRefreshing Phase = "refreshing"
	PhaseFresh      Phase = "fresh"
	PhaseFailed     Phase = "failed"
)

// State is the view-state handed to the UI. Transitional values are valid, renderable states.
type State struct {
	Events           []schedule.Event `json:"events"`
	LastUpdatedMs    *int64           `json:"lastUpdatedMs"`
	HasCache         bool             `json:"hasCache"`
	IsInitialLoading bool             `json:"isInitialLoading"`
	IsRefreshing     bool             `json:"isRefreshing"`
	IsStale          bool             `json:"isStale"`
	RefreshError     string           `json:"refreshError,omitempty"`
	CacheWarning     string           `json:"cacheWarning,omitempty"`
	IsOnline         bool             `json:"isOnline"`
	Phase            Phase            `json:"phase"`
}

// autoRefreshArmed is the trigger condition for an automatic refresh.
func (s State) autoRefreshArmed() bool {
	return s.IsOnline && s.HasCache && s.IsStale
}

// Fetcher downloads the full schedule.
type Fetcher interface {
	FetchSchedule(ctx context.Context) ([]schedule.Event, error)
}

// Controller owns the schedule view-state: it loads the cache, tracks staleness, and
// refreshes from the network on demand or when the data goes stale while online.
type Controller struct {
	cache   *schedule.Cache
	fetcher Fetcher
	now     func() time.Time

	mu     sync.RWMutex
	state  State
	closed bool

	group  singleflight.Group
	ready  chan struct{}
	bgCtx  context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Controller)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New starts loading the cache in the background and returns immediately.
func New(cache *schedule.Cache, fetcher Fetcher, isOnline bool, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cache:   cache,
		fetcher: fetcher,
		now:     time.Now,
		state: State{
			Events:           []schedule.Event{},
			IsInitialLoading: true,
			IsStale:          true,
			IsOnline:         isOnline,
			Phase:            PhaseIdle,
		},
		ready:  make(chan struct{}),
		bgCtx:  ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loadCache(ctx)
	}()
	return c
}

func (c *Controller) loadCache(ctx context.Context) {
	defer close(c.ready)
	log := logger.WithComponent("schedule-data")

	rec, err := c.cache.Load(ctx)
	if err != nil {
		log.Warnf("cannot read schedule cache, starting empty: %v", err)
	}

	c.update(func(s *State) {
		if rec.Events != nil {
			s.Events = rec.Events
		}
		s.LastUpdatedMs = rec.LastUpdatedMs
		s.HasCache = len(rec.Events) > 0
		s.IsInitialLoading = false
		s.IsStale = freshness.IsStale(rec.LastUpdatedMs, c.now())
	})
	log.Infof("loaded %d cached events", len(rec.Events))
}

// Ready is closed once the initial cache load has finished.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// State returns a snapshot of the view-state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetOnline feeds the connectivity verdict in.
func (c *Controller) SetOnline(online bool) {
	c.update(func(s *State) { s.IsOnline = online })
}

// RecheckStaleness marks the data stale once it has aged past the freshness window.
// It never clears staleness; only a successful refresh does that.
func (c *Controller) RecheckStaleness() {
	c.update(func(s *State) {
		if !s.IsInitialLoading && !s.IsStale && freshness.IsStale(s.LastUpdatedMs, c.now()) {
			s.IsStale = true
		}
	})
}

// Refresh fetches the schedule unless offline. Overlapping callers share one fetch.
// The fetch runs on the controller's own context: a caller whose ctx ends stops waiting,
// but the fetch still completes and updates the cache and state for everyone else.
// The error mirrors State.RefreshError.
func (c *Controller) Refresh(ctx context.Context) (State, error) {
	ch := c.group.DoChan("refresh", func() (any, error) {
		if !c.track() {
			return c.State(), ErrClosed
		}
		defer c.wg.Done()
		return c.refresh(c.bgCtx)
	})

	select {
	case res := <-ch:
		return res.Val.(State), res.Err
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

// track registers background work with Close. It reports false once closed.
func (c *Controller) track() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	return true
}

func (c *Controller) refresh(ctx context.Context) (State, error) {
	log := logger.WithComponent("schedule-data")

	select {
	case <-c.ready:
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}

	if !c.State().IsOnline {
		log.Debug("refresh skipped: offline")
		metrics.RecordScheduleRefresh("offline")
		return c.update(func(s *State) {
			s.RefreshError = ErrOffline.Error()
			s.IsStale = true
		}), ErrOffline
	}

	c.update(func(s *State) {
		s.IsRefreshing = true
		s.RefreshError = ""
		s.Phase = PhaseRefreshing
	})

	events, err := c.fetcher.FetchSchedule(ctx)
	if err != nil {
		log.Warnf("refresh failed, keeping cached schedule: %v", err)
		metrics.RecordScheduleRefresh("failure")
		return c.update(func(s *State) {
			s.IsRefreshing = false
			s.IsStale = true
			s.RefreshError = err.Error()
			s.Phase = PhaseFailed
		}), err
	}

	fetchedAt := c.now().UnixMilli()
	var cacheWarning string
	if err := c.cache.Save(ctx, events, fetchedAt); err != nil {
		// the fresh data is still shown, but it will not survive a restart
		log.Warnf("cannot persist refreshed schedule: %v", err)
		cacheWarning = "schedule not saved for offline use: " + err.Error()
	}

	log.Infof("schedule refreshed: %d events", len(events))
	metrics.RecordScheduleRefresh("success")
	return c.update(func(s *State) {
		s.Events = events
		s.LastUpdatedMs = &fetchedAt
		s.HasCache = len(events) > 0
		s.IsRefreshing = false
		s.IsStale = false
		s.RefreshError = ""
		s.CacheWarning = cacheWarning
		s.Phase = PhaseFresh
	}), nil
}

// update applies one transition and fires the automatic refresh when the trigger
// condition goes from false to true. Updates after Close are dropped.
func (c *Controller) update(mutate func(*State)) State {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.state
	}
	wasArmed := c.state.autoRefreshArmed()
	mutate(&c.state)
	next := c.state
	fire := !wasArmed && next.autoRefreshArmed()
	if fire {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	metrics.SetCachedEvents(len(next.Events))

	if fire {
		logger.WithComponent("schedule-data").Debug("cached schedule is stale while online, refreshing")
		go func() {
			defer c.wg.Done()
			_, _ = c.Refresh(c.bgCtx)
		}()
	}
	return next
}

// Close stops background work and freezes the state.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
