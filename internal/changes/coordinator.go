package changes

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bassista/go_fest/internal/freshness"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/metrics"
)

// MinCheckInterval bounds how often the remote change endpoint is probed.
const MinCheckInterval = freshness.Window

// Info is the remote answer to "did anything change".
type Info struct {
	Version     int64  `json:"version"`
	LastUpdated string `json:"lastUpdated"`
}

// Prober asks the remote side for its current content version.
type Prober interface {
	GetChanges(ctx context.Context) (Info, error)
}

// SkipReason tells why a check did not reach the network.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipInFlight    SkipReason = "in_flight"
	SkipMinInterval SkipReason = "min_interval"
)

// Outcome reports how a change-check ended. Failures are reported here, never returned.
type Outcome struct {
	NeedsRefresh bool       `json:"needsRefresh"`
	Skipped      bool       `json:"skipped"`
	Reason       SkipReason `json:"reason,omitempty"`
	Error        bool       `json:"error,omitempty"`
}

// Coordinator runs rate-limited change-checks, at most one at a time.
// One instance is shared per process; callers hold a reference to it.
type Coordinator struct {
	meta   *MetadataStore
	prober Prober
	now    func() time.Time

	inFlight     atomic.Bool
	needsRefresh atomic.Bool
}

func NewCoordinator(meta *MetadataStore, prober Prober) *Coordinator {
	return &Coordinator{meta: meta, prober: prober, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// RunChangeCheck probes the remote version unless a check is already running or the last
// completed check is younger than MinCheckInterval. Metadata is written only after a
// successful probe, so failures neither reset the rate limiter nor move the version.
func (c *Coordinator) RunChangeCheck(ctx context.Context) Outcome {
	log := logger.WithComponent("change-check")

	if !c.inFlight.CompareAndSwap(false, true) {
		log.Debug("skipping: change-check already in flight")
		metrics.RecordChangeCheck("skipped_in_flight")
		return Outcome{Skipped: true, Reason: SkipInFlight}
	}
	defer c.inFlight.Store(false)

	now := c.now()

	md, err := c.meta.Load(ctx)
	if err != nil {
		log.Warnf("cannot read change-check metadata: %v", err)
		metrics.RecordChangeCheck("error")
		return Outcome{Error: true}
	}

	if md.LastChangeCheckAt != nil && *md.LastChangeCheckAt > 0 &&
		now.UnixMilli()-*md.LastChangeCheckAt < MinCheckInterval.Milliseconds() {
		log.Debug("skipping: within min interval")
		metrics.RecordChangeCheck("skipped_min_interval")
		return Outcome{Skipped: true, Reason: SkipMinInterval}
	}

	log.Debug("checking remote changes")
	info, err := c.prober.GetChanges(ctx)
	if err != nil {
		log.Warnf("change-check failed, keeping cache: %v", err)
		metrics.RecordChangeCheck("error")
		return Outcome{Error: true}
	}

	var localVersion int64
	if md.RemoteVersion != nil {
		localVersion = *md.RemoteVersion
	}
	shouldRefresh := info.Version > localVersion
	log.Debugf("localVersion=%d, remoteVersion=%d, shouldRefresh=%v", localVersion, info.Version, shouldRefresh)

	// the stored version never moves backwards
	if err := c.meta.Record(ctx, now.UnixMilli(), max(localVersion, info.Version), info.LastUpdated); err != nil {
		log.Warnf("cannot persist change-check metadata: %v", err)
		metrics.RecordChangeCheck("error")
		return Outcome{Error: true}
	}

	if shouldRefresh {
		c.needsRefresh.Store(true)
		log.Infof("remote content changed (version %d -> %d)", localVersion, info.Version)
		metrics.RecordChangeCheck("changed")
	} else {
		metrics.RecordChangeCheck("unchanged")
	}
	return Outcome{NeedsRefresh: shouldRefresh}
}

// NeedsRefresh reports whether a completed check found newer remote content that has not
// been acknowledged yet.
func (c *Coordinator) NeedsRefresh() bool { return c.needsRefresh.Load() }

// ClearNeedsRefresh acknowledges the flag after the data has been refetched.
func (c *Coordinator) ClearNeedsRefresh() { c.needsRefresh.Store(false) }

// InFlight reports whether a check is currently running.
func (c *Coordinator) InFlight() bool { return c.inFlight.Load() }

// Metadata exposes the persisted state for status reporting.
func (c *Coordinator) Metadata(ctx context.Context) (Metadata, error) {
	return c.meta.Load(ctx)
}
