package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bassista/go_fest/internal/kvstore"
	"github.com/bassista/go_fest/internal/logger"
)

const (
	// KeyEvents holds the JSON-encoded event list.
	KeyEvents = "schedule.events"
	// KeyLastUpdated holds the last successful fetch time in Unix milliseconds. It is stored
	// separately so it can be read without decoding the whole event list.
	KeyLastUpdated = "schedule.lastUpdatedMs"
)

// Record is the persisted cache pair. LastUpdatedMs is nil until the first successful save.
type Record struct {
	Events        []Event `json:"events"`
	LastUpdatedMs *int64  `json:"lastUpdatedMs"`
}

// Cache persists the event list and its fetch timestamp.
type Cache struct {
	store kvstore.Store
}

func NewCache(store kvstore.Store) *Cache {
	return &Cache{store: store}
}

// Save writes both records in one MultiSet. A failure of either is a failure of the whole save.
func (c *Cache) Save(ctx context.Context, events []Event, lastUpdatedMs int64) error {
	if events == nil {
		events = []Event{}
	}
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal schedule cache: %w", err)
	}

	if err := c.store.MultiSet(ctx, []kvstore.Pair{
		{Key: KeyEvents, Value: string(payload)},
		{Key: KeyLastUpdated, Value: strconv.FormatInt(lastUpdatedMs, 10)},
	}); err != nil {
		return fmt.Errorf("save schedule cache: %w", err)
	}
	logger.WithComponent("schedule-cache").Debugf("saved %d events (lastUpdatedMs=%d)", len(events), lastUpdatedMs)
	return nil
}

// Load reads the cached schedule. Nothing cached yields empty events and a nil timestamp.
// Malformed persisted values degrade to the same empty result; only storage I/O errors are
// returned.
func (c *Cache) Load(ctx context.Context) (Record, error) {
	pairs, err := c.store.MultiGet(ctx, []string{KeyEvents, KeyLastUpdated})
	if err != nil {
		return Record{Events: []Event{}}, fmt.Errorf("load schedule cache: %w", err)
	}

	rec := Record{Events: []Event{}}
	if raw, ok := kvstore.Lookup(pairs, KeyEvents); ok && raw != "" {
		var events []Event
		if err := json.Unmarshal([]byte(raw), &events); err != nil {
			// corrupt events invalidate the timestamp too
			logger.WithComponent("schedule-cache").Warnf("cached events are malformed, ignoring cache: %v", err)
			return rec, nil
		}
		if events != nil {
			rec.Events = events
		}
	}

	if raw, ok := kvstore.Lookup(pairs, KeyLastUpdated); ok && raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			logger.WithComponent("schedule-cache").Warnf("cached timestamp %q is malformed, ignoring", raw)
		} else {
			rec.LastUpdatedMs = &ms
		}
	}

	return rec, nil
}
