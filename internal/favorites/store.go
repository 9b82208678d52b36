package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bassista/go_fest/internal/kvstore"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/metrics"
	"github.com/go-playground/validator/v10"
)

// StorageKey is versioned so the record shape can evolve.
const StorageKey = "favorites:v1"

// ErrNotFound is returned when a favorite id is not in the list.
var ErrNotFound = errors.New("favorite not found")

// Record is the minimal data kept for a favorited event. Full details come from the schedule.
type Record struct {
	ID      string `json:"id" validate:"required"`
	Title   string `json:"title,omitempty"`
	Start   string `json:"start,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	SavedAt string `json:"savedAt,omitempty"`
}

// Store persists the favorites list under StorageKey, most recently added first.
type Store struct {
	kv        kvstore.Store
	validator *validator.Validate
	now       func() time.Time
	mu        sync.Mutex
}

func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv, validator: validator.New(), now: time.Now}
}

// WithClock replaces the time source used for SavedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// List returns all favorites. Missing or corrupted storage reads as an empty list.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listUnlocked(ctx)
}

func (s *Store) listUnlocked(ctx context.Context) ([]Record, error) {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	if !ok {
		return []Record{}, nil
	}
	return parseRecords(raw), nil
}

// Get returns a single favorite by id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Record{}, err
	}
	i := slices.IndexFunc(list, func(r Record) bool { return r.ID == id })
	if i < 0 {
		return Record{}, ErrNotFound
	}
	return list[i], nil
}

func (s *Store) IsFavorited(ctx context.Context, id string) (bool, error) {
	list, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	return contains(list, id), nil
}

// IDs returns the favorited ids as a set.
func (s *Store) IDs(ctx context.Context) (map[string]struct{}, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(list))
	for _, r := range list {
		ids[r.ID] = struct{}{}
	}
	return ids, nil
}

// Add prepends rec. An id already present is left untouched (first write wins).
func (s *Store) Add(ctx context.Context, rec Record) ([]Record, error) {
	if err := s.validator.Struct(&rec); err != nil {
		return nil, fmt.Errorf("validate favorite: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUnlocked(ctx, rec)
}

func (s *Store) addUnlocked(ctx context.Context, rec Record) ([]Record, error) {
	list, err := s.listUnlocked(ctx)
	if err != nil {
		return nil, err
	}
	if contains(list, rec.ID) {
		return list, nil
	}

	rec.SavedAt = s.now().UTC().Format(time.RFC3339)
	updated := append([]Record{rec}, list...)
	if err := s.writeUnlocked(ctx, updated); err != nil {
		return nil, err
	}
	logger.WithComponent("favorites").Debugf("added favorite %s", rec.ID)
	return updated, nil
}

// Remove drops id from the list. Removing an absent id rewrites the list unchanged.
func (s *Store) Remove(ctx context.Context, id string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeUnlocked(ctx, id)
}

func (s *Store) removeUnlocked(ctx context.Context, id string) ([]Record, error) {
	list, err := s.listUnlocked(ctx)
	if err != nil {
		return nil, err
	}
	updated := slices.DeleteFunc(list, func(r Record) bool { return r.ID == id })
	if err := s.writeUnlocked(ctx, updated); err != nil {
		return nil, err
	}
	logger.WithComponent("favorites").Debugf("removed favorite %s", id)
	return updated, nil
}

// Toggle adds rec when absent and removes it when present. It reports the new membership.
func (s *Store) Toggle(ctx context.Context, rec Record) ([]Record, bool, error) {
	if err := s.validator.Struct(&rec); err != nil {
		return nil, false, fmt.Errorf("validate favorite: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.listUnlocked(ctx)
	if err != nil {
		return nil, false, err
	}
	if contains(list, rec.ID) {
		updated, err := s.removeUnlocked(ctx, rec.ID)
		return updated, false, err
	}
	updated, err := s.addUnlocked(ctx, rec)
	return updated, err == nil, err
}

// Clear deletes the whole list.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear favorites: %w", err)
	}
	metrics.SetFavorites(0)
	return nil
}

func (s *Store) writeUnlocked(ctx context.Context, list []Record) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal favorites: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(payload)); err != nil {
		return fmt.Errorf("write favorites: %w", err)
	}
	metrics.SetFavorites(len(list))
	return nil
}

// parseRecords keeps entries whose id is a string and drops non-string optional fields.
func parseRecords(raw string) []Record {
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.WithComponent("favorites").Warnf("ignoring malformed favorites: %v", err)
		return []Record{}
	}

	out := make([]Record, 0, len(items))
	for _, v := range items {
		item, ok := v.(map[string]any)
		if !ok {
			continue
		}
		id, ok := item["id"].(string)
		if !ok {
			continue
		}
		rec := Record{ID: id}
		rec.Title, _ = item["title"].(string)
		rec.Start, _ = item["start"].(string)
		rec.SavedAt, _ = item["savedAt"].(string)
		out = append(out, rec)
	}
	return out
}

func contains(list []Record, id string) bool {
	return slices.ContainsFunc(list, func(r Record) bool { return r.ID == id })
}
