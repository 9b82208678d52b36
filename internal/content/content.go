package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bassista/go_fest/internal/announcements"
	"github.com/bassista/go_fest/internal/kvstore"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/venues"
)

const (
	KeyAnnouncements = "content:announcements"
	KeyVenues        = "content:venues"
)

// ErrUnavailable means the remote fetch failed and nothing was stored from an earlier one.
var ErrUnavailable = errors.New("content unavailable: remote fetch failed and nothing is cached")

// Fetcher is implemented by *wpapi.Client.
type Fetcher interface {
	FetchAnnouncements(ctx context.Context) ([]announcements.Announcement, error)
	FetchVenues(ctx context.Context) ([]venues.Venue, error)
}

// Source serves announcements and venues from the network when possible and falls back
// to the last stored copy otherwise.
type Source struct {
	fetcher Fetcher
	store   kvstore.Store
	online  func() bool
}

func NewSource(fetcher Fetcher, store kvstore.Store, online func() bool) *Source {
	return &Source{fetcher: fetcher, store: store, online: online}
}

// Announcements returns the raw announcement list. fromCache is true when the stored copy
// was served.
func (s *Source) Announcements(ctx context.Context) (items []announcements.Announcement, fromCache bool, err error) {
	return fetchOrStored(ctx, s, KeyAnnouncements, s.fetcher.FetchAnnouncements)
}

func (s *Source) Venues(ctx context.Context) (items []venues.Venue, fromCache bool, err error) {
	return fetchOrStored(ctx, s, KeyVenues, s.fetcher.FetchVenues)
}

func fetchOrStored[T any](ctx context.Context, s *Source, key string, fetch func(context.Context) ([]T, error)) ([]T, bool, error) {
	log := logger.WithComponent("content")

	if s.online == nil || s.online() {
		items, err := fetch(ctx)
		if err == nil {
			if payload, merr := json.Marshal(items); merr == nil {
				if serr := s.store.Set(ctx, key, string(payload)); serr != nil {
					log.Warnf("cannot store %s: %v", key, serr)
				}
			}
			return items, false, nil
		}
		log.Warnf("fetching %s failed, trying stored copy: %v", key, err)
	}

	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return nil, false, ErrUnavailable
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Warnf("stored %s is malformed, ignoring: %v", key, err)
		return nil, false, ErrUnavailable
	}
	return items, true, nil
}
