package kvstore

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kvstore: store is closed")

// Pair is one key/value entry. Found is only meaningful on MultiGet results.
type Pair struct {
	Key   string
	Value string
	Found bool
}

// Store is the durable string-keyed, string-valued storage shared by the schedule cache,
// the change-check metadata and the favorites list. Each owner uses its own key namespace.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// MultiGet returns one Pair per requested key, in request order.
	MultiGet(ctx context.Context, keys []string) ([]Pair, error)
	// MultiSet writes all pairs or none.
	MultiSet(ctx context.Context, pairs []Pair) error
	// Remove deletes key; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Lookup finds key in a MultiGet result.
func Lookup(pairs []Pair, key string) (string, bool) {
	for _, p := range pairs {
		if p.Key == key {
			return p.Value, p.Found
		}
	}
	return "", false
}
