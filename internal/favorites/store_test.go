package favorites

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bassista/go_fest/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, kvstore.Store) {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	clock := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	return NewStore(kv).WithClock(func() time.Time { return clock }), kv
}

func favIDs(list []Record) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ID
	}
	return out
}

func TestStore_ListEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestStore_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Add(ctx, Record{ID: "e1", Title: "Opening Set"})
	require.NoError(t, err)
	list, err := s.Add(ctx, Record{ID: "e1", Title: "Renamed"})
	require.NoError(t, err)

	require.Len(t, list, 1)
	assert.Equal(t, "Opening Set", list[0].Title, "existing entry keeps its first metadata")
	assert.Equal(t, "2026-08-30T09:00:00Z", list[0].SavedAt)
}

func TestStore_AddPrepends(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for _, id := range []string{"e1", "e2", "e3"} {
		_, err := s.Add(ctx, Record{ID: id})
		require.NoError(t, err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2", "e1"}, favIDs(list))
}

func TestStore_AddValidates(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Add(ctx, Record{})
	assert.Error(t, err)

	_, err = s.Add(ctx, Record{ID: "e1", Start: "saturday night"})
	assert.Error(t, err)

	_, err = s.Add(ctx, Record{ID: "e1", Start: "2026-08-30T20:00:00-07:00"})
	assert.NoError(t, err)
}

func TestStore_Toggle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	list, isNow, err := s.Toggle(ctx, Record{ID: "e1"})
	require.NoError(t, err)
	assert.True(t, isNow)
	assert.Equal(t, []string{"e1"}, favIDs(list))

	fav, err := s.IsFavorited(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, fav)

	list, isNow, err = s.Toggle(ctx, Record{ID: "e1"})
	require.NoError(t, err)
	assert.False(t, isNow)
	assert.Empty(t, list)

	fav, err = s.IsFavorited(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestStore_RemoveAndGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Add(ctx, Record{ID: "e1", Title: "A"})
	require.NoError(t, err)
	_, err = s.Add(ctx, Record{ID: "e2", Title: "B"})
	require.NoError(t, err)

	rec, err := s.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "A", rec.Title)

	list, err := s.Remove(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, favIDs(list))

	_, err = s.Get(ctx, "e1")
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err = s.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, favIDs(list))
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	_, err := s.Add(ctx, Record{ID: "e1"})
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	_, ok, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_CorruptedStorage(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "not json", raw: "{{{", want: []string{}},
		{name: "not an array", raw: `{"id":"e1"}`, want: []string{}},
		{name: "mixed entries", raw: `[null, 7, {"id": 3}, {"title":"no id"}, {"id":"e9","title":42}]`, want: []string{"e9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, kv := newTestStore(t)
			require.NoError(t, kv.Set(ctx, StorageKey, tt.raw))

			list, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, favIDs(list))
			for _, r := range list {
				assert.Empty(t, r.Title, "non-string title is dropped")
			}
		})
	}
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.Add(ctx, Record{ID: id})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 8, "serialized read-modify-write loses no entries")
}
