package changes

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/bassista/go_fest/internal/kvstore"
	"github.com/bassista/go_fest/internal/logger"
)

const (
	KeyLastChangeCheckAt = "cache:lastChangeCheckAt"
	KeyRemoteVersion     = "cache:remoteVersion"
	KeyLastUpdated       = "cache:lastUpdated"
)

// Metadata is the persisted change-check state. Nil fields were never recorded.
type Metadata struct {
	LastChangeCheckAt *int64  `json:"lastChangeCheckAt"`
	RemoteVersion     *int64  `json:"remoteVersion"`
	LastUpdated       *string `json:"lastUpdated"`
}

// MetadataStore reads and writes Metadata under the cache:* keys.
type MetadataStore struct {
	store kvstore.Store
}

func NewMetadataStore(store kvstore.Store) *MetadataStore {
	return &MetadataStore{store: store}
}

// Load returns the persisted metadata. Unparsable numbers read as absent.
func (m *MetadataStore) Load(ctx context.Context) (Metadata, error) {
	pairs, err := m.store.MultiGet(ctx, []string{KeyLastChangeCheckAt, KeyRemoteVersion, KeyLastUpdated})
	if err != nil {
		return Metadata{}, fmt.Errorf("load change-check metadata: %w", err)
	}

	var md Metadata
	if raw, ok := kvstore.Lookup(pairs, KeyLastChangeCheckAt); ok {
		md.LastChangeCheckAt = parseNumber(KeyLastChangeCheckAt, raw)
	}
	if raw, ok := kvstore.Lookup(pairs, KeyRemoteVersion); ok {
		md.RemoteVersion = parseNumber(KeyRemoteVersion, raw)
	}
	if raw, ok := kvstore.Lookup(pairs, KeyLastUpdated); ok && raw != "" {
		md.LastUpdated = &raw
	}
	return md, nil
}

// Record persists a completed check in one MultiSet. lastUpdated is skipped when empty.
func (m *MetadataStore) Record(ctx context.Context, checkedAtMs, remoteVersion int64, lastUpdated string) error {
	pairs := []kvstore.Pair{
		{Key: KeyLastChangeCheckAt, Value: strconv.FormatInt(checkedAtMs, 10)},
		{Key: KeyRemoteVersion, Value: strconv.FormatInt(remoteVersion, 10)},
	}
	if lastUpdated != "" {
		pairs = append(pairs, kvstore.Pair{Key: KeyLastUpdated, Value: lastUpdated})
	}
	if err := m.store.MultiSet(ctx, pairs); err != nil {
		return fmt.Errorf("save change-check metadata: %w", err)
	}
	return nil
}

func parseNumber(key, raw string) *int64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		logger.WithComponent("change-check").Warnf("ignoring malformed %s value %q", key, raw)
		return nil
	}
	v := int64(f)
	return &v
}
