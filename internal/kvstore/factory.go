package kvstore

import (
	"context"
	"fmt"
)

const (
	TypeFile   = "file"
	TypeBadger = "badger"
	TypeRedis  = "redis"
	TypeMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Type      string
	FilePath  string
	BadgerDir string
	Redis     RedisConfig
}

// NewStoreFromOptions creates a Store for the requested backend type.
// An empty type selects the file backend.
func NewStoreFromOptions(ctx context.Context, opts Options) (Store, error) {
	switch opts.Type {
	case TypeFile, "":
		return NewFileStore(opts.FilePath)
	case TypeBadger:
		return OpenBadgerStore(opts.BadgerDir)
	case TypeRedis:
		return NewRedisStore(ctx, opts.Redis)
	case TypeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s (supported: %s, %s, %s, %s)",
			opts.Type, TypeFile, TypeBadger, TypeRedis, TypeMemory)
	}
}
