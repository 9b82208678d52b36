package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/bassista/go_fest/internal/logger"
	"github.com/dgraph-io/badger/v4"
)

// BadgerStore persists values in an embedded badger database.
// MultiSet runs in a single transaction.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens the database under dir. An empty dir opens an in-memory database.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	logger.WithComponent("badger-store").Debugf("badger store opened at %q", dir)
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string) (string, bool, error) {
	var out string
	found := true
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("badger get %s: %w", key, err)
	}
	return out, found, nil
}

func (s *BadgerStore) Set(_ context.Context, key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) MultiGet(_ context.Context, keys []string) ([]Pair, error) {
	out := make([]Pair, 0, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range keys {
			item, err := txn.Get([]byte(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				out = append(out, Pair{Key: k})
				continue
			}
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, Pair{Key: k, Value: string(val), Found: true})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger multi get: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) MultiSet(_ context.Context, pairs []Pair) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, p := range pairs {
			if err := txn.Set([]byte(p.Key), []byte(p.Value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger multi set: %w", err)
	}
	return nil
}

func (s *BadgerStore) Remove(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger remove %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
