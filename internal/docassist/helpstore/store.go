// Package helpstore persists doc-assistant answers in a small Badger KV so
// repeated lookups survive process restarts.
package helpstore

import (
	"encoding/json"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/atenabot/atena/internal/domain"
)

// Store is a thin KV wrapper over Badger keyed by normalized error message.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at dir.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("helpstore: dir is required")
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "helpstore: open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the cached help payload for key, reporting found=false for
// both missing and expired entries.
func (s *Store) Get(key string) (*domain.ErrorHelp, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("helpstore: not opened")
	}
	var help *domain.ErrorHelp
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var h domain.ErrorHelp
			if err := json.Unmarshal(val, &h); err != nil {
				return err
			}
			help = &h
			return nil
		})
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "helpstore: get")
	}
	return help, help != nil, nil
}

// Put stores the help payload under key with a TTL.
func (s *Store) Put(key string, help *domain.ErrorHelp, ttl time.Duration) error {
	if s == nil || s.db == nil {
		return errors.New("helpstore: not opened")
	}
	data, err := json.Marshal(help)
	if err != nil {
		return errors.Wrap(err, "helpstore: marshal")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}
