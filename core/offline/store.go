// Package offline implements the durable song cache backing offline
// playback. Entries are keyed by the content key, the one song identifier
// that is stable across the cache/network boundary; the catalog-local
// numeric id travels inside the metadata payload and carries no identity
// here.
package offline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"R2FM/model"

	bolt "go.etcd.io/bbolt"
)

var (
	// ErrStorageUnavailable reports that the persistent store cannot be
	// opened or written. Callers degrade by treating the cache as empty.
	ErrStorageUnavailable = errors.New("offline store unavailable")
	// ErrDuplicateKey reports an insert for a content key that is already
	// cached. The existing entry is left unchanged.
	ErrDuplicateKey = errors.New("content key already cached")
	// ErrNotFound reports a lookup for a content key that is not cached.
	ErrNotFound = errors.New("song not cached")
)

// Bucket names
var (
	bucketMeta = []byte("meta")  // content key -> song metadata JSON
	bucketBlob = []byte("audio") // content key -> raw audio bytes
)

// Store is the durable offline song cache. Construct one with Open at
// application start and pass it by reference to every component that needs
// it; it owns the cached audio bytes exclusively.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the cache file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketMeta, bucketBlob} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put inserts a cached song. The check and the insert run inside one write
// transaction, so concurrent puts for the same content key resolve to
// exactly one stored entry; the loser gets ErrDuplicateKey. Entries whose
// catalog ids collide (the server may recycle ids) coexist as long as their
// content keys differ.
func (s *Store) Put(entry model.CachedSong) error {
	if entry.ContentKey == "" {
		return fmt.Errorf("cached song has empty content key")
	}

	meta, err := json.Marshal(entry.Song)
	if err != nil {
		return fmt.Errorf("failed to encode song metadata: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(entry.ContentKey)

		metaBkt := tx.Bucket(bucketMeta)
		if metaBkt.Get(key) != nil {
			return ErrDuplicateKey
		}
		if err := metaBkt.Put(key, meta); err != nil {
			return err
		}
		return tx.Bucket(bucketBlob).Put(key, entry.Audio)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Get returns the cached song for a content key.
func (s *Store) Get(contentKey string) (*model.CachedSong, error) {
	var entry *model.CachedSong
	err := s.db.View(func(tx *bolt.Tx) error {
		e, err := readEntry(tx, []byte(contentKey))
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return entry, nil
}

// ListAll returns every cached entry, in no particular order.
func (s *Store) ListAll() ([]model.CachedSong, error) {
	var entries []model.CachedSong
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketMeta).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			entry, err := readEntry(tx, k)
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return entries, nil
}

// Clear removes every cached entry.
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketMeta, bucketBlob} {
			if err := tx.DeleteBucket(bucket); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func readEntry(tx *bolt.Tx, key []byte) (*model.CachedSong, error) {
	meta := tx.Bucket(bucketMeta).Get(key)
	if meta == nil {
		return nil, ErrNotFound
	}

	entry := &model.CachedSong{}
	if err := json.Unmarshal(meta, &entry.Song); err != nil {
		return nil, fmt.Errorf("failed to decode song metadata: %w", err)
	}

	// Copy out: bolt-owned bytes are only valid inside the transaction.
	if blob := tx.Bucket(bucketBlob).Get(key); blob != nil {
		entry.Audio = make([]byte, len(blob))
		copy(entry.Audio, blob)
	}
	return entry, nil
}
