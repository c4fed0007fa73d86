package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/maintsync/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketPasses = []byte("passes")
)

// DefaultHistory is the number of pass summaries kept
const DefaultHistory = 100

// ErrLocked is matched by LockedError
var ErrLocked = errors.New("another maintsync pass is running")

// LockedError reports that the database is held by another process
type LockedError struct {
	Path string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%v (lock held on %s)", ErrLocked, e.Path)
}

func (e *LockedError) Unwrap() error {
	return ErrLocked
}

// BoltStore implements Store using BoltDB. Opening it read-write takes an
// exclusive file lock, which serializes maintsync processes sharing the
// same file.
type BoltStore struct {
	db      *bolt.DB
	history int
}

// NewBoltStore opens or creates the database at path, waiting up to timeout
// for another process to release it.
func NewBoltStore(path string, timeout time.Duration) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: timeout})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, &LockedError{Path: path}
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketPasses); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketPasses, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, history: DefaultHistory}, nil
}

// OpenReadOnly opens an existing database without taking the exclusive
// lock. It waits up to timeout while a pass holds the file.
func OpenReadOnly(path string, timeout time.Duration) (*BoltStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: timeout, ReadOnly: true})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, &LockedError{Path: path}
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &BoltStore{db: db, history: DefaultHistory}, nil
}

// Close closes the database and releases the lock
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// passKey orders passes by start time
func passKey(summary *types.PassSummary) []byte {
	key := make([]byte, 8, 8+len(summary.ID))
	binary.BigEndian.PutUint64(key, uint64(summary.StartedAt.UnixNano()))
	return append(key, summary.ID...)
}

// RecordPass stores a summary and trims history to the newest entries
func (s *BoltStore) RecordPass(summary *types.PassSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPasses)
		if err := b.Put(passKey(summary), data); err != nil {
			return err
		}

		c := b.Cursor()
		count := 0
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			count++
		}

		excess := count - s.history
		for k, _ := c.First(); k != nil && excess > 0; k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return err
			}
			excess--
		}
		return nil
	})
}

// LastPass returns the most recent summary, or nil when none is recorded
func (s *BoltStore) LastPass() (*types.PassSummary, error) {
	passes, err := s.ListPasses(1)
	if err != nil || len(passes) == 0 {
		return nil, err
	}
	return passes[0], nil
}

// ListPasses returns up to limit summaries, newest first. limit <= 0
// returns all of them.
func (s *BoltStore) ListPasses(limit int) ([]*types.PassSummary, error) {
	var passes []*types.PassSummary
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPasses)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(passes) >= limit {
				break
			}
			var summary types.PassSummary
			if err := json.Unmarshal(v, &summary); err != nil {
				return err
			}
			passes = append(passes, &summary)
		}
		return nil
	})
	return passes, err
}
