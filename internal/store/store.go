// Package store holds the in-memory committed key/value map and its
// snapshot persistence. The store has no knowledge of the WAL or of
// transactions: it is mutated only by application of an already-
// committed write-set.
package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/ledgerdb/ledgerdb/internal/codec"
	"github.com/ledgerdb/ledgerdb/internal/frame"
	"github.com/ledgerdb/ledgerdb/internal/ioutil"
)

// ErrNotFound is returned by LoadSnapshot when the snapshot file does
// not exist -- a recoverable condition: start with an empty map.
var ErrNotFound = errors.New("store: snapshot not found")

// ErrCorrupt is returned by LoadSnapshot when the snapshot file exists
// but its single frame fails checksum or structural decoding -- fatal
// by default, per spec.md's startup propagation policy.
var ErrCorrupt = errors.New("store: snapshot corrupt")

// Store is the committed key/value map. It is not safe for concurrent
// use; ledgerdb is single-writer by design (spec.md §5).
type Store struct {
	values   map[string]string
	compress bool
}

// New returns an empty store. compress controls whether TakeSnapshot
// snappy-compresses the serialized map.
func New(compress bool) *Store {
	return &Store{values: make(map[string]string), compress: compress}
}

// Get returns the committed value for k, if any.
func (s *Store) Get(k string) (string, bool) {
	v, ok := s.values[k]
	return v, ok
}

// Len reports how many keys are currently committed -- used by tests and
// log messages, not part of the durability contract.
func (s *Store) Len() int {
	return len(s.values)
}

// ApplyWriteSet folds a transaction's write-set into the committed map:
// a Some(v) entry upserts, a None entry removes. This is the only
// mutation path into the store.
func (s *Store) ApplyWriteSet(ws map[string]*string) {
	for k, v := range ws {
		if v == nil {
			delete(s.values, k)
		} else {
			s.values[k] = *v
		}
	}
}

// TakeSnapshot serializes the current committed map, frames it, and
// writes-and-syncs the frame to path, truncating any prior contents --
// never appending, so a smaller snapshot never leaves stale tail bytes
// from the previous one (spec.md §9's called-out implementation bug).
func (s *Store) TakeSnapshot(path string) error {
	payload := codec.EncodeSnapshot(s.values, s.compress)
	encoded := frame.Encode(payload)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("store: open snapshot for write: %w", err)
	}
	defer f.Close()

	if err := ioutil.WriteAndSync(f, encoded); err != nil {
		return fmt.Errorf("store: write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot opens the snapshot file at path, decodes its single
// frame, and replaces the store's committed map with its contents. It
// returns ErrNotFound if path does not exist, or ErrCorrupt wrapping the
// underlying frame/codec error if the single frame fails to decode.
func (s *Store) LoadSnapshot(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("store: open snapshot for read: %w", err)
	}
	defer f.Close()

	payload, _, err := frame.ReadFrame(f, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	values, err := codec.DecodeSnapshot(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	s.values = values
	return nil
}
