package transientdb

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dgraph-io/badger/v4"

	"github.com/FabioCanavarro/transientdb/internal/codec"
	"github.com/FabioCanavarro/transientdb/internal/keys"
)

// Get retrieves the string value stored under key. The bool result
// reports whether key was present; it is false both when the key was
// never set and when it has since expired and been reaped.
//
// If the stored bytes are not valid UTF-8, Get returns ErrNotUTF8; the
// value itself is untouched on disk.
func (s *Store) Get(key string) (string, bool, error) {
	value, found, err := s.GetBytes(key)
	if err != nil || !found {
		return "", found, err
	}
	if !utf8.Valid(value) {
		return "", true, ErrNotUTF8
	}
	return string(value), true, nil
}

// GetBytes retrieves the raw bytes stored under key, with no UTF-8
// validation. Useful for callers storing arbitrary binary payloads.
func (s *Store) GetBytes(key string) ([]byte, bool, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keys.Data([]byte(key)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read value: %w", err)
		}
		value, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copy value: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, wrapReadError(err)
	}
	if value == nil {
		return nil, false, nil
	}
	return value, true, nil
}

// Metadata is the public view of a key's lifecycle record, with
// epoch-seconds fields widened to time.Time for caller convenience.
type Metadata struct {
	Freq      uint64
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// GetMetadata returns the metadata record for key, or found=false if key
// does not exist in meta.
func (s *Store) GetMetadata(key string) (Metadata, bool, error) {
	var record codec.Metadata
	var found bool

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keys.Meta([]byte(key)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read metadata: %w", err)
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copy metadata: %w", err)
		}
		record, err = codec.Decode(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return Metadata{}, false, wrapReadError(err)
	}
	if !found {
		return Metadata{}, false, nil
	}

	m := Metadata{
		Freq:      record.Freq,
		CreatedAt: time.Unix(int64(record.CreatedAt), 0).UTC(),
	}
	if record.ExpiresAt != nil {
		t := time.Unix(int64(*record.ExpiresAt), 0).UTC()
		m.ExpiresAt = &t
	}
	return m, true, nil
}

// wrapReadError normalizes a closed storage engine to ErrClosed, leaving
// anything already wrapped (ErrDecodeFailure) untouched.
func wrapReadError(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}
