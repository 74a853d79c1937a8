package transientdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/FabioCanavarro/transientdb/internal/codec"
	"github.com/FabioCanavarro/transientdb/internal/keys"
)

// Set writes key/value and, if ttl is non-nil, schedules expiration at
// now + *ttl; a nil ttl clears any existing expiration. freq and
// created_at are preserved across updates to an existing key.
//
// The write runs inside one Badger transaction, so a crash or a concurrent
// reaper scan in the middle of it is impossible to observe: either all
// three partitions reflect the new state, or none do.
func (s *Store) Set(key string, value []byte, ttl *time.Duration) error {
	keyBytes := []byte(key)

	var expiresAt *uint64
	if ttl != nil {
		t := uint64(time.Now().Add(*ttl).Unix())
		expiresAt = &t
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		metaKey := keys.Meta(keyBytes)
		record := codec.Metadata{
			CreatedAt: uint64(time.Now().Unix()),
			ExpiresAt: expiresAt,
		}

		item, err := txn.Get(metaKey)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// Fresh key: freq=0, created_at=now. No prior ttl entry can
			// exist for it.
		case err != nil:
			return fmt.Errorf("read existing metadata: %w", err)
		default:
			existingBytes, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("copy existing metadata: %w", err)
			}
			existing, err := codec.Decode(existingBytes)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
			}

			// Preserve freq and created_at; only expires_at changes.
			record.Freq = existing.Freq
			record.CreatedAt = existing.CreatedAt

			if existing.ExpiresAt != nil {
				oldTTLKey := keys.TTL(*existing.ExpiresAt, keyBytes)
				if delErr := txn.Delete(oldTTLKey); delErr != nil && !errors.Is(delErr, badger.ErrKeyNotFound) {
					return fmt.Errorf("remove stale ttl entry: %w", delErr)
				}
			}
		}

		encoded, err := codec.Encode(record)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEncodeFailure, err)
		}
		if err := txn.Set(metaKey, encoded); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}

		if err := txn.Set(keys.Data(keyBytes), value); err != nil {
			return fmt.Errorf("write value: %w", err)
		}

		if expiresAt != nil {
			if err := txn.Set(keys.TTL(*expiresAt, keyBytes), keyBytes); err != nil {
				return fmt.Errorf("write ttl entry: %w", err)
			}
		}

		return nil
	})

	return wrapTxnError(err)
}

// Remove deletes key from all three partitions. It errors with
// ErrKeyNotFound if key does not exist; this asymmetry with Set's
// idempotent-over-existence behavior is intentional.
func (s *Store) Remove(key string) error {
	keyBytes := []byte(key)

	err := s.db.Update(func(txn *badger.Txn) error {
		return deleteKeyTxn(txn, keyBytes)
	})

	return wrapTxnError(err)
}

// deleteKeyTxn removes key from all three partitions inside an
// already-open transaction. It returns ErrKeyNotFound if meta has no
// entry for key, matching the Remove contract. The reaper does not use
// it: its own deleteExpired (reaper.go) deletes all three entries
// unconditionally and treats an already-missing key as success.
func deleteKeyTxn(txn *badger.Txn, keyBytes []byte) error {
	metaKey := keys.Meta(keyBytes)

	item, err := txn.Get(metaKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}

	existingBytes, err := item.ValueCopy(nil)
	if err != nil {
		return fmt.Errorf("copy metadata: %w", err)
	}
	existing, err := codec.Decode(existingBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	if err := txn.Delete(keys.Data(keyBytes)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete value: %w", err)
	}
	if err := txn.Delete(metaKey); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	if existing.ExpiresAt != nil {
		ttlKey := keys.TTL(*existing.ExpiresAt, keyBytes)
		if err := txn.Delete(ttlKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete ttl entry: %w", err)
		}
	}

	return nil
}

// IncrementFrequency bumps a key's access-frequency counter via a
// lock-free compare-and-swap retry loop. It touches only the meta
// partition: data and ttl are untouched, and created_at/expires_at are
// preserved exactly.
//
// Badger's own optimistic concurrency control is the CAS primitive: a
// transaction that read meta[key] and then wrote it back fails to commit
// with ErrConflict if another writer touched the same key in between,
// which is indistinguishable from a failed compare-and-swap. The loop
// below retries on that signal.
func (s *Store) IncrementFrequency(key string) error {
	keyBytes := []byte(key)
	metaKey := keys.Meta(keyBytes)

	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(metaKey)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			if err != nil {
				return fmt.Errorf("read metadata: %w", err)
			}

			existingBytes, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("copy metadata: %w", err)
			}
			existing, err := codec.Decode(existingBytes)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
			}

			existing.Freq++

			encoded, err := codec.Encode(existing)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrEncodeFailure, err)
			}
			return txn.Set(metaKey, encoded)
		})

		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return wrapTxnError(err)
	}
}

// wrapTxnError normalizes storage-engine errors to the package's sentinel
// errors, leaving errors we already wrapped (ErrKeyNotFound,
// ErrEncodeFailure, ErrDecodeFailure) untouched.
func wrapTxnError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrDBClosed):
		return fmt.Errorf("%w: %v", ErrClosed, err)
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
	case errors.Is(err, ErrKeyNotFound),
		errors.Is(err, ErrEncodeFailure),
		errors.Is(err, ErrDecodeFailure):
		return err
	default:
		return err
	}
}
