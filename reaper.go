package transientdb

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/FabioCanavarro/transientdb/internal/keys"
)

// reaper is a single background goroutine that polls the ttl partition in
// ascending expiration order and deletes due entries from all three
// partitions. Its state machine is {Running, ShuttingDown, Exited(ok|err)}:
// Running -> ShuttingDown when the shutdown flag is observed at a poll
// boundary, ShuttingDown -> Exited(ok) immediately, Running -> Exited(err)
// on any unrecovered failure.
//
// It collects due entries in a View transaction, then deletes each one in
// its own Update transaction so a failure on one entry can't corrupt the
// scan.
type reaper struct {
	db           *badger.DB
	logger       *log.Logger
	pollInterval time.Duration
	id           string

	stopCh chan struct{}
	wg     sync.WaitGroup
	err    error
}

type dueEntry struct {
	ttlKey  []byte
	userKey []byte
}

func newReaper(db *badger.DB, logger *log.Logger, pollInterval time.Duration) *reaper {
	return &reaper{
		db:           db,
		logger:       logger,
		pollInterval: pollInterval,
		id:           uuid.NewString()[:8],
		stopCh:       make(chan struct{}),
	}
}

// start launches the reaper's background goroutine. Entering Running.
func (r *reaper) start() {
	r.wg.Add(1)
	go r.run()
}

// stopAndWait implements the Running/ShuttingDown -> Exited transition from
// the caller's side: it sets the shutdown flag and blocks until the
// goroutine has observed it (or already exited on its own with an error)
// and returns whatever error the reaper exited with, if any.
func (r *reaper) stopAndWait() error {
	close(r.stopCh)
	r.wg.Wait()
	return r.err
}

func (r *reaper) run() {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		if err := r.scanOnce(); err != nil {
			r.err = fmt.Errorf("reaper %s: %w", r.id, err)
			r.logger.Printf("transientdb: reaper %s exiting after fatal error: %v", r.id, err)
			return
		}

		select {
		case <-r.stopCh:
			return
		case <-time.After(r.pollInterval):
		}
	}
}

// scanOnce collects every due entry in ascending expiration order (breaking
// at the first not-yet-due entry, since the partition is ordered), then
// deletes each one from all three partitions.
func (r *reaper) scanOnce() error {
	due, err := r.collectDue()
	if err != nil {
		return err
	}

	for _, e := range due {
		if err := r.deleteExpired(e); err != nil {
			return fmt.Errorf("delete expired key: %w", err)
		}
	}

	if len(due) > 0 {
		r.logger.Printf("transientdb: reaper %s reaped %d expired key(s)", r.id, len(due))
	}
	return nil
}

func (r *reaper) collectDue() ([]dueEntry, error) {
	var due []dueEntry
	now := uint64(time.Now().Unix())
	prefix := keys.TTLScanPrefix()

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			ttlKey := item.KeyCopy(nil)

			expiresAt, _, perr := keys.ParseTTL(ttlKey)
			if perr != nil {
				return fmt.Errorf("%w: %v", ErrCorruption, perr)
			}
			if expiresAt > now {
				// ttl is ordered by be_u64(expires_at): nothing after
				// this point can be due yet.
				break
			}

			userKey, verr := item.ValueCopy(nil)
			if verr != nil {
				return fmt.Errorf("read ttl entry: %w", verr)
			}
			due = append(due, dueEntry{ttlKey: ttlKey, userKey: userKey})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return due, nil
}

// deleteExpired performs the atomic 3-partition delete for one due entry.
// Absence of any of the three keys is treated as benign: a concurrent user
// Remove may have already won the race, and the reaper must not fail
// because of it.
func (r *reaper) deleteExpired(e dueEntry) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(keys.Data(e.userKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete value: %w", err)
		}
		if err := txn.Delete(keys.Meta(e.userKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete metadata: %w", err)
		}
		if err := txn.Delete(e.ttlKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete ttl entry: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return nil
}
