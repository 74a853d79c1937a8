package transientdb

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// defaultPollInterval is the reaper's time between ttl-partition scans.
// This bounds the worst-case lag between a key's nominal expiration and
// its actual deletion.
const defaultPollInterval = 100 * time.Millisecond

// Config holds the tunable knobs for a Store: a small flat struct rather
// than a builder, because the surface here is a handful of fields.
type Config struct {
	// PollInterval overrides the reaper's scan cadence. Zero selects
	// defaultPollInterval.
	PollInterval time.Duration

	// InMemory opens Badger in in-memory mode (no files on disk), useful
	// for tests. Path is still required by Open but is ignored when set.
	InMemory bool

	// Logger receives structured log lines from the store and the reaper,
	// and Badger's own warnings/errors routed through badgerLogger.
	// Defaults to log.Default().
	Logger *log.Logger
}

// Option mutates a Config during Open.
type Option func(*Config)

// WithPollInterval overrides the reaper's poll cadence. Intended for tests
// that don't want to wait 100ms per scan.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) { c.PollInterval = d }
}

// WithInMemory opens the store without touching the filesystem.
func WithInMemory() Option {
	return func(c *Config) { c.InMemory = true }
}

// WithLogger sets the logger used by the store and its reaper.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Store is the lifecycle-aware key-value store handle. It owns the
// storage engine and the expiration reaper's goroutine. The zero value is
// not usable; construct with Open.
type Store struct {
	db     *badger.DB
	logger *log.Logger
	reaper *reaper

	closeOnce sync.Once
	closeErr  error
}

// Open opens (creating if necessary) a store at path and starts its
// expiration reaper. The returned Store must be closed with Close to
// release the underlying files and join the reaper goroutine.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := Config{PollInterval: defaultPollInterval, Logger: log.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	bopts := badger.DefaultOptions(path)
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithLogger(newBadgerLogger(cfg.Logger))

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("transientdb: open storage engine at %q: %w", path, err)
	}

	s := &Store{
		db:     db,
		logger: cfg.Logger,
	}
	s.reaper = newReaper(db, cfg.Logger, cfg.PollInterval)
	s.reaper.start()

	return s, nil
}

// Close signals the reaper to stop, joins it, surfaces any error it exited
// with, and only then releases the storage engine's handles. Failure to
// join the reaper does not prevent the engine from being closed.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		reaperErr := s.reaper.stopAndWait()
		dbErr := s.db.Close()

		switch {
		case reaperErr != nil && dbErr != nil:
			s.closeErr = fmt.Errorf("transientdb: reaper exited with error (%v), and closing storage engine failed: %w", reaperErr, dbErr)
		case reaperErr != nil:
			s.closeErr = fmt.Errorf("transientdb: reaper exited with error: %w", reaperErr)
		case dbErr != nil:
			s.closeErr = fmt.Errorf("transientdb: closing storage engine: %w", dbErr)
		}

		if s.closeErr != nil {
			s.logger.Printf("transientdb: Close completed with error: %v", s.closeErr)
		}
	})
	return s.closeErr
}
