package transientdb

import "errors"

// Sentinel errors: callers compare against these directly rather than
// type-switching on a custom error type. Each is wrapped with context via
// fmt.Errorf("...: %w", ...) at the call site, never returned bare except
// where the operation has nothing more specific to add.
var (
	// ErrKeyNotFound is returned by Remove and IncrementFrequency when the
	// key does not exist in meta. Get and GetMetadata instead return a
	// false "found" flag, since absence is part of their normal result
	// shape.
	ErrKeyNotFound = errors.New("transientdb: key not found")

	// ErrTransactionAborted wraps a storage engine transaction conflict.
	// Set and Remove do not retry internally; callers may retry.
	ErrTransactionAborted = errors.New("transientdb: transaction aborted")

	// ErrEncodeFailure and ErrDecodeFailure surface metadata codec errors.
	ErrEncodeFailure = errors.New("transientdb: metadata encode failed")
	ErrDecodeFailure = errors.New("transientdb: metadata decode failed")

	// ErrCorruption marks a ttl-partition key whose 8-byte expiration
	// prefix could not be parsed. Fatal for the reaper.
	ErrCorruption = errors.New("transientdb: ttl index corruption")

	// ErrNotUTF8 is returned by Get when the stored value is not valid
	// UTF-8. The value itself is left untouched on disk.
	ErrNotUTF8 = errors.New("transientdb: stored value is not valid utf-8")

	// ErrClosed is returned by any operation invoked after Close.
	ErrClosed = errors.New("transientdb: store is closed")
)
