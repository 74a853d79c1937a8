// Package codec implements the metadata record's binary serialization.
// The record is tiny and sits on the hot path of every mutation, so the
// encoding is MessagePack via vmihailenco/msgpack rather than JSON.
package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Metadata is the three-field per-key lifecycle record.
// ExpiresAt is nil when the key is persistent.
type Metadata struct {
	Freq      uint64  `msgpack:"freq"`
	CreatedAt uint64  `msgpack:"created_at"`
	ExpiresAt *uint64 `msgpack:"expires_at,omitempty"`
}

// Encode serializes a Metadata record. It is pure and stateless; encoding
// this struct cannot practically fail, but the error return is kept so
// callers have one uniform failure path if the record shape ever grows a
// field msgpack can't handle.
func Encode(m Metadata) ([]byte, error) {
	b, err := msgpack.Marshal(&m)
	if err != nil {
		return nil, fmt.Errorf("codec: encode metadata: %w", err)
	}
	return b, nil
}

// Decode deserializes a Metadata record previously produced by Encode.
// A malformed buffer (truncated, or written by an incompatible encoding)
// is reported as a decode failure rather than panicking.
func Decode(b []byte) (Metadata, error) {
	var m Metadata
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return Metadata{}, fmt.Errorf("codec: decode metadata: %w", err)
	}
	return m, nil
}
