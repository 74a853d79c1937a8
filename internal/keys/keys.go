// Package keys defines the three-partition key layout shared by the data,
// meta, and ttl indexes, and the fixed encoding of the ttl secondary index.
//
// A single Badger keyspace stands in for three named partitions: each
// partition is a one-byte prefix, so a normal Badger transaction spanning
// keys from more than one prefix is already an atomic multi-partition
// write. See DESIGN.md for the grounding of this choice.
package keys

import (
	"encoding/binary"
	"fmt"
)

// Partition prefixes. Kept single-byte so the cost of namespacing is
// negligible next to the key itself.
const (
	prefixData byte = 'd'
	prefixMeta byte = 'm'
	prefixTTL  byte = 't'
)

// ttlPrefixLen is len(prefixTTL) + len(be_u64).
const ttlPrefixLen = 1 + 8

// Data returns the data-partition key for a user key.
func Data(userKey []byte) []byte {
	return prefixed(prefixData, userKey)
}

// Meta returns the meta-partition key for a user key.
func Meta(userKey []byte) []byte {
	return prefixed(prefixMeta, userKey)
}

// TTL returns the ttl-partition key: prefix || be_u64(expiresAt) || userKey.
// The fixed-width big-endian prefix makes ascending iteration over the
// partition equivalent to ascending expiration order.
func TTL(expiresAt uint64, userKey []byte) []byte {
	out := make([]byte, ttlPrefixLen+len(userKey))
	out[0] = prefixTTL
	binary.BigEndian.PutUint64(out[1:ttlPrefixLen], expiresAt)
	copy(out[ttlPrefixLen:], userKey)
	return out
}

// TTLScanPrefix returns the prefix that bounds a full scan of the ttl
// partition, for use with an iterator's Seek/ValidForPrefix.
func TTLScanPrefix() []byte {
	return []byte{prefixTTL}
}

// ParseTTL splits a ttl-partition key back into its expiration time and
// user key. It returns an error if the key is shorter than the fixed
// prefix, which the reaper treats as fatal corruption.
func ParseTTL(ttlKey []byte) (expiresAt uint64, userKey []byte, err error) {
	if len(ttlKey) < ttlPrefixLen {
		return 0, nil, fmt.Errorf("ttl key too short to contain an 8-byte expiration prefix: got %d bytes", len(ttlKey))
	}
	if ttlKey[0] != prefixTTL {
		return 0, nil, fmt.Errorf("ttl key missing ttl partition prefix")
	}
	expiresAt = binary.BigEndian.Uint64(ttlKey[1:ttlPrefixLen])
	userKey = ttlKey[ttlPrefixLen:]
	return expiresAt, userKey, nil
}

func prefixed(prefix byte, userKey []byte) []byte {
	out := make([]byte, 1+len(userKey))
	out[0] = prefix
	copy(out[1:], userKey)
	return out
}
