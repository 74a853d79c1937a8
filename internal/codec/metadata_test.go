package codec

import (
	"bytes"
	"testing"
)

func u64(v uint64) *uint64 { return &v }

func TestRoundTrip(t *testing.T) {
	cases := []Metadata{
		{Freq: 0, CreatedAt: 0, ExpiresAt: nil},
		{Freq: 1000, CreatedAt: 1700000000, ExpiresAt: u64(1700003600)},
		{Freq: ^uint64(0), CreatedAt: ^uint64(0), ExpiresAt: u64(0)},
	}

	for _, want := range cases {
		b, err := Encode(want)
		if err != nil {
			t.Fatalf("Encode(%+v) failed: %v", want, err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got.Freq != want.Freq || got.CreatedAt != want.CreatedAt {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
		if (got.ExpiresAt == nil) != (want.ExpiresAt == nil) {
			t.Fatalf("ExpiresAt presence mismatch: got %v, want %v", got.ExpiresAt, want.ExpiresAt)
		}
		if got.ExpiresAt != nil && *got.ExpiresAt != *want.ExpiresAt {
			t.Fatalf("ExpiresAt value mismatch: got %d, want %d", *got.ExpiresAt, *want.ExpiresAt)
		}
	}
}

func TestDecodeMalformedBuffer(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff, 0xff})
	if err == nil {
		t.Fatalf("expected decode failure on malformed buffer")
	}
}

func TestExpiresAtAbsentOmitsField(t *testing.T) {
	b, err := Encode(Metadata{Freq: 1, CreatedAt: 2})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if bytes.Contains(b, []byte("expires_at")) {
		t.Fatalf("encoding of a record without ExpiresAt still names the expires_at field")
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.ExpiresAt != nil {
		t.Fatalf("ExpiresAt should round-trip as absent, got %v", *got.ExpiresAt)
	}
}
