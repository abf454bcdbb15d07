// Package digest defines the 32-byte hash value used as both anchor key and
// Merkle tree node, together with the canonical pair combiner.
//
// The ledger hash function is Keccak-256 (the legacy, pre-NIST padding used by
// Ethereum tooling), so digests produced here match those produced by
// ethers.id / keccak256 on the same input.
//
// The all-zero digest is reserved: it means "absent" and is never a legal
// anchor key or Merkle leaf.
package digest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Size is the width of a Digest in bytes.
const Size = 32

// ErrMalformed is returned when a textual digest cannot be decoded.
var ErrMalformed = errors.New("malformed digest")

// Digest is a fixed-width Keccak-256 hash value.
type Digest [Size]byte

// Zero is the reserved all-zero sentinel.
var Zero Digest

// Sum returns the Keccak-256 digest of data.
func Sum(data []byte) Digest {
	h := sha3.NewLegacyKeccak256()
	h.Write(data) //nolint:errcheck
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// SumString hashes the UTF-8 bytes of s.
func SumString(s string) Digest {
	return Sum([]byte(s))
}

// Combine hashes the concatenation of a and b after ordering them by unsigned
// big-endian value, smaller first. Combine(a, b) == Combine(b, a).
func Combine(a, b Digest) Digest {
	h := sha3.NewLegacyKeccak256()
	if bytes.Compare(a[:], b[:]) <= 0 {
		h.Write(a[:]) //nolint:errcheck
		h.Write(b[:]) //nolint:errcheck
	} else {
		h.Write(b[:]) //nolint:errcheck
		h.Write(a[:]) //nolint:errcheck
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Parse decodes a 64-character hex string, with or without a 0x prefix.
func Parse(s string) (Digest, error) {
	var d Digest
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(raw) != Size*2 {
		return d, fmt.Errorf("%w: want %d hex characters, got %d", ErrMalformed, Size*2, len(raw))
	}
	if _, err := hex.Decode(d[:], []byte(raw)); err != nil {
		return d, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return d, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Digest {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromBytes copies a 32-byte slice into a Digest.
func FromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != Size {
		return d, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformed, Size, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// ParseAll decodes every element of ss, stopping at the first failure.
func ParseAll(ss []string) ([]Digest, error) {
	out := make([]Digest, 0, len(ss))
	for i, s := range ss {
		d, err := Parse(s)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// IsZero reports whether d is the reserved sentinel.
func (d Digest) IsZero() bool {
	return d == Zero
}

// Bytes returns a copy of the digest as a slice.
func (d Digest) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, d[:])
	return b
}

// Hex returns the 0x-prefixed lowercase hex form.
func (d Digest) Hex() string {
	return "0x" + hex.EncodeToString(d[:])
}

// String implements fmt.Stringer.
func (d Digest) String() string {
	return d.Hex()
}

// Short returns an abbreviated form for log lines.
func (d Digest) Short() string {
	s := hex.EncodeToString(d[:])
	return "0x" + s[:8] + "…" + s[len(s)-4:]
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// HexAll formats a slice of digests.
func HexAll(ds []Digest) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Hex()
	}
	return out
}
