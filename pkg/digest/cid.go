package digest

import (
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CID returns the CIDv1 form of d: raw multicodec over a keccak-256
// multihash. The digest is wrapped as-is, not rehashed.
func (d Digest) CID() (cid.Cid, error) {
	mh, err := multihash.Encode(d[:], multihash.KECCAK_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, multihash.Multihash(mh)), nil
}

// CIDString is CID rendered in its default multibase, or "" on failure.
func (d Digest) CIDString() string {
	c, err := d.CID()
	if err != nil {
		return ""
	}
	return c.String()
}

// FromCID extracts the digest carried by a keccak-256 CID of any version.
func FromCID(c cid.Cid) (Digest, error) {
	var d Digest
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if decoded.Code != multihash.KECCAK_256 {
		return d, fmt.Errorf("%w: multihash code 0x%x is not keccak-256", ErrMalformed, decoded.Code)
	}
	return FromBytes(decoded.Digest)
}

// ParseAny accepts either the hex form understood by Parse or a CID string.
func ParseAny(s string) (Digest, error) {
	s = strings.TrimSpace(s)
	if d, err := Parse(s); err == nil {
		return d, nil
	}
	c, err := cid.Decode(s)
	if err != nil {
		return Digest{}, fmt.Errorf("%w: neither hex nor CID", ErrMalformed)
	}
	return FromCID(c)
}
