package model

import (
	"errors"
	"time"

	"github.com/jmerrifield20/anchorledger/pkg/digest"
)

// Errors returned by the anchor service. All of them are caller-correctable:
// retrying with the same arguments fails identically.
var (
	ErrInvalidHash      = errors.New("invalid hash")
	ErrAlreadyAnchored  = errors.New("already anchored")
	ErrNotAnchored      = errors.New("not anchored")
	ErrInvalidSubmitter = errors.New("invalid submitter")
)

// AnchorState is the per-digest lifecycle state. There is no transition out
// of AnchorStateAnchored.
type AnchorState string

const (
	AnchorStateUnanchored AnchorState = "unanchored"
	AnchorStateAnchored   AnchorState = "anchored"
)

// Record is the immutable proof that Hash was anchored by Submitter.
// It is created once, on the first successful anchor call for Hash.
type Record struct {
	Hash       digest.Digest `json:"hash"        db:"hash"`
	Submitter  string        `json:"submitter"   db:"submitter"`
	Ordinal    uint64        `json:"ordinal"     db:"ordinal"`     // position of the creating call in the global write order
	ObservedAt time.Time     `json:"observed_at" db:"observed_at"`
}

// ItemStatus is the per-entry outcome of a batch anchor call.
type ItemStatus string

const (
	ItemAnchored         ItemStatus = "anchored"
	ItemSkippedInvalid   ItemStatus = "skipped_invalid"
	ItemSkippedDuplicate ItemStatus = "skipped_duplicate"
)

// BatchItem reports what happened to one entry of a batch.
type BatchItem struct {
	Hash   digest.Digest `json:"hash"`
	Status ItemStatus    `json:"status"`
}

// BatchResult is returned by a batch anchor call. Items is in input order.
type BatchResult struct {
	Ordinal    uint64      `json:"ordinal"`
	ObservedAt time.Time   `json:"observed_at"`
	Items      []BatchItem `json:"items"`
}

// Anchored returns the digests that were newly anchored, in order.
func (b *BatchResult) Anchored() []digest.Digest {
	var out []digest.Digest
	for _, it := range b.Items {
		if it.Status == ItemAnchored {
			out = append(out, it.Hash)
		}
	}
	return out
}

// Count returns how many items ended with status s.
func (b *BatchResult) Count(s ItemStatus) int {
	n := 0
	for _, it := range b.Items {
		if it.Status == s {
			n++
		}
	}
	return n
}

// Stats summarises the registry.
type Stats struct {
	Records     int    `json:"records"`
	LastOrdinal uint64 `json:"last_ordinal"`
}

// Verification is the outcome of checking an inclusion proof together with a
// registry lookup of its root. The two answers are independent: a proof can
// be valid for a root nobody anchored.
type Verification struct {
	Valid        bool    `json:"valid"`
	RootAnchored bool    `json:"root_anchored"`
	RootRecord   *Record `json:"root_record,omitempty"`
}
