package repository

import (
	"context"

	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
)

// Store is the authoritative append-only mapping from digest to anchor record.
// MemoryStore and PostgresStore implement it.
//
// All mutation goes through Write, which runs its callback inside the store's
// single-writer section: no other write can interleave with it. Every
// successful Insert is durable even if the callback later fails; Write then
// returns the callback's error. The call's ordinal is consumed when the
// callback succeeds or when at least one Insert went through.
type Store interface {
	// Get returns the record for hash or model.ErrNotAnchored.
	Get(ctx context.Context, hash digest.Digest) (*model.Record, error)

	// Stats returns the record count and the last committed ordinal.
	Stats(ctx context.Context) (model.Stats, error)

	// Write runs fn under the exclusive writer section.
	Write(ctx context.Context, fn func(ctx context.Context, w Writer) error) error
}

// Writer is the view of the store handed to a Write callback.
type Writer interface {
	// Ordinal is the ordinal assigned to the current write call.
	Ordinal() uint64

	// Exists reports whether hash is anchored, including inserts made
	// earlier in the same call.
	Exists(ctx context.Context, hash digest.Digest) (bool, error)

	// Insert anchors rec. A failed Insert leaves the store unchanged.
	// Inserting an existing hash fails with model.ErrAlreadyAnchored.
	Insert(ctx context.Context, rec *model.Record) error
}
