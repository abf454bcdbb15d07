package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
)

// MemoryStore is an in-memory, thread-safe Store.
// It is useful for tests and for single-process deployments that do not need
// the registry to survive a restart.
type MemoryStore struct {
	writeMu sync.Mutex // serialises Write calls

	mu          sync.RWMutex // guards records and lastOrdinal
	records     map[digest.Digest]*model.Record
	lastOrdinal uint64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[digest.Digest]*model.Record)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, hash digest.Digest) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[hash]
	if !ok {
		return nil, model.ErrNotAnchored
	}
	cp := *rec
	return &cp, nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(_ context.Context) (model.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Stats{Records: len(s.records), LastOrdinal: s.lastOrdinal}, nil
}

// Write implements Store. Each Insert is applied to the map as it happens,
// so records inserted before fn fails stay anchored.
func (s *MemoryStore) Write(ctx context.Context, fn func(ctx context.Context, w Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.lastOrdinal + 1
	s.mu.RUnlock()

	w := &memoryWriter{store: s, ordinal: next}
	err := fn(ctx, w)
	if err != nil && w.inserted == 0 {
		return err
	}

	s.mu.Lock()
	s.lastOrdinal = next
	s.mu.Unlock()
	return err
}

type memoryWriter struct {
	store    *MemoryStore
	ordinal  uint64
	inserted int
}

func (w *memoryWriter) Ordinal() uint64 { return w.ordinal }

func (w *memoryWriter) Exists(_ context.Context, hash digest.Digest) (bool, error) {
	w.store.mu.RLock()
	defer w.store.mu.RUnlock()
	_, ok := w.store.records[hash]
	return ok, nil
}

func (w *memoryWriter) Insert(_ context.Context, rec *model.Record) error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	if _, ok := w.store.records[rec.Hash]; ok {
		return fmt.Errorf("insert %s: %w", rec.Hash, model.ErrAlreadyAnchored)
	}
	cp := *rec
	w.store.records[rec.Hash] = &cp
	w.inserted++
	return nil
}
