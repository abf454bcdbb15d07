// Package index keeps an in-memory, off-registry view of recently anchored
// digests, built purely from Anchored notifications. It may lag the registry
// and is not authoritative: use the anchor service for lookups that matter.
package index

import (
	"context"
	"sync"

	"github.com/jmerrifield20/anchorledger/internal/notify"
)

// Entry is one indexed notification.
type Entry = notify.Event

// Index retains the most recent events up to a fixed capacity.
type Index struct {
	mu          sync.RWMutex
	ring        []Entry
	next        int // ring write position
	total       int
	bySubmitter map[string]int
}

// New creates an Index retaining at most capacity entries.
func New(capacity int) *Index {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Index{
		ring:        make([]Entry, 0, capacity),
		bySubmitter: make(map[string]int),
	}
}

// Name implements notify.Sink.
func (x *Index) Name() string { return "index" }

// Handle implements notify.Sink.
func (x *Index) Handle(_ context.Context, ev notify.Event) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.ring) < cap(x.ring) {
		x.ring = append(x.ring, ev)
	} else {
		x.ring[x.next] = ev
	}
	x.next = (x.next + 1) % cap(x.ring)
	x.total++
	x.bySubmitter[ev.Submitter]++
}

// Count returns the number of events ever indexed.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.total
}

// CountBySubmitter returns how many events named submitter.
func (x *Index) CountBySubmitter(submitter string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.bySubmitter[submitter]
}

// Recent returns up to n retained entries, newest first.
func (x *Index) Recent(n int) []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	size := len(x.ring)
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, x.ring[(x.next-i+size)%size])
	}
	return out
}
