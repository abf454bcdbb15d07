package client

import (
	"sync"
	"time"

	"github.com/jmerrifield20/anchorledger/pkg/digest"
)

type cacheEntry struct {
	record    *Record
	expiresAt time.Time
}

// recordCache holds positive GetAnchor results. Misses are never cached: a
// digest that is not anchored now may be anchored a moment later.
type recordCache struct {
	mu      sync.RWMutex
	entries map[digest.Digest]*cacheEntry
	ttl     time.Duration
}

func newRecordCache(ttl time.Duration) *recordCache {
	return &recordCache{entries: make(map[digest.Digest]*cacheEntry), ttl: ttl}
}

func (rc *recordCache) get(key digest.Digest) (*Record, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	e, ok := rc.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	cp := *e.record
	return &cp, true
}

func (rc *recordCache) set(key digest.Digest, rec *Record) {
	cp := *rec
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries[key] = &cacheEntry{record: &cp, expiresAt: time.Now().Add(rc.ttl)}
}
