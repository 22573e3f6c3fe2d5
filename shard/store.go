package shard

import (
	"sync/atomic"

	"github.com/croesus-labs/querycache/types"
)

// Store is the entry map inside a shard.
type Store interface {

	// Get retrieves an entry by key. Expiry is not checked here; that
	// is the cache's job.
	Get(string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry.
	Put(string, *types.CacheEntry)

	// Delete removes an entry.
	Delete(string)

	// Size returns how many entries are stored.
	Size() int64

	// Snapshot returns the current entry map. The returned map is an
	// immutable snapshot and must not be mutated; it is used by the
	// sweeper to find expired entries without holding any lock.
	Snapshot() map[string]*types.CacheEntry
}

/*
cowStore is a copy-on-write Store.

Readers always see an immutable snapshot loaded atomically; writers
build a new map and swap it in. Reads on the request path therefore
take no lock at all, at the cost of O(n) writes — the right trade for
a read-heavy query cache.
*/
type cowStore struct {
	data atomic.Value // map[string]*types.CacheEntry
	size atomic.Int64
}

// NewCOWStore creates an empty copy-on-write store.
func NewCOWStore() Store {
	s := &cowStore{}
	s.data.Store(make(map[string]*types.CacheEntry))
	return s
}

func (s *cowStore) Get(key string) (*types.CacheEntry, bool) {
	m := s.data.Load().(map[string]*types.CacheEntry)
	ent, ok := m[key]
	return ent, ok
}

// Put replaces the map wholesale: copy existing entries into a new map,
// add the entry, swap atomically. Callers serialize writes with the
// shard mutex; the atomic swap is what keeps concurrent readers safe.
func (s *cowStore) Put(key string, ent *types.CacheEntry) {
	old := s.data.Load().(map[string]*types.CacheEntry)

	n := make(map[string]*types.CacheEntry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent

	s.data.Store(n)
	s.size.Store(int64(len(n)))
}

func (s *cowStore) Delete(key string) {
	old := s.data.Load().(map[string]*types.CacheEntry)
	if _, ok := old[key]; !ok {
		return
	}

	n := make(map[string]*types.CacheEntry, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}

	s.data.Store(n)
	s.size.Store(int64(len(n)))
}

func (s *cowStore) Size() int64 {
	return s.size.Load()
}

func (s *cowStore) Snapshot() map[string]*types.CacheEntry {
	return s.data.Load().(map[string]*types.CacheEntry)
}
