/*
Package shard holds the storage units of the cache.

Instead of one big map behind one big lock, the cache is split into
independent shards. Each shard owns a slice of the key space, its own
eviction policy instance, and its own write lock, which keeps
contention low under concurrent request handling.
*/
package shard

import (
	"sync"

	"github.com/croesus-labs/querycache/eviction"
)

// Shard is one independent storage unit.
type Shard struct {

	// Store holds this shard's key → entry data. Reads are lock-free
	// (copy-on-write snapshots); see Store.
	Store Store

	// Eviction decides which key to drop when this shard is full. Each
	// shard has its own instance so there is no cross-shard state.
	Eviction eviction.Policy

	// Mu guards writes: entry inserts, deletes, and eviction
	// bookkeeping. Reads never take it.
	Mu sync.Mutex
}

// New creates a shard with the given eviction policy.
func New(ev eviction.Policy) *Shard {
	return &Shard{
		Store:    NewCOWStore(),
		Eviction: ev,
	}
}
