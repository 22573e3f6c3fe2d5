// Package eviction decides which key to drop when the cache is full.
package eviction

/*
Policy is the interface every eviction strategy must satisfy. The cache
does not care how a strategy works internally; it only reports access
events and asks for a victim when a shard runs out of space.
*/
type Policy interface {

	// OnGet is called whenever a key is read. Recency- and
	// frequency-based strategies care about this; FIFO ignores it.
	OnGet(string)

	// OnPut is called whenever a key is stored.
	OnPut(string)

	// Remove is called when a key is removed for any reason other than
	// eviction (TTL expiry, invalidation, explicit delete), so the
	// policy can drop its bookkeeping for that key.
	Remove(string)

	// Evict returns the key that should be removed to make space, or
	// "" when the policy tracks nothing.
	Evict() string
}

// PolicyType identifies a supported eviction strategy.
type PolicyType string

const (
	// LRU evicts the key that has gone unread for the longest time.
	// This is the default: query caches are recency-dominated.
	LRU PolicyType = "LRU"

	// LFU evicts the key with the fewest reads. Works well when a
	// stable hot set coexists with rarely-read keys.
	LFU PolicyType = "LFU"

	// FIFO evicts the oldest inserted key regardless of access.
	FIFO PolicyType = "FIFO"
)

// New creates the eviction policy for the given type.
func New(t PolicyType) Policy {
	switch t {
	case LRU:
		return newLRU()
	case LFU:
		return newLFU()
	case FIFO:
		return newFIFO()
	default:
		panic("eviction: unknown policy " + string(t))
	}
}
