/*
Package querycache is a read-through query cache with tag-based
invalidation and proactive warming.

The serving layer calls Query with a key, a tier name, and a loader;
results are cached under the tier's TTL and deduplicated so that any
number of concurrent misses for one key run the loader exactly once.
Write-path handlers never touch keys directly — they call the
invalidation façade (InvalidateArticles, InvalidateFirms, ...) which
purges every key under the affected tags. A Warmer re-runs the real
loaders for freshly published entities off the critical path, so the
first real reader never pays the cold-miss cost.
*/
package querycache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/croesus-labs/querycache/api"
	"github.com/croesus-labs/querycache/eviction"
	"github.com/croesus-labs/querycache/shard"
	"github.com/croesus-labs/querycache/tagindex"
	"github.com/croesus-labs/querycache/tier"
	"github.com/croesus-labs/querycache/types"
)

var _ api.QueryCache = (*Cache)(nil)

// Options configures a Cache. Zero fields fall back to the defaults.
type Options struct {

	// Shards is the number of independent storage units. More shards
	// mean less write contention.
	Shards int

	// Capacity is the maximum entry count across all shards. Zero
	// means unbounded: entries leave only by TTL or invalidation.
	Capacity int

	// Eviction picks the policy used when a shard is full.
	Eviction eviction.PolicyType

	// Tiers is the TTL class registry. Nil means tier.Defaults().
	Tiers *tier.Registry

	// SweepInterval enables the background sweeper when positive.
	// Lazy expiry on read applies either way.
	SweepInterval time.Duration

	// Metrics receives cache lifecycle events. Nil means no-op.
	Metrics types.Metrics

	// Logger used for sweep reporting. Nil means logrus.New().
	Logger *logrus.Logger
}

// DefaultOptions returns the configuration the serving layer runs with.
func DefaultOptions() Options {
	return Options{
		Shards:   4,
		Capacity: 4096,
		Eviction: eviction.LRU,
	}
}

/*
Cache is the main implementation. It connects:
- shards (storage)
- the tier registry (TTL policy)
- the tag index (grouped invalidation)
- singleflight (miss deduplication)
- eviction, metrics, sweeping
*/
type Cache struct {
	shards   []*shard.Shard
	selector shard.Selector
	tiers    *tier.Registry
	tags     *tagindex.Index
	metrics  types.Metrics
	log      *logrus.Logger
	capacity int

	// sf collapses concurrent loads of the same missing key into one
	// loader invocation.
	sf singleflight.Group

	stopSweep chan struct{}
	sweepDone chan struct{}
	closeOnce sync.Once
}

// New creates a Cache from the given options.
func New(opts Options) *Cache {
	if opts.Shards <= 0 {
		opts.Shards = DefaultOptions().Shards
	}
	if opts.Eviction == "" {
		opts.Eviction = eviction.LRU
	}
	if opts.Tiers == nil {
		opts.Tiers = tier.NewRegistry(nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = types.NoopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	shards := make([]*shard.Shard, opts.Shards)
	for i := range shards {
		// Each shard gets its own eviction policy instance.
		shards[i] = shard.New(eviction.New(opts.Eviction))
	}

	c := &Cache{
		shards:    shards,
		selector:  shard.HashSelector{},
		tiers:     opts.Tiers,
		tags:      tagindex.New(),
		metrics:   opts.Metrics,
		log:       opts.Logger,
		capacity:  opts.Capacity,
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}

	if opts.SweepInterval > 0 {
		go c.sweepLoop(opts.SweepInterval)
	} else {
		close(c.sweepDone)
	}

	return c
}

// Tiers returns the registry this cache stores under.
func (c *Cache) Tiers() *tier.Registry {
	return c.tiers
}

/*
Query is the read-through entry point.

1. A valid (unexpired) entry for key → returned immediately.
2. Otherwise the loader runs — exactly once per key, no matter how
   many callers miss concurrently — and its result is stored under the
   tier's TTL with the given tags before any waiter is released.
3. A loader error goes to every waiter and is never cached, so the
   next call retries.

An unknown tier fails immediately: a silently wrong TTL is a
stale-serving bug waiting to be found in production.
*/
func (c *Cache) Query(ctx context.Context, key, tierName string, loader types.LoaderFunc, tags ...string) (any, error) {
	ttl, err := c.tiers.TTL(tierName)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", tierName, err)
	}

	if ent, ok := c.lookup(key); ok {
		c.metrics.Hit()
		return ent.Value, nil
	}

	c.metrics.Miss()

	v, err, _ := c.sf.Do(key, func() (any, error) {
		// A previous flight may have filled the key while this caller
		// was queueing for the flight slot.
		if ent, ok := c.lookup(key); ok {
			return ent.Value, nil
		}

		val, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		// Store before releasing waiters so the entry and the result
		// become visible together.
		c.store(key, val, tierName, ttl, tags)
		return val, nil
	})
	return v, err
}

// Set stores a value directly under a tier, bypassing the loader path.
func (c *Cache) Set(key string, value any, tierName string, tags ...string) error {
	ttl, err := c.tiers.TTL(tierName)
	if err != nil {
		return fmt.Errorf("set %q: %w", tierName, err)
	}
	c.store(key, value, tierName, ttl, tags)
	return nil
}

// Get returns the value for key if present and unexpired. It never
// returns a stale value: an expired entry reads as absent and is
// removed on the spot.
func (c *Cache) Get(key string) (any, bool) {
	ent, ok := c.lookup(key)
	if !ok {
		return nil, false
	}
	c.metrics.Hit()
	return ent.Value, true
}

// lookup returns the live entry for key, removing it if expired.
func (c *Cache) lookup(key string) (*types.CacheEntry, bool) {
	sh := c.selector.Select(key, c.shards)

	ent, ok := sh.Store.Get(key)
	if !ok {
		return nil, false
	}
	if ent.Expired(time.Now()) {
		c.metrics.Expire()
		c.Delete(key)
		return nil, false
	}

	// Entry reads are lock-free; recency bookkeeping is not.
	sh.Mu.Lock()
	sh.Eviction.OnGet(key)
	sh.Mu.Unlock()

	return ent, true
}

// store writes an entry and its tag memberships. Eviction runs first if
// the shard is at capacity; the evicted key's tag memberships are
// removed with it.
func (c *Cache) store(key string, value any, tierName string, ttl time.Duration, tags []string) {
	sh := c.selector.Select(key, c.shards)

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	// Capacity is split across shards.
	if c.capacity > 0 && sh.Store.Size() >= int64(c.capacity/len(c.shards)) {
		if _, exists := sh.Store.Get(key); !exists {
			if evicted := sh.Eviction.Evict(); evicted != "" {
				c.metrics.Eviction()
				sh.Store.Delete(evicted)
				c.tags.RemoveKey(evicted)
			}
		}
	}

	now := time.Now()
	ent := &types.CacheEntry{
		Key:       key,
		Value:     value,
		Tier:      tierName,
		Tags:      tags,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	sh.Store.Put(key, ent)
	sh.Eviction.OnPut(key)
	c.tags.Replace(key, tags)
}

// Delete removes the entry and all of its tag memberships. Removing a
// missing key is a no-op.
func (c *Cache) Delete(key string) {
	sh := c.selector.Select(key, c.shards)

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	sh.Store.Delete(key)
	sh.Eviction.Remove(key)
	c.tags.RemoveKey(key)
}

// InvalidateTag removes every key currently indexed under the tag and
// returns how many were removed. The store mutation completes before
// this returns: a read that happens after invalidation cannot observe
// a value older than the invalidation. An empty tag removes nothing
// and returns zero.
func (c *Cache) InvalidateTag(tag string) int {
	keys := c.tags.Keys(tag)
	for _, key := range keys {
		c.Delete(key)
		c.metrics.Invalidation()
	}
	return len(keys)
}

// Sweep walks all shards and removes expired entries outright,
// returning how many were removed. Lazy expiry on read applies whether
// or not this ever runs.
func (c *Cache) Sweep() int {
	now := time.Now()
	removed := 0
	for _, sh := range c.shards {
		for key, ent := range sh.Store.Snapshot() {
			if ent.Expired(now) {
				c.metrics.Expire()
				c.Delete(key)
				removed++
			}
		}
	}
	return removed
}

func (c *Cache) sweepLoop(interval time.Duration) {
	defer close(c.sweepDone)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if n := c.Sweep(); n > 0 {
				c.log.WithFields(logrus.Fields{
					"component": "querycache",
					"removed":   n,
				}).Debug("sweep removed expired entries")
			}
		case <-c.stopSweep:
			return
		}
	}
}

// Len returns the live entry count across all shards. Expired entries
// not yet swept are included; they disappear on next read or sweep.
func (c *Cache) Len() int {
	n := int64(0)
	for _, sh := range c.shards {
		n += sh.Store.Size()
	}
	return int(n)
}

/*
TTL returns remaining time-to-live of a key, Redis-style:

	> 0 : duration remaining before expiration
	-1  : key exists but has no TTL
	-2  : key does not exist or is already expired
*/
func (c *Cache) TTL(key string) time.Duration {
	sh := c.selector.Select(key, c.shards)

	ent, ok := sh.Store.Get(key)
	if !ok {
		return -2
	}
	if ent.ExpiresAt.IsZero() {
		return -1
	}

	d := time.Until(ent.ExpiresAt)
	if d <= 0 {
		return -2
	}
	return d
}

// Close stops the background sweeper. In-flight loads finish normally.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopSweep)
	})
	<-c.sweepDone
}
