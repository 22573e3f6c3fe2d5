package querycache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	querycache "github.com/croesus-labs/querycache"
	"github.com/croesus-labs/querycache/eviction"
	"github.com/croesus-labs/querycache/tier"
)

// testTiers adds a fast-expiring tier so TTL tests don't sleep long.
func testTiers() *tier.Registry {
	tiers := tier.Defaults()
	tiers["blink"] = 50 * time.Millisecond
	return tier.NewRegistry(tiers)
}

func newTestCache(t *testing.T, capacity int) *querycache.Cache {
	t.Helper()
	c := querycache.New(querycache.Options{
		Shards:   2,
		Capacity: capacity,
		Eviction: eviction.LRU,
		Tiers:    testTiers(),
	})
	t.Cleanup(c.Close)
	return c
}

// countingLoader returns a loader that counts invocations.
func countingLoader(value any) (*atomic.Int64, func(ctx context.Context) (any, error)) {
	var calls atomic.Int64
	return &calls, func(ctx context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

//
// ================= READ-THROUGH =================
//

func TestQueryMissThenHit(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 10)

	calls, loader := countingLoader("the-article")

	v, err := c.Query(ctx, "article:42", tier.Data, loader)
	require.NoError(t, err)
	assert.Equal(t, "the-article", v)

	v, err = c.Query(ctx, "article:42", tier.Data, loader)
	require.NoError(t, err)
	assert.Equal(t, "the-article", v)

	assert.Equal(t, int64(1), calls.Load(), "second call within TTL must not invoke the loader")
}

func TestQueryUnknownTier(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 10)

	calls, loader := countingLoader("v")

	_, err := c.Query(ctx, "k", "no-such-tier", loader)
	require.Error(t, err)
	assert.ErrorIs(t, err, tier.ErrUnknownTier)
	assert.Equal(t, int64(0), calls.Load(), "loader must not run for an unknown tier")
}

func TestQueryLoaderFailureNotCached(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 10)

	boom := errors.New("db down")
	fail := true
	var calls atomic.Int64
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		if fail {
			return nil, boom
		}
		return "recovered", nil
	}

	_, err := c.Query(ctx, "k", tier.Data, loader)
	assert.ErrorIs(t, err, boom)

	// Failure was not cached: the next call retries the loader.
	fail = false
	v, err := c.Query(ctx, "k", tier.Data, loader)
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, int64(2), calls.Load())
}

//
// ================= SINGLEFLIGHT =================
//

func TestSingleflightConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 100)

	var calls atomic.Int64
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond) // hold the miss window open
		return "featured-view", nil
	}

	const n = 50
	results := make([]any, n)
	wg := sync.WaitGroup{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Query(ctx, "featured", tier.Critical, loader)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "concurrent misses must collapse into one load")
	for _, v := range results {
		assert.Equal(t, "featured-view", v)
	}
}

func TestSingleflightErrorReachesAllWaiters(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 100)

	boom := errors.New("loader timeout")
	loader := func(ctx context.Context) (any, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, boom
	}

	const n = 10
	wg := sync.WaitGroup{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Query(ctx, "k", tier.Data, loader)
			assert.ErrorIs(t, err, boom)
		}()
	}
	wg.Wait()
}

//
// ================= TTL =================
//

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 10)

	calls, loader := countingLoader("short-lived")

	_, err := c.Query(ctx, "k", "blink", loader)
	require.NoError(t, err)

	// Present immediately after storing.
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "short-lived", v)

	time.Sleep(80 * time.Millisecond)

	// Absent once now >= createdAt + TTL, with no intervening write.
	_, ok = c.Get("k")
	assert.False(t, ok)

	// A fresh Query reloads.
	_, err = c.Query(ctx, "k", "blink", loader)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestTTLIntrospection(t *testing.T) {
	c := newTestCache(t, 10)

	require.NoError(t, c.Set("k", "v", tier.Long))

	d := c.TTL("k")
	assert.Greater(t, d, 50*time.Minute)
	assert.LessOrEqual(t, d, time.Hour)

	assert.Equal(t, time.Duration(-2), c.TTL("missing"))
}

func TestSweepRemovesExpired(t *testing.T) {
	c := newTestCache(t, 100)

	require.NoError(t, c.Set("a", 1, "blink"))
	require.NoError(t, c.Set("b", 2, "blink"))
	require.NoError(t, c.Set("c", 3, tier.Long))

	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, 2, c.Sweep())
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("c")
	assert.True(t, ok)
}

func TestBackgroundSweeper(t *testing.T) {
	c := querycache.New(querycache.Options{
		Shards:        2,
		Capacity:      100,
		Tiers:         testTiers(),
		SweepInterval: 20 * time.Millisecond,
	})
	defer c.Close()

	require.NoError(t, c.Set("a", 1, "blink"))
	require.NoError(t, c.Set("b", 2, "blink"))

	// The sweeper should clear both without any read touching them.
	assert.Eventually(t, func() bool { return c.Len() == 0 },
		time.Second, 10*time.Millisecond)
}

//
// ================= BASIC OPERATIONS =================
//

func TestSetGetDelete(t *testing.T) {
	c := newTestCache(t, 10)

	require.NoError(t, c.Set("key1", "value1", tier.Data))

	v, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "value1", v)

	// Writing the same key replaces the entry.
	require.NoError(t, c.Set("key1", "value2", tier.Data))
	v, _ = c.Get("key1")
	assert.Equal(t, "value2", v)

	c.Delete("key1")
	_, ok = c.Get("key1")
	assert.False(t, ok)

	// Removing a non-existing key is safe.
	c.Delete("key1")
}

func TestSetUnknownTier(t *testing.T) {
	c := newTestCache(t, 10)
	assert.ErrorIs(t, c.Set("k", "v", "bogus"), tier.ErrUnknownTier)
}

//
// ================= CAPACITY & EVICTION =================
//

func TestEvictionBoundsSize(t *testing.T) {
	c := querycache.New(querycache.Options{
		Shards:   1, // deterministic capacity accounting
		Capacity: 4,
		Eviction: eviction.LRU,
		Tiers:    testTiers(),
	})
	defer c.Close()

	for _, k := range []string{"k1", "k2", "k3", "k4", "k5", "k6"} {
		require.NoError(t, c.Set(k, k, tier.Data, "bulk"))
	}

	assert.LessOrEqual(t, c.Len(), 4)

	// Evicted keys left the tag index with their entries: invalidating
	// the shared tag removes exactly what is still cached.
	live := c.Len()
	assert.Equal(t, live, c.InvalidateTag("bulk"))
	assert.Equal(t, 0, c.Len())
}
