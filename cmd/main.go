package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	querycache "github.com/croesus-labs/querycache"
	"github.com/croesus-labs/querycache/eviction"
	"github.com/croesus-labs/querycache/tier"
)

// ================= BACKING STORE =================

// ArticleStore stands in for the database the loaders would query.
type ArticleStore struct {
	mu    sync.Mutex
	data  map[int64]string
	loads int
}

func NewArticleStore() *ArticleStore {
	return &ArticleStore{data: map[int64]string{
		42: "The State of M&A Advisory",
		43: "Restructuring Desks in a Downturn",
	}}
}

func (s *ArticleStore) LoadArticle(id int64) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.loads++
		fmt.Printf("STORE  → load article %d\n", id)
		v, ok := s.data[id]
		if !ok {
			return nil, errors.New("article not found")
		}
		return v, nil
	}
}

// ================= METRICS =================

type Metrics struct {
	mu            sync.Mutex
	hits          int
	misses        int
	evictions     int
	expired       int
	invalidations int
}

func (m *Metrics) Hit()          { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *Metrics) Miss()         { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *Metrics) Eviction()     { m.mu.Lock(); m.evictions++; m.mu.Unlock() }
func (m *Metrics) Expire()       { m.mu.Lock(); m.expired++; m.mu.Unlock() }
func (m *Metrics) Invalidation() { m.mu.Lock(); m.invalidations++; m.mu.Unlock() }

func (m *Metrics) Print() {
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS          : %d\n", m.hits)
	fmt.Printf("MISSES        : %d\n", m.misses)
	fmt.Printf("EVICTIONS     : %d\n", m.evictions)
	fmt.Printf("EXPIRED       : %d\n", m.expired)
	fmt.Printf("INVALIDATIONS : %d\n", m.invalidations)
}

// ================= MAIN =================

func main() {
	ctx := context.Background()

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("EVICTION POLICY : LRU")
	fmt.Println("SHARDS          : 4")
	fmt.Println("CAPACITY        : 64 keys")
	fmt.Println("TIERS           : defaults + demo (1s)")

	store := NewArticleStore()
	metrics := &Metrics{}

	tiers := tier.Defaults()
	tiers["demo"] = time.Second

	cache := querycache.New(querycache.Options{
		Shards:   4,
		Capacity: 64,
		Eviction: eviction.LRU,
		Tiers:    tier.NewRegistry(tiers),
		Metrics:  metrics,
	})
	warmer := querycache.NewWarmer(cache, logrus.New(), 16)

	// ====================================================
	fmt.Println("\n==================== 1) CACHE MISS ====================")
	v, _ := cache.Query(ctx, "article:42", tier.Data, store.LoadArticle(42),
		querycache.TagArticles, querycache.ArticleTag(42))
	fmt.Println("CACHE  → GET article:42 =", v)

	// ====================================================
	fmt.Println("\n==================== 2) CACHE HIT ====================")
	v, _ = cache.Query(ctx, "article:42", tier.Data, store.LoadArticle(42),
		querycache.TagArticles, querycache.ArticleTag(42))
	fmt.Println("CACHE  → GET article:42 =", v)

	// ====================================================
	fmt.Println("\n==================== 3) SINGLEFLIGHT ====================")

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			val, _ := cache.Query(ctx, "article:43", tier.Data, store.LoadArticle(43),
				querycache.TagArticles, querycache.ArticleTag(43))
			fmt.Printf("GOROUTINE-%d → GET article:43 = %v\n", id, val)
		}(i)
	}
	wg.Wait()

	// ====================================================
	fmt.Println("\n==================== 4) TAG INVALIDATION ====================")

	n := cache.InvalidateArticles(42)
	fmt.Printf("CACHE  → invalidate articles (removed %d)\n", n)

	v, _ = cache.Query(ctx, "article:42", tier.Data, store.LoadArticle(42),
		querycache.TagArticles, querycache.ArticleTag(42))
	fmt.Println("CACHE  → GET article:42 after invalidation =", v)

	// ====================================================
	fmt.Println("\n==================== 5) TTL EXPIRATION ====================")

	cache.Set("featured", "composite-featured-view", "demo", querycache.TagFeatured)
	fmt.Println("CACHE  → SET featured (tier demo, TTL = 1s)")

	time.Sleep(2 * time.Second)

	_, ok := cache.Get("featured")
	fmt.Println("CACHE  → GET featured after TTL present =", ok)

	// ====================================================
	fmt.Println("\n==================== 6) WARMING ====================")

	res := <-warmer.WarmNewArticle("the-state-of-ma-advisory", 42, []querycache.WarmSpec{
		{
			Key:    "article:42",
			Tier:   tier.Data,
			Tags:   []string{querycache.TagArticles, querycache.ArticleTag(42)},
			Loader: store.LoadArticle(42),
		},
	})
	fmt.Printf("WARMER → article 42 state=%s warmed=%d\n", res.State, res.Warmed)

	v, _ = cache.Get("article:42")
	fmt.Println("CACHE  → GET article:42 after warming =", v)

	// ====================================================
	metrics.Print()

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	warmer.Close()
	cache.Close()
	fmt.Println("SYSTEM → cache closed cleanly")
}
