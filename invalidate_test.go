package querycache_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	querycache "github.com/croesus-labs/querycache"
	"github.com/croesus-labs/querycache/tier"
)

//
// ================= TAG INVALIDATION =================
//

func TestInvalidateTagRemovesAllMembers(t *testing.T) {
	c := newTestCache(t, 100)

	require.NoError(t, c.Set("article:1", "a1", tier.Data, querycache.TagArticles))
	require.NoError(t, c.Set("article:2", "a2", tier.Data, querycache.TagArticles))
	require.NoError(t, c.Set("articles:recent", "listing", tier.Short, querycache.TagArticles))

	assert.Equal(t, 3, c.InvalidateTag(querycache.TagArticles))

	for _, k := range []string{"article:1", "article:2", "articles:recent"} {
		_, ok := c.Get(k)
		assert.False(t, ok, "key %q must be absent after invalidation", k)
	}
}

func TestInvalidateTagIsolation(t *testing.T) {
	c := newTestCache(t, 100)

	require.NoError(t, c.Set("article:1", "a1", tier.Data, querycache.TagArticles))
	require.NoError(t, c.Set("firm:goldman-sachs", "gs", tier.Firm, querycache.TagFirms))

	c.InvalidateTag(querycache.TagArticles)

	// Entries tagged only "firms" survive an "articles" invalidation.
	v, ok := c.Get("firm:goldman-sachs")
	require.True(t, ok)
	assert.Equal(t, "gs", v)
}

func TestInvalidateTagNoOp(t *testing.T) {
	c := newTestCache(t, 100)
	assert.Equal(t, 0, c.InvalidateTag("nothing-here"))
}

func TestInvalidationForcesReload(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 100)

	var calls atomic.Int64
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "v", nil
	}

	_, err := c.Query(ctx, "article:42", tier.Data, loader,
		querycache.TagArticles, querycache.ArticleTag(42))
	require.NoError(t, err)

	c.InvalidateArticles(42)

	// The next read-through is a miss and re-runs the loader.
	_, err = c.Query(ctx, "article:42", tier.Data, loader,
		querycache.TagArticles, querycache.ArticleTag(42))
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestReplacingEntryMovesTagMemberships(t *testing.T) {
	c := newTestCache(t, 100)

	require.NoError(t, c.Set("k", "v1", tier.Data, "old-tag"))
	require.NoError(t, c.Set("k", "v2", tier.Data, "new-tag"))

	// The old membership is gone with the old entry.
	assert.Equal(t, 0, c.InvalidateTag("old-tag"))

	assert.Equal(t, 1, c.InvalidateTag("new-tag"))
	_, ok := c.Get("k")
	assert.False(t, ok)
}

//
// ================= DOMAIN FAÇADE =================
//

func TestInvalidateArticlesById(t *testing.T) {
	c := newTestCache(t, 100)

	require.NoError(t, c.Set("article:42", "a", tier.Data,
		querycache.TagArticles, querycache.ArticleTag(42)))
	require.NoError(t, c.Set("article:42:related", "rel", tier.Medium,
		querycache.ArticleTag(42)))
	require.NoError(t, c.Set("article:7", "other", tier.Data,
		querycache.TagArticles, querycache.ArticleTag(7)))

	// "articles" removes all three listings; article:42 extras go with
	// the per-article tag.
	n := c.InvalidateArticles(42)
	assert.Equal(t, 3, n)

	_, ok := c.Get("article:42:related")
	assert.False(t, ok)
}

func TestInvalidateFirmsByName(t *testing.T) {
	c := newTestCache(t, 100)

	require.NoError(t, c.Set("firms:index", "idx", tier.Firm, querycache.TagFirms))
	require.NoError(t, c.Set("firm:goldman-sachs", "gs", tier.Firm,
		querycache.FirmTag("goldman-sachs")))
	require.NoError(t, c.Set("firm:lazard", "lz", tier.Firm,
		querycache.FirmTag("lazard")))

	assert.Equal(t, 2, c.InvalidateFirms("goldman-sachs"))

	_, ok := c.Get("firm:lazard")
	assert.True(t, ok, "other firms must survive")
}

func TestInvalidateUsersOnPreferenceWrite(t *testing.T) {
	c := newTestCache(t, 100)

	require.NoError(t, c.Set("user:7:feed", "feed", tier.User,
		querycache.TagUsers, querycache.UserTag(7)))
	require.NoError(t, c.Set("user:7:digest", "digest", tier.User,
		querycache.UserTag(7)))

	// Any preference write invalidates all preference-derived views
	// for the user, regardless of which fields changed.
	assert.Equal(t, 2, c.InvalidateUsers(7))
}

func TestLandingPageComposites(t *testing.T) {
	c := newTestCache(t, 100)

	require.NoError(t, c.Set("landing", "page", tier.Critical, querycache.TagLandingPage))
	require.NoError(t, c.Set("featured", "f", tier.Critical, querycache.TagFeatured))
	require.NoError(t, c.Set("trending", "t", tier.Critical, querycache.TagTrending))

	assert.Equal(t, 1, c.InvalidateLandingPage())
	assert.Equal(t, 1, c.InvalidateFeatured())
	assert.Equal(t, 1, c.InvalidateTrending())
}

func TestInvalidateAdmin(t *testing.T) {
	c := newTestCache(t, 100)

	require.NoError(t, c.Set("admin:dashboard", "agg", tier.Admin, querycache.TagAdmin))

	assert.Equal(t, 1, c.InvalidateAdmin())
	_, ok := c.Get("admin:dashboard")
	assert.False(t, ok)
}

func TestInvalidateSmart(t *testing.T) {
	c := newTestCache(t, 100)

	require.NoError(t, c.Set("podcast:12", "ep", tier.Data,
		querycache.KindTag("podcast", "12"), querycache.CollectionTag("podcast")))
	require.NoError(t, c.Set("podcasts:recent", "list", tier.Short,
		querycache.CollectionTag("podcast")))

	// "<kind>:<id>" plus the "<kind>s" collection tag.
	assert.Equal(t, 2, c.InvalidateSmart("podcast", "12"))
	assert.Equal(t, 0, c.Len())
}
