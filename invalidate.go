package querycache

import "strconv"

/*
This file is the grouped-invalidation façade.

Write-path handlers (article published, user preferences updated, firm
edited) should never need to know which cache keys exist — only which
tags are semantically affected. Each wrapper translates one domain
event into the tag invalidations that purge every cached view that
might be stale, and returns how many entries were removed.

All wrappers are synchronous: when one returns, the store mutation is
complete and no later read can observe a pre-invalidation value.
Invalidating a tag with no members removes nothing and returns zero.
*/

// InvalidateArticles purges all article listing views, and the
// per-article views for any ids given.
func (c *Cache) InvalidateArticles(ids ...int64) int {
	n := c.InvalidateTag(TagArticles)
	for _, id := range ids {
		n += c.InvalidateTag(ArticleTag(id))
	}
	return n
}

// InvalidateFeatured purges the featured-content composites.
func (c *Cache) InvalidateFeatured() int {
	return c.InvalidateTag(TagFeatured)
}

// InvalidateTrending purges the trending-content composites.
func (c *Cache) InvalidateTrending() int {
	return c.InvalidateTag(TagTrending)
}

// InvalidateLandingPage purges the landing-page composite queries.
func (c *Cache) InvalidateLandingPage() int {
	return c.InvalidateTag(TagLandingPage)
}

// InvalidateAdmin purges the admin dashboard aggregates.
func (c *Cache) InvalidateAdmin() int {
	return c.InvalidateTag(TagAdmin)
}

// InvalidateUsers purges all user-derived views, and the per-user
// views for any ids given. Any preference write lands here, regardless
// of which fields changed.
func (c *Cache) InvalidateUsers(ids ...int64) int {
	n := c.InvalidateTag(TagUsers)
	for _, id := range ids {
		n += c.InvalidateTag(UserTag(id))
	}
	return n
}

// InvalidateFirms purges all firm views, and the per-firm views for
// any names given.
func (c *Cache) InvalidateFirms(names ...string) int {
	n := c.InvalidateTag(TagFirms)
	for _, name := range names {
		n += c.InvalidateTag(FirmTag(name))
	}
	return n
}

// InvalidatePodcasts purges all podcast views, and the per-podcast
// views for any ids given.
func (c *Cache) InvalidatePodcasts(ids ...int64) int {
	n := c.InvalidateTag(TagPodcasts)
	for _, id := range ids {
		n += c.InvalidateTag(PodcastTag(id))
	}
	return n
}

// InvalidateSmart is the generic dispatch for kinds without a named
// wrapper: it purges "<kind>:<id>" plus the "<kind>s" collection tag.
func (c *Cache) InvalidateSmart(kind, id string) int {
	return c.InvalidateTag(KindTag(kind, id)) + c.InvalidateTag(CollectionTag(kind))
}

// InvalidateSmartID is InvalidateSmart for numeric ids.
func (c *Cache) InvalidateSmartID(kind string, id int64) int {
	return c.InvalidateSmart(kind, strconv.FormatInt(id, 10))
}
