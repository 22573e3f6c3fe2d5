package querycache

import "strconv"

// Collection tags shared by every cached view of a domain. Write-path
// handlers invalidate these; read-path handlers attach them at fill
// time. Keys and tags stay plain strings underneath — the helpers
// below exist so call sites cannot typo a tag.
const (
	TagArticles    = "articles"
	TagFeatured    = "featured"
	TagTrending    = "trending"
	TagLandingPage = "landing-page"
	TagAdmin       = "admin"
	TagUsers       = "users"
	TagFirms       = "firms"
	TagPodcasts    = "podcasts"
)

// ArticleTag is the per-article tag ("article:42").
func ArticleTag(id int64) string {
	return "article:" + strconv.FormatInt(id, 10)
}

// UserTag is the per-user tag ("user:7").
func UserTag(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}

// FirmTag is the per-firm tag ("firm:goldman-sachs").
func FirmTag(name string) string {
	return "firm:" + name
}

// PodcastTag is the per-podcast tag ("podcast:12").
func PodcastTag(id int64) string {
	return "podcast:" + strconv.FormatInt(id, 10)
}

// KindTag builds the generic per-entity tag ("<kind>:<id>").
func KindTag(kind, id string) string {
	return kind + ":" + id
}

// CollectionTag builds the generic collection tag for a kind
// ("article" → "articles").
func CollectionTag(kind string) string {
	return kind + "s"
}
