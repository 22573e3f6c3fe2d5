/*
Package tagindex maintains the secondary index from invalidation tags
to cache keys.

A tag is a coarse invalidation group ("articles", "admin",
"firm:goldman-sachs"). Many keys share one tag, so a single write-path
event can purge every cached view that might be stale without knowing
which keys exist. The index tracks both directions — tag → keys and
key → tags — so that removing a key cleans up all of its memberships.
*/
package tagindex

import "sync"

// Index is the bidirectional tag ↔ key index. Safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	byTag map[string]map[string]struct{}
	byKey map[string]map[string]struct{}
}

// New creates an empty index.
func New() *Index {
	return &Index{
		byTag: make(map[string]map[string]struct{}),
		byKey: make(map[string]map[string]struct{}),
	}
}

// Add records the key under each tag.
func (i *Index) Add(key string, tags ...string) {
	if len(tags) == 0 {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, tag := range tags {
		if i.byTag[tag] == nil {
			i.byTag[tag] = make(map[string]struct{})
		}
		i.byTag[tag][key] = struct{}{}

		if i.byKey[key] == nil {
			i.byKey[key] = make(map[string]struct{})
		}
		i.byKey[key][tag] = struct{}{}
	}
}

// Replace removes the key from every tag it currently holds, then
// records it under the new tag set. Writing a key replaces its entry
// wholesale, and its tag memberships follow.
func (i *Index) Replace(key string, tags []string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.removeKeyLocked(key)
	for _, tag := range tags {
		if i.byTag[tag] == nil {
			i.byTag[tag] = make(map[string]struct{})
		}
		i.byTag[tag][key] = struct{}{}

		if i.byKey[key] == nil {
			i.byKey[key] = make(map[string]struct{})
		}
		i.byKey[key][tag] = struct{}{}
	}
}

// RemoveKey drops the key from every tag it belongs to. Called whenever
// an entry leaves the cache (delete, expiry, eviction, invalidation) so
// no tag → key reference outlives its entry.
func (i *Index) RemoveKey(key string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.removeKeyLocked(key)
}

func (i *Index) removeKeyLocked(key string) {
	for tag := range i.byKey[key] {
		delete(i.byTag[tag], key)
		if len(i.byTag[tag]) == 0 {
			delete(i.byTag, tag)
		}
	}
	delete(i.byKey, key)
}

// Keys returns the keys currently indexed under a tag. A tag with no
// members yields an empty slice, not an error.
func (i *Index) Keys(tag string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	keys := make([]string, 0, len(i.byTag[tag]))
	for k := range i.byTag[tag] {
		keys = append(keys, k)
	}
	return keys
}

// Tags returns the tags the key is currently recorded under.
func (i *Index) Tags(key string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	tags := make([]string, 0, len(i.byKey[key]))
	for t := range i.byKey[key] {
		tags = append(tags, t)
	}
	return tags
}

// TagCount returns how many distinct tags currently have members.
func (i *Index) TagCount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.byTag)
}
