package types

import "time"

// CacheEntry is the stored form of one computed query result.
// A key maps to at most one live entry; writes replace the whole
// entry, never individual fields.
type CacheEntry struct {
	Key       string
	Value     any
	Tier      string
	Tags      []string
	CreatedAt time.Time
	ExpiresAt time.Time // CreatedAt + tier TTL; zero => no expiry
}

// Expired reports whether the entry is past its TTL at the given time.
// An entry is valid iff now < ExpiresAt; an expired entry is logically
// absent even if it has not been swept yet.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
