// Package api declares the public contract of the query cache.
package api

import (
	"context"
	"time"

	"github.com/croesus-labs/querycache/types"
)

/*
QueryCache is the contract the serving layer codes against. Sharding,
eviction, expiry, miss deduplication, and tag bookkeeping are all
hidden behind it.
*/
type QueryCache interface {

	/*
		Query is the read-through entry point.

		1. If key holds a valid (unexpired) entry, return it — the
		   loader is not invoked.
		2. Otherwise run the loader, store the result under the tier's
		   TTL with the given tags, and return it. Concurrent callers
		   for the same missing key share one loader invocation and one
		   result.

		An unknown tier name is a caller error, returned immediately.
		A loader error is returned to every waiting caller and never
		cached.
	*/
	Query(ctx context.Context, key, tier string, loader types.LoaderFunc, tags ...string) (any, error)

	// Set stores a value directly under a tier, bypassing the loader
	// path. Replaces any previous entry and its tag memberships.
	Set(key string, value any, tier string, tags ...string) error

	// Get returns the value for key if present and unexpired. Never
	// returns a stale value.
	Get(key string) (any, bool)

	// Delete removes the entry and all of its tag memberships.
	// Idempotent: deleting a missing key is safe.
	Delete(key string)

	// InvalidateTag removes every key indexed under the tag,
	// synchronously, and returns the removal count. A memberless tag
	// returns zero; it is not an error.
	InvalidateTag(tag string) int

	// Sweep removes expired entries outright and returns how many.
	// Optional: lazy expiry on read applies even if this never runs.
	Sweep() int

	/*
		TTL returns the remaining time-to-live for a key
		(Redis-compatible semantics):

		> 0 : duration remaining before expiration
		-1  : key exists but has no TTL
		-2  : key does not exist or is already expired
	*/
	TTL(key string) time.Duration

	// Close stops background maintenance goroutines.
	Close()
}
