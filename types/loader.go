package types

import "context"

/*
LoaderFunc is the contract between the cache and whatever computes a
value on a miss: a database query, an external API call, a composite
aggregation.

1. Cache checks memory → key not found
2. Cache runs the loader (once, no matter how many callers are waiting)
3. Cache stores the result in memory
4. Cache returns the value to every waiter

The loader is opaque to the cache. It may carry its own timeout via ctx;
a loader error is returned to every waiting caller and is never cached,
so the next call retries.
*/
type LoaderFunc func(ctx context.Context) (any, error)
