package types

// Metrics defines what the cache wants to measure. Each method is an
// event in the cache lifecycle; the cache calls them as things happen.
type Metrics interface {

	// Hit is called when the cache returns a stored value.
	Hit()

	// Miss is called when a key is not found (or expired) and the
	// loader has to run.
	Miss()

	// Eviction is called when a key is removed to make space.
	Eviction()

	// Expire is called when a key is removed because it passed its TTL.
	Expire()

	// Invalidation is called once per key removed by tag invalidation.
	Invalidation()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

Users who do not care about metrics still get a working cache without
nil checks scattered through the codebase.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()          {}
func (NoopMetrics) Miss()         {}
func (NoopMetrics) Eviction()     {}
func (NoopMetrics) Expire()       {}
func (NoopMetrics) Invalidation() {}
