/*
Package tier maps named TTL classes to durations.

Every cached query is stored under a tier (e.g. "critical" for
landing-page composites, "long" for slow-moving reference data). The
tier decides how long the entry lives; callers never pass raw
durations, so TTL policy stays in one place.
*/
package tier

import (
	"errors"
	"sort"
	"time"
)

// ErrUnknownTier is returned when a caller names a tier that was never
// registered. A wrong TTL causes either stale-serving or cache-thrashing
// bugs that are hard to spot later, so this fails loudly instead of
// falling back to a default.
var ErrUnknownTier = errors.New("tier: unknown tier")

// Built-in tier names.
const (
	Critical = "critical" // landing-page composites, very short
	Short    = "short"
	Medium   = "medium"
	Data     = "data" // per-entity query results
	Long     = "long" // slow-moving reference data
	Admin    = "admin" // dashboard aggregates
	User     = "user"
	Firm     = "firm"
)

// Registry is a static name → TTL mapping. It is built once and never
// mutated afterwards, so reads need no locking.
type Registry struct {
	ttls map[string]time.Duration
}

// Defaults returns the standard tier set used by the serving layer.
func Defaults() map[string]time.Duration {
	return map[string]time.Duration{
		Critical: 30 * time.Second,
		Short:    time.Minute,
		Medium:   5 * time.Minute,
		Data:     10 * time.Minute,
		Long:     time.Hour,
		Admin:    30 * time.Second,
		User:     2 * time.Minute,
		Firm:     10 * time.Minute,
	}
}

// NewRegistry builds a registry from the given tiers. Passing nil gives
// the defaults; passing a map gives exactly that map (the caller owns
// the full tier policy, defaults are not merged in behind its back).
func NewRegistry(tiers map[string]time.Duration) *Registry {
	if tiers == nil {
		tiers = Defaults()
	}
	ttls := make(map[string]time.Duration, len(tiers))
	for name, ttl := range tiers {
		ttls[name] = ttl
	}
	return &Registry{ttls: ttls}
}

// TTL returns the duration for a tier name.
func (r *Registry) TTL(name string) (time.Duration, error) {
	ttl, ok := r.ttls[name]
	if !ok {
		return 0, ErrUnknownTier
	}
	return ttl, nil
}

// Has reports whether the tier name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.ttls[name]
	return ok
}

// Names returns all registered tier names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ttls))
	for name := range r.ttls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
