/*
Package middleware adapts tier TTLs to HTTP caching headers.

Handlers that serve tier-cached queries should advertise the same
lifetime downstream, so CDN and browser caches expire in step with the
in-process cache.
*/
package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/croesus-labs/querycache/tier"
)

// CacheControl returns a gin middleware that sets a Cache-Control
// header with max-age equal to the tier's TTL. The tier is resolved at
// router construction time; an unknown name panics there, not per
// request — a route wired to a nonexistent tier is a programmer error.
func CacheControl(reg *tier.Registry, tierName string) gin.HandlerFunc {
	ttl, err := reg.TTL(tierName)
	if err != nil {
		panic(fmt.Sprintf("middleware: cache-control tier %q: %v", tierName, err))
	}

	value := fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// NoStore returns a gin middleware for write-path and authenticated
// routes that must never be cached downstream.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
