// Package cache stores solved min-cut leaves so repeated runs over the same
// graph skip the exact solver.
//
// Three backends implement [Cache]:
//   - [FileCache] keeps entries as files under a directory (CLI default)
//   - [RedisCache] shares entries between machines through redis
//   - [Disabled] stores nothing and records why caching is off
//
// Keys come from a [Keyer], which hashes everything that changes the optimum
// of a leaf: its candidate edges and the objective options. Only optimal
// solutions are cached; timed-out incumbents are recomputed next time.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long solved leaves are kept.
const DefaultTTL = 30 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the value stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Disabled is the cache of a run that solves every leaf from scratch. Reason
// says why caching is off, e.g. "--no-cache" or the error that prevented
// opening the cache directory; the pipeline logs it once per run and skips
// cache lookups, so disabled runs do not count leaf misses.
type Disabled struct {
	Reason string
}

// NewDisabled returns a disabled cache.
func NewDisabled(reason string) *Disabled {
	return &Disabled{Reason: reason}
}

// Get reports a miss.
func (*Disabled) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set drops the leaf.
func (*Disabled) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*Disabled) Delete(context.Context, string) error { return nil }

func (*Disabled) Close() error { return nil }

// DisabledReason returns why c stores nothing, and false for a working cache.
func DisabledReason(c Cache) (string, bool) {
	d, ok := c.(*Disabled)
	if !ok {
		return "", false
	}
	return d.Reason, true
}

var _ Cache = (*Disabled)(nil)
