package cache

import "github.com/matzehuels/segraph/pkg/seggraph"

// ScopedKeyer wraps a Keyer with a prefix so that several datasets or
// solver versions can share one backend without colliding.
//
// Example usage:
//
//	// Keep leaves of a sample apart from everything else in a shared redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "sample:NA12878:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LeafKey generates a prefixed leaf key.
func (k *ScopedKeyer) LeafKey(nodes []int, edges []seggraph.Edge, opts LeafKeyOpts) string {
	return k.prefix + k.inner.LeafKey(nodes, edges, opts)
}
