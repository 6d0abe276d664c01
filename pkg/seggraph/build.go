package seggraph

// DefaultWeightCutoff is the minimum edge weight kept by [Build].
const DefaultWeightCutoff = 5

// BuildOption configures [Build].
type BuildOption func(*buildConfig)

type buildConfig struct {
	cutoff       int
	interleaving bool
	compress     bool
	reads        [][]int
}

// WithWeightCutoff sets the FilterbyWeight threshold. Zero keeps every edge.
func WithWeightCutoff(cutoff int) BuildOption {
	return func(c *buildConfig) { c.cutoff = cutoff }
}

// WithInterleavingFilter enables or disables FilterbyInterleaving.
func WithInterleavingFilter(on bool) BuildOption {
	return func(c *buildConfig) { c.interleaving = on }
}

// WithCompression enables or disables CompressNode.
func WithCompression(on bool) BuildOption {
	return func(c *buildConfig) { c.compress = on }
}

// WithReads supplies a read-to-node table that is rewritten in place when
// nodes are compressed.
func WithReads(readNode [][]int) BuildOption {
	return func(c *buildConfig) { c.reads = readNode }
}

// Build constructs a graph and prepares it for labeling: edges below the weight
// cutoff are removed, interleaving chimeric edges are filtered if enabled, and
// pass-through chains are compressed.
//
// Defaults: cutoff [DefaultWeightCutoff], interleaving filter off, compression
// on. The returned mapping is the old-to-new node index map from compression,
// or nil when compression is disabled.
func Build(nodes []Node, edges []Edge, opts ...BuildOption) (*Graph, []int, error) {
	cfg := buildConfig{cutoff: DefaultWeightCutoff, compress: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	g, err := New(nodes, edges)
	if err != nil {
		return nil, nil, err
	}
	if cfg.cutoff > 0 {
		g.FilterbyWeight(cfg.cutoff)
	}
	if cfg.interleaving {
		g.FilterbyInterleaving()
	}
	var mapping []int
	if cfg.compress {
		mapping = g.CompressNodeWithReads(cfg.reads)
	}
	return g, mapping, nil
}
