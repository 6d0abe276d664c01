// Package pipeline resolves a breakpoint graph into oriented segment chains.
//
// This package implements the complete flow used by the CLI. By centralizing
// it, every entry point applies the same defaults, error policy and caching.
//
// # Architecture
//
// A run has three stages:
//
//  1. Build: filter weak and interleaving edges, compress pass-through
//     chains, and label connected components
//  2. Resolve: per component, simplify low-support nodes, split the skeleton
//     with recursive min cuts, solve each piece exactly, restore broken edges,
//     walk the selected adjacencies and expand the skeleton again
//  3. Merge: attach singletons and small components to nearby chains and sort
//     the result
//
// Components are independent after labeling and are resolved on a bounded
// worker pool ([Options.Workers]).
//
// # Error Policy
//
// Failures of a single component never abort a run:
//   - Structural and size-bound errors emit the component's nodes in genomic
//     order and record a failure
//   - Infeasible solves fall back to the pre-solve order
//   - Solver timeouts keep the best selection found and record a warning
//
// Only invalid options and cancellation of the run context return an error.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Run(ctx, dataset.Graph, dataset.Reads, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, c := range result.Components {
//	    fmt.Println(c)
//	}
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/segraph/pkg/assemble"
	"github.com/matzehuels/segraph/pkg/cache"
	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/seggraph"
	"github.com/matzehuels/segraph/pkg/seggraph/mincut"
	"github.com/matzehuels/segraph/pkg/solver"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWeightCutoff is the minimum supporting evidence an edge needs.
	DefaultWeightCutoff = seggraph.DefaultWeightCutoff

	// DefaultSimplifyCutoff is the support at which a node stays its own
	// skeleton node.
	DefaultSimplifyCutoff = 3

	// DefaultMaxSolverNodes and DefaultMaxSolverEdges bound the pieces handed
	// to the exact solver.
	DefaultMaxSolverNodes = 40
	DefaultMaxSolverEdges = 120

	// DefaultSolverTimeout bounds each exact solve.
	DefaultSolverTimeout = solver.DefaultTimeout

	// DefaultMaxSearchNodes bounds the branch-and-bound tree of each solve.
	DefaultMaxSearchNodes = solver.DefaultMaxNodes

	// DefaultLenCutOff is the largest gap in bases bridged by merging.
	DefaultLenCutOff = assemble.DefaultLenCutOff

	// DefaultMergeCutoff is the node count below which a component is merged
	// into a larger neighbor.
	DefaultMergeCutoff = assemble.DefaultMergeCutoff

	// DefaultWorkers processes components sequentially.
	DefaultWorkers = 1
)

// Component outcomes reported to hooks and counted in [Stats].
const (
	OutcomeSolved   = "solved"
	OutcomeTimeout  = "timeout"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a run. Zero values select the defaults above; for the
// limits marked below a negative value disables the limit.
type Options struct {
	// Build options
	WeightCutoff     int  `json:"weight_cutoff,omitempty" toml:"weight_cutoff" yaml:"weight_cutoff"` // negative keeps every edge
	SkipInterleaving bool `json:"skip_interleaving,omitempty" toml:"skip_interleaving" yaml:"skip_interleaving"`
	SkipCompress     bool `json:"skip_compress,omitempty" toml:"skip_compress" yaml:"skip_compress"`
	MaxComponentSize int  `json:"max_component_size,omitempty" toml:"max_component_size" yaml:"max_component_size"` // 0 is unbounded

	// Resolve options
	SimplifyCutoff  int           `json:"simplify_cutoff,omitempty" toml:"simplify_cutoff" yaml:"simplify_cutoff"`
	MaxSolverNodes  int           `json:"max_solver_nodes,omitempty" toml:"max_solver_nodes" yaml:"max_solver_nodes"` // negative is unbounded
	MaxSolverEdges  int           `json:"max_solver_edges,omitempty" toml:"max_solver_edges" yaml:"max_solver_edges"` // negative is unbounded
	SolverTimeout   time.Duration `json:"solver_timeout,omitempty" toml:"solver_timeout" yaml:"solver_timeout"`       // negative is unbounded
	MaxSearchNodes  int           `json:"max_search_nodes,omitempty" toml:"max_search_nodes" yaml:"max_search_nodes"` // negative is unbounded
	ChimericFactor  float64       `json:"chimeric_factor,omitempty" toml:"chimeric_factor" yaml:"chimeric_factor"`
	MandatoryWeight int           `json:"mandatory_weight,omitempty" toml:"mandatory_weight" yaml:"mandatory_weight"` // 0 is off
	Refresh         bool          `json:"refresh,omitempty" toml:"refresh" yaml:"refresh"`                            // ignore cached leaves

	// Merge options
	LenCutOff   int `json:"len_cutoff,omitempty" toml:"len_cutoff" yaml:"len_cutoff"`
	MergeCutoff int `json:"merge_cutoff,omitempty" toml:"merge_cutoff" yaml:"merge_cutoff"`

	// Runtime options
	Workers int         `json:"workers,omitempty" toml:"workers" yaml:"workers"`
	Logger  *log.Logger `json:"-" toml:"-" yaml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks option ranges and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	checks := []error{
		errors.ValidateNonNegative("max_component_size", o.MaxComponentSize),
		errors.ValidateNonNegative("simplify_cutoff", o.SimplifyCutoff),
		errors.ValidateNonNegative("mandatory_weight", o.MandatoryWeight),
		errors.ValidateNonNegative("len_cutoff", o.LenCutOff),
		errors.ValidateNonNegative("merge_cutoff", o.MergeCutoff),
		errors.ValidateNonNegative("workers", o.Workers),
	}
	if o.ChimericFactor != 0 {
		checks = append(checks, errors.ValidateFactor("chimeric_factor", o.ChimericFactor))
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	setDefault(&o.WeightCutoff, DefaultWeightCutoff)
	setDefault(&o.SimplifyCutoff, DefaultSimplifyCutoff)
	setDefault(&o.MaxSolverNodes, DefaultMaxSolverNodes)
	setDefault(&o.MaxSolverEdges, DefaultMaxSolverEdges)
	setDefault(&o.MaxSearchNodes, DefaultMaxSearchNodes)
	setDefault(&o.LenCutOff, DefaultLenCutOff)
	setDefault(&o.MergeCutoff, DefaultMergeCutoff)
	setDefault(&o.Workers, DefaultWorkers)
	if o.SolverTimeout == 0 {
		o.SolverTimeout = DefaultSolverTimeout
	}
	if o.ChimericFactor == 0 {
		o.ChimericFactor = solver.DefaultChimericFactor
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

// buildOptions returns the graph construction options.
func (o *Options) buildOptions(reads [][]int) []seggraph.BuildOption {
	return []seggraph.BuildOption{
		seggraph.WithWeightCutoff(max(o.WeightCutoff, 0)),
		seggraph.WithInterleavingFilter(!o.SkipInterleaving),
		seggraph.WithCompression(!o.SkipCompress),
		seggraph.WithReads(reads),
	}
}

// limit returns the tractability threshold of the exact solver.
func (o *Options) limit() mincut.Limit {
	return mincut.Limit{MaxNodes: max(o.MaxSolverNodes, 0), MaxEdges: max(o.MaxSolverEdges, 0)}
}

// solverOptions returns the model generation options.
func (o *Options) solverOptions() solver.Options {
	return solver.Options{ChimericFactor: o.ChimericFactor, MandatoryWeight: o.MandatoryWeight}
}

// LeafKeyOpts returns cache key options for solved leaves.
func (o *Options) LeafKeyOpts() cache.LeafKeyOpts {
	return cache.LeafKeyOpts{ChimericFactor: o.ChimericFactor, MandatoryWeight: o.MandatoryWeight}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a run.
type Result struct {
	// RunID identifies the run in logs and metrics.
	RunID string

	// Graph is the filtered and compressed graph. Component steps index its
	// nodes.
	Graph *seggraph.Graph

	// NodeMap maps input node indices to Graph node indices. Nil when
	// compression is skipped.
	NodeMap []int

	// Reads is the read-to-node table rewritten through NodeMap.
	Reads [][]int

	// Components are the resolved chains in genomic order.
	Components []seggraph.Component

	// Failures lists components that fell back to an unsolved order.
	Failures []*errors.ComponentError

	// Warnings lists components whose solve hit a limit.
	Warnings []*errors.ComponentError

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains run statistics.
type Stats struct {
	InputNodes int
	InputEdges int
	Nodes      int // After filtering and compression
	Edges      int

	Components    int // Connected components
	Leaves        int // Pieces handed to the solver
	BrokenEdges   int // Edges cut by min-cut partitioning
	RestoredEdges int // Broken edges added back after solving
	CacheHits     int

	Solved   int
	TimedOut int
	Fallback int
	Failed   int

	BuildTime   time.Duration
	ResolveTime time.Duration
	MergeTime   time.Duration
}
