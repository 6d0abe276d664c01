package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/segraph/pkg/assemble"
	"github.com/matzehuels/segraph/pkg/cache"
	"github.com/matzehuels/segraph/pkg/observability"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// Runner executes the pipeline with caching of solved leaves.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, caching is disabled.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewDisabled("no cache configured")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Run resolves g into oriented chains.
//
// g and reads are not modified. reads maps each read to the nodes it
// supports and may be nil. The returned error is non-nil only for invalid
// options, a graph that fails to build, or cancellation of ctx; component
// failures are reported in [Result.Failures] and [Result.Warnings].
func (r *Runner) Run(ctx context.Context, g *seggraph.Graph, reads [][]int, opts Options) (res *Result, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	start := time.Now()
	runID := uuid.NewString()
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, runID, g.NodeCount(), g.EdgeCount())
	defer func() {
		count := 0
		if res != nil {
			count = len(res.Components)
		}
		hooks.OnRunComplete(ctx, runID, count, time.Since(start), err)
	}()

	res = &Result{RunID: runID}
	if reason, off := cache.DisabledReason(r.Cache); off {
		logger.Debug("leaf cache disabled", "run", runID, "reason", reason)
	}
	res.Stats.InputNodes, res.Stats.InputEdges = g.NodeCount(), g.EdgeCount()

	// Stage 1: Build
	readsCopy := make([][]int, len(reads))
	for i, rd := range reads {
		readsCopy[i] = slices.Clone(rd)
	}
	work, mapping, err := seggraph.Build(g.Nodes(), slices.Concat(g.Edges(), g.Loops()), opts.buildOptions(readsCopy)...)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	if loops := work.Loops(); len(loops) > 0 {
		logger.Warn("self-loop edges kept out of ordering", "run", runID, "count", len(loops))
	}
	if opts.MaxComponentSize > 0 {
		work.ConnectedComponentBounded(opts.MaxComponentSize)
	} else {
		work.ConnectedComponent()
	}
	groups := work.Components()

	res.Graph, res.NodeMap, res.Reads = work, mapping, readsCopy
	res.Stats.Nodes, res.Stats.Edges = work.NodeCount(), work.EdgeCount()
	res.Stats.Components = len(groups)
	res.Stats.BuildTime = time.Since(start)
	logger.Info("built graph",
		"run", runID,
		"nodes", work.NodeCount(),
		"edges", work.EdgeCount(),
		"components", len(groups),
		"duration", res.Stats.BuildTime)

	// Stage 2: Resolve
	resolveStart := time.Now()
	outcomes := make([]componentResult, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers)
	for label, nodes := range groups {
		eg.Go(func() error {
			compStart := time.Now()
			hooks.OnComponentStart(egCtx, label, len(nodes))
			out, err := r.resolveComponent(egCtx, work, label, nodes, &opts)
			if err != nil {
				return err
			}
			hooks.OnComponentComplete(egCtx, label, out.outcome, time.Since(compStart), out.error())
			outcomes[label] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	res.Stats.ResolveTime = time.Since(resolveStart)

	var chains []seggraph.Component
	for _, out := range outcomes {
		res.addOutcome(out)
		chains = append(chains, out.chains...)
	}
	logger.Info("resolved components",
		"run", runID,
		"solved", res.Stats.Solved,
		"timeout", res.Stats.TimedOut,
		"fallback", res.Stats.Fallback,
		"failed", res.Stats.Failed,
		"cache_hits", res.Stats.CacheHits,
		"duration", res.Stats.ResolveTime)

	// Stage 3: Merge
	mergeStart := time.Now()
	chains = assemble.MergeSingleton(chains, work.Nodes(), opts.LenCutOff)
	chains = assemble.MergeComponents(chains, work.Nodes(), opts.MergeCutoff, opts.LenCutOff)
	assemble.SortComponents(chains, work.Nodes())
	res.Components = chains
	res.Stats.MergeTime = time.Since(mergeStart)
	logger.Info("merged components",
		"run", runID,
		"components", len(chains),
		"duration", res.Stats.MergeTime)

	return res, nil
}

func (res *Result) addOutcome(out componentResult) {
	s := &res.Stats
	s.Leaves += out.leaves
	s.BrokenEdges += out.broken
	s.RestoredEdges += out.restored
	s.CacheHits += out.cacheHits
	switch out.outcome {
	case OutcomeSolved:
		s.Solved++
	case OutcomeTimeout:
		s.TimedOut++
		res.Warnings = append(res.Warnings, out.err)
	case OutcomeFallback:
		s.Fallback++
		res.Failures = append(res.Failures, out.err)
	case OutcomeFailed:
		s.Failed++
		res.Failures = append(res.Failures, out.err)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
