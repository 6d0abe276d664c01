package pipeline

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/segraph/pkg/assemble"
	"github.com/matzehuels/segraph/pkg/cache"
	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/observability"
	"github.com/matzehuels/segraph/pkg/seggraph"
	"github.com/matzehuels/segraph/pkg/seggraph/mincut"
	"github.com/matzehuels/segraph/pkg/seggraph/simplify"
	"github.com/matzehuels/segraph/pkg/solver"
)

const leafKeyType = "leaf"

// componentResult is the outcome of resolving one connected component.
type componentResult struct {
	chains    []seggraph.Component
	outcome   string
	err       *errors.ComponentError // set unless outcome is OutcomeSolved
	leaves    int
	broken    int
	restored  int
	cacheHits int
}

func (c componentResult) error() error {
	if c.err == nil {
		return nil
	}
	return c.err
}

// resolveComponent orders the nodes of one component. Only cancellation of
// ctx is returned as an error; component failures are folded into the result.
func (r *Runner) resolveComponent(ctx context.Context, g *seggraph.Graph, label int, nodes []int, opts *Options) (componentResult, error) {
	pre := seggraph.Forward(g.GenomicOrder(nodes)...)
	if len(nodes) == 1 {
		return componentResult{chains: []seggraph.Component{pre}, outcome: OutcomeSolved}, nil
	}
	logger := opts.Logger.With("component", label)

	simp, err := simplify.SimplifyComponents(g, []seggraph.Component{pre}, opts.SimplifyCutoff)
	if err != nil {
		return fallback(logger, label, pre, OutcomeFailed, err), nil
	}
	skel := simp.Skeleton
	skelNodes := make([]int, skel.NodeCount())
	for i := range skelNodes {
		skelNodes[i] = i
	}
	edges := skel.Edges()

	part, err := mincut.MincutRecursion(ctx, skelNodes, edges, opts.limit())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return componentResult{}, ctxErr
	}
	if err != nil {
		return fallback(logger, label, pre, OutcomeFailed, err), nil
	}
	logger.Debug("partitioned component",
		"nodes", len(nodes),
		"skeleton", len(skelNodes),
		"leaves", len(part.Leaves),
		"broken", len(part.Broken))

	out := componentResult{outcome: OutcomeSolved, leaves: len(part.Leaves), broken: len(part.Broken)}
	var selected []int
	for i, leaf := range part.Leaves {
		leafEdges := make([]seggraph.Edge, len(part.LeafEdges[i]))
		for k, ei := range part.LeafEdges[i] {
			leafEdges[k] = edges[ei]
		}
		picked, hit, err := r.solveLeaf(ctx, logger.With("leaf", i), leaf, leafEdges, opts)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return componentResult{}, ctxErr
		}
		if hit {
			out.cacheHits++
		}
		switch {
		case err == nil:
		case errors.Is(err, errors.ErrCodeTimeout):
			out.outcome = OutcomeTimeout
			out.err = &errors.ComponentError{Component: label, Err: err}
		case errors.Is(err, errors.ErrCodeInfeasible):
			return fallback(logger, label, pre, OutcomeFallback, err), nil
		default:
			return fallback(logger, label, pre, OutcomeFailed, err), nil
		}
		for _, k := range picked {
			selected = append(selected, part.LeafEdges[i][k])
		}
	}

	all, err := solver.ResolveBroken(selected, part.Broken, edges, opts.solverOptions())
	if err != nil {
		return fallback(logger, label, pre, OutcomeFallback, err), nil
	}
	out.restored = restoredCount(all, part.Broken)
	chains := assemble.Ordering(skelNodes, edges, all)
	out.chains, err = simplify.DesimplifyComponents(chains, simp.Mapping)
	if err != nil {
		return fallback(logger, label, pre, OutcomeFailed, err), nil
	}
	if out.outcome == OutcomeTimeout {
		logger.Warn("solver timed out, using best selection found")
	}
	return out, nil
}

// restoredCount returns how many of the broken edges are in kept. Both are
// ascending.
func restoredCount(kept, broken []int) int {
	n := 0
	for _, ei := range broken {
		if _, ok := slices.BinarySearch(kept, ei); ok {
			n++
		}
	}
	return n
}

// fallback emits the pre-solve order of a component that could not be solved.
func fallback(logger *log.Logger, label int, pre seggraph.Component, outcome string, err error) componentResult {
	logger.Warn("component not solved, keeping genomic order", "outcome", outcome, "err", err)
	return componentResult{
		chains:  []seggraph.Component{pre},
		outcome: outcome,
		err:     &errors.ComponentError{Component: label, Err: err},
	}
}

// solveLeaf selects adjacencies for one leaf piece. The returned positions
// index leafEdges. Only optimal selections are cached.
func (r *Runner) solveLeaf(ctx context.Context, logger *log.Logger, nodes []int, leafEdges []seggraph.Edge, opts *Options) ([]int, bool, error) {
	hooks := observability.Cache()
	_, disabled := cache.DisabledReason(r.Cache)
	var key string
	if !disabled {
		key = r.Keyer.LeafKey(nodes, leafEdges, opts.LeafKeyOpts())
	}

	// Try cache first (unless refresh requested)
	if !disabled && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var picked []int
			if err := json.Unmarshal(data, &picked); err == nil && validPositions(picked, len(leafEdges)) {
				hooks.OnCacheHit(ctx, leafKeyType)
				return picked, true, nil
			}
		}
		hooks.OnCacheMiss(ctx, leafKeyType)
	}

	model := solver.GenerateILP(nodes, leafEdges, opts.solverOptions())
	search, sl := newSearch(opts, logger)
	sol, err := search.Solve(ctx, model)
	observability.Solver().OnSolve(ctx, sol.Status.String(), model.Vars(), sol.Explored, sol.Duration)
	sl.done(sol)
	if err != nil && sol.Status != solver.StatusTimeout {
		return nil, false, err
	}

	if !disabled && sol.Status == solver.StatusOptimal {
		if data, merr := json.Marshal(sol.Edges); merr == nil {
			if serr := r.Cache.Set(ctx, key, data, cache.DefaultTTL); serr == nil {
				hooks.OnCacheSet(ctx, leafKeyType, len(data))
			} else {
				logger.Debug("cache write failed", "err", serr)
			}
		}
	}
	return sol.Edges, false, err
}

func validPositions(picked []int, n int) bool {
	for _, k := range picked {
		if k < 0 || k >= n {
			return false
		}
	}
	return true
}
