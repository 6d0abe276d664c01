package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/segraph/pkg/solver"
)

// searchLogger wraps solver.Search with progress logging.
// It logs the initial incumbent, improvements, and a heartbeat every 10 seconds.
//
// A searchLogger serves one solve and is not safe for concurrent use.
type searchLogger struct {
	logger                   *log.Logger
	timeout                  time.Duration
	lastExplored, lastPruned int
	lastBest                 float64
	seen                     bool
	start, lastLog           time.Time
}

// newSearch returns a search configured from opts that logs to logger.
func newSearch(opts *Options, logger *log.Logger) (solver.Search, *searchLogger) {
	l := &searchLogger{
		logger:  logger,
		timeout: opts.SolverTimeout,
		start:   time.Now(),
	}
	return solver.Search{
		Timeout:  opts.SolverTimeout,
		MaxNodes: opts.MaxSearchNodes,
		Progress: l.onProgress,
		Debug:    l.onDebug,
	}, l
}

func (l *searchLogger) onProgress(explored, pruned int, best float64) {
	l.lastExplored, l.lastPruned = explored, pruned
	switch {
	case !l.seen:
		l.logger.Debugf("Initial: weight %.0f (explored: %d, pruned: %d)", best, explored, pruned)
		l.lastLog = time.Now()
	case best > l.lastBest:
		l.logger.Debugf("Improved: weight %.0f (+%.0f)", best, best-l.lastBest)
		l.lastLog = time.Now()
	default:
		if time.Since(l.lastLog) >= 10*time.Second {
			elapsed := time.Since(l.start).Truncate(time.Second)
			l.logger.Infof("Searching... %v/%v elapsed, weight %.0f (explored: %d, pruned: %d)",
				elapsed, l.timeout, best, explored, pruned)
			l.lastLog = time.Now()
		}
	}
	l.seen = true
	l.lastBest = best
}

func (l *searchLogger) onDebug(info solver.DebugInfo) {
	l.logger.Debugf("Search space: %d vars, %d constraints, max depth reached: %d/%d",
		info.Vars, info.Constraints, info.MaxDepth, info.Vars)
	if info.LPFailures > 0 {
		l.logger.Debugf("  %d relaxations failed and used the trivial bound", info.LPFailures)
	}
}

// done logs the final state of the search.
func (l *searchLogger) done(sol *solver.Solution) {
	l.logger.Debugf("Best: weight %.0f, %s (explored: %d, pruned: %d)",
		sol.Objective, sol.Status, sol.Explored, sol.Pruned)
	if sol.Status == solver.StatusTimeout {
		l.logger.Warn("Solver stopped early; try increasing --solver-timeout or lowering --max-solver-edges")
	}
}
