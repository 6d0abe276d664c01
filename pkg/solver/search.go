package solver

import (
	"context"
	stderrors "errors"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/matzehuels/segraph/pkg/errors"
)

// Default search limits.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxNodes = 100000
)

const (
	simplexTol  = 1e-10
	integralTol = 1e-6
	boundTol    = 1e-9
)

// Status is the outcome of a solve.
type Status int

const (
	// StatusOptimal means the returned selection is proven optimal.
	StatusOptimal Status = iota
	// StatusTimeout means the search stopped early; the selection is the best
	// incumbent found.
	StatusTimeout
	// StatusInfeasible means no selection satisfies the constraints.
	StatusInfeasible
)

// String returns "optimal", "timeout" or "infeasible".
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusTimeout:
		return "timeout"
	case StatusInfeasible:
		return "infeasible"
	}
	return "unknown"
}

// Solution is the result of [Search.Solve].
type Solution struct {
	Status    Status
	Selected  []bool  // Per model variable
	Edges     []int   // EdgeIndex of each selected variable, ascending
	Objective float64 // Value of the selection
	Explored  int     // Branch-and-bound nodes explored
	Pruned    int     // Nodes pruned by bound or infeasibility
	Duration  time.Duration
}

// DebugInfo describes a finished search.
type DebugInfo struct {
	Vars        int // Model variables
	Constraints int // Extremity constraints
	MaxDepth    int // Deepest branch reached
	LPFailures  int // Relaxations that fell back to the trivial bound
}

// Search is a depth-first branch and bound over a [Model].
type Search struct {
	// Timeout bounds the search. Zero means DefaultTimeout; negative disables
	// the timeout.
	Timeout time.Duration

	// MaxNodes bounds the number of explored branch nodes. Zero means
	// DefaultMaxNodes; negative disables the limit.
	MaxNodes int

	// Progress, if set, is called when the incumbent improves and every 1000
	// explored nodes.
	Progress func(explored, pruned int, best float64)

	// Debug, if set, is called once when the search finishes.
	Debug func(DebugInfo)
}

// branch is one node of the search tree. fixed holds -1 for free variables
// and 0 or 1 for fixed ones.
type branch struct {
	fixed []int8
	depth int
}

// Solve finds a maximum-weight selection for m.
//
// Infeasible models return a Solution with StatusInfeasible and an error with
// code [errors.ErrCodeInfeasible]. When the timeout, the node limit or ctx
// stops the search, Solve returns the incumbent with StatusTimeout and an
// error with code [errors.ErrCodeTimeout]. Otherwise the selection is optimal
// and the error is nil.
func (s Search) Solve(ctx context.Context, m *Model) (*Solution, error) {
	start := time.Now()
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	maxNodes := s.MaxNodes
	if maxNodes == 0 {
		maxNodes = DefaultMaxNodes
	}

	root := make([]int8, m.Vars())
	for j := range root {
		root[j] = -1
		if m.Mandatory[j] {
			root[j] = 1
		}
	}
	if _, ok := m.propagate(root); !ok {
		sol := &Solution{Status: StatusInfeasible, Duration: time.Since(start)}
		return sol, errors.New(errors.ErrCodeInfeasible, "mandatory edges share a node extremity")
	}

	best := m.greedy(root)
	bestVal := m.Value(best)
	sol := &Solution{Status: StatusOptimal}
	info := DebugInfo{Vars: m.Vars(), Constraints: len(m.Extremities)}
	if s.Progress != nil {
		s.Progress(0, 0, bestVal)
	}

	var stopErr error
	stack := []branch{{fixed: root}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			stopErr = errors.Wrap(errors.ErrCodeTimeout, err, "search stopped after %d nodes", sol.Explored)
			break
		}
		if maxNodes > 0 && sol.Explored >= maxNodes {
			stopErr = errors.New(errors.ErrCodeTimeout, "search node limit %d reached", maxNodes)
			break
		}

		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sol.Explored++
		info.MaxDepth = max(info.MaxDepth, cur.depth)
		if s.Progress != nil && sol.Explored%1000 == 0 {
			s.Progress(sol.Explored, sol.Pruned, bestVal)
		}

		fixedVal, ok := m.propagate(cur.fixed)
		if !ok {
			sol.Pruned++
			continue
		}
		bound, x, lpOK := m.relax(cur.fixed, fixedVal)
		if !lpOK {
			info.LPFailures++
		}
		if bound <= bestVal+boundTol {
			sol.Pruned++
			continue
		}

		j := m.branchVar(cur.fixed, x)
		if j < 0 {
			// Every free variable is integral in the relaxation.
			cand := m.round(cur.fixed, x)
			if v := m.Value(cand); v > bestVal+boundTol && m.Feasible(cand) {
				best, bestVal = cand, v
				if s.Progress != nil {
					s.Progress(sol.Explored, sol.Pruned, bestVal)
				}
			}
			continue
		}

		zero := slices.Clone(cur.fixed)
		zero[j] = 0
		one := slices.Clone(cur.fixed)
		one[j] = 1
		stack = append(stack, branch{zero, cur.depth + 1}, branch{one, cur.depth + 1})
	}

	if stopErr != nil {
		sol.Status = StatusTimeout
	}
	sol.Selected = best
	sol.Objective = bestVal
	for j, on := range best {
		if on {
			sol.Edges = append(sol.Edges, m.EdgeIndex[j])
		}
	}
	slices.Sort(sol.Edges)
	sol.Duration = time.Since(start)
	if s.Debug != nil {
		s.Debug(info)
	}
	return sol, stopErr
}

// propagate fixes to 0 every free variable that touches an extremity already
// used by a variable fixed to 1, and variables that cannot improve the
// objective. It returns the value of the fixed variables and false when an
// extremity is used twice.
func (m *Model) propagate(fixed []int8) (float64, bool) {
	used := make([]int, len(m.Extremities))
	var val float64
	for j, f := range fixed {
		if f != 1 {
			continue
		}
		val += m.Objective[j]
		for _, r := range m.varExt[j] {
			used[r]++
			if used[r] > 1 {
				return 0, false
			}
		}
	}
	for j, f := range fixed {
		if f != -1 {
			continue
		}
		if m.Objective[j] <= 0 || used[m.varExt[j][0]] > 0 || used[m.varExt[j][1]] > 0 {
			fixed[j] = 0
		}
	}
	return val, true
}

// relax solves the LP relaxation over the free variables and returns the
// bound on the objective and the relaxed value of each variable. If the
// simplex fails, it falls back to the sum of all free objective coefficients
// and reports false.
func (m *Model) relax(fixed []int8, fixedVal float64) (float64, []float64, bool) {
	var free []int
	for j, f := range fixed {
		if f == -1 {
			free = append(free, j)
		}
	}
	x := make([]float64, m.Vars())
	for j, f := range fixed {
		if f == 1 {
			x[j] = 1
		}
	}
	if len(free) == 0 {
		return fixedVal, x, true
	}

	// Rows: one per extremity touched by a free variable. Columns: free
	// variables, then one slack per row. Upper bounds x <= 1 are implied by
	// the extremity rows.
	rowOf := make(map[int]int)
	for _, j := range free {
		for _, r := range m.varExt[j] {
			if _, ok := rowOf[r]; !ok {
				rowOf[r] = len(rowOf)
			}
		}
	}
	nr := len(rowOf)
	nc := len(free) + nr
	A := mat.NewDense(nr, nc, nil)
	b := make([]float64, nr)
	c := make([]float64, nc)
	for k, j := range free {
		c[k] = -m.Objective[j]
		for _, r := range m.varExt[j] {
			A.Set(rowOf[r], k, 1)
		}
	}
	basic := make([]int, nr)
	for i := 0; i < nr; i++ {
		b[i] = 1
		A.Set(i, len(free)+i, 1)
		basic[i] = len(free) + i
	}

	opt, sx, err := lp.Simplex(c, A, b, simplexTol, basic)
	if err != nil {
		if stderrors.Is(err, lp.ErrInfeasible) {
			return math.Inf(-1), x, true
		}
		bound := fixedVal
		for _, j := range free {
			bound += m.Objective[j]
			x[j] = 0.5
		}
		return bound, x, false
	}
	for k, j := range free {
		x[j] = sx[k]
	}
	return fixedVal - opt, x, true
}

// branchVar returns the free variable whose relaxed value is closest to 1/2,
// or -1 when every free variable is integral.
func (m *Model) branchVar(fixed []int8, x []float64) int {
	best, bestDist := -1, math.Inf(1)
	for j, f := range fixed {
		if f != -1 {
			continue
		}
		frac := x[j] - math.Floor(x[j])
		if frac < integralTol || frac > 1-integralTol {
			continue
		}
		if d := math.Abs(frac - 0.5); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// round returns the integral selection given by fixed and the relaxed values.
func (m *Model) round(fixed []int8, x []float64) []bool {
	sel := make([]bool, m.Vars())
	for j, f := range fixed {
		sel[j] = f == 1 || (f == -1 && x[j] > 0.5)
	}
	return sel
}

// greedy selects the fixed variables plus free variables in descending
// objective order whenever both extremities are still unused.
func (m *Model) greedy(fixed []int8) []bool {
	sel := make([]bool, m.Vars())
	used := make([]bool, len(m.Extremities))
	var order []int
	for j, f := range fixed {
		switch f {
		case 1:
			sel[j] = true
			used[m.varExt[j][0]], used[m.varExt[j][1]] = true, true
		case -1:
			order = append(order, j)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case m.Objective[a] > m.Objective[b]:
			return -1
		case m.Objective[a] < m.Objective[b]:
			return 1
		}
		return 0
	})
	for _, j := range order {
		r1, r2 := m.varExt[j][0], m.varExt[j][1]
		if used[r1] || used[r2] {
			continue
		}
		sel[j] = true
		used[r1], used[r2] = true, true
	}
	return sel
}
