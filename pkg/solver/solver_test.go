package solver

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

func e(a int, ha bool, b int, hb bool, w int) seggraph.Edge {
	return seggraph.Edge{Ind1: a, Head1: ha, Ind2: b, Head2: hb, Weight: w}
}

// bruteForce enumerates every selection of m.
func bruteForce(m *Model) (float64, bool) {
	best, found := 0.0, false
	n := m.Vars()
	sel := make([]bool, n)
	for mask := 0; mask < 1<<n; mask++ {
		for j := range sel {
			sel[j] = mask&(1<<j) != 0
		}
		if !m.Feasible(sel) {
			continue
		}
		if v := m.Value(sel); !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

func TestGenerateILP(t *testing.T) {
	edges := []seggraph.Edge{
		e(0, false, 1, true, 5),
		{Ind1: 1, Ind2: 2, Head2: true, Weight: 4, Provenance: seggraph.ProvenanceChimeric},
		e(2, false, 9, true, 7), // outside the piece
		e(0, false, 2, true, 12),
	}

	m := GenerateILP([]int{0, 1, 2}, edges, Options{ChimericFactor: 2, MandatoryWeight: 10})

	require.Equal(t, 3, m.Vars())
	assert.Equal(t, []int{0, 1, 3}, m.EdgeIndex)
	assert.Equal(t, []float64{5, 8, 12}, m.Objective)
	assert.Equal(t, []bool{false, false, true}, m.Mandatory)
	// Extremities: 0.tail, 1.head, 1.tail, 2.head.
	assert.Len(t, m.Extremities, 4)
	assert.Equal(t, []int{0, 2}, m.Extremities[0])
}

func TestSolveOptimal(t *testing.T) {
	// The greedy choice (weight 10 on 0.tail-2.head) blocks two edges worth 14.
	edges := []seggraph.Edge{
		e(0, false, 2, true, 10),
		e(0, false, 1, true, 7),
		e(1, false, 2, true, 7),
	}
	m := GenerateILP([]int{0, 1, 2}, edges, Options{})

	sol, err := Search{}.Solve(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 14.0, sol.Objective)
	assert.Equal(t, []int{1, 2}, sol.Edges)
}

func TestSolveMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 8))
	for trial := 0; trial < 40; trial++ {
		n := 3 + r.IntN(4)
		nodes := make([]int, n)
		for i := range nodes {
			nodes[i] = i
		}
		var edges []seggraph.Edge
		count := 4 + r.IntN(8)
		for k := 0; k < count; k++ {
			a, b := r.IntN(n), r.IntN(n)
			if a == b {
				continue
			}
			edges = append(edges, e(a, r.IntN(2) == 0, b, r.IntN(2) == 0, 1+r.IntN(15)))
		}
		m := GenerateILP(nodes, edges, Options{})

		sol, err := Search{}.Solve(context.Background(), m)
		require.NoError(t, err, "trial %d", trial)

		want, ok := bruteForce(m)
		require.True(t, ok)
		assert.InDelta(t, want, sol.Objective, 1e-6, "trial %d", trial)
		assert.True(t, m.Feasible(sol.Selected), "trial %d", trial)
	}
}

func TestSolveMandatory(t *testing.T) {
	edges := []seggraph.Edge{
		e(0, false, 1, true, 9),
		{Ind1: 0, Ind2: 2, Head2: true, Weight: 1, Mandatory: true},
	}
	m := GenerateILP([]int{0, 1, 2}, edges, Options{})

	sol, err := Search{}.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, sol.Edges)
	assert.Equal(t, 1.0, sol.Objective)
}

func TestSolveInfeasible(t *testing.T) {
	// Two mandatory adjacencies on the tail of node 0.
	edges := []seggraph.Edge{
		{Ind1: 0, Ind2: 1, Head2: true, Weight: 3, Mandatory: true},
		{Ind1: 0, Ind2: 2, Head2: true, Weight: 3, Mandatory: true},
	}
	m := GenerateILP([]int{0, 1, 2}, edges, Options{})

	sol, err := Search{}.Solve(context.Background(), m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInfeasible))
	assert.Equal(t, StatusInfeasible, sol.Status)
}

func TestSolveTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	edges := []seggraph.Edge{e(0, false, 1, true, 4), e(1, false, 2, true, 6)}
	m := GenerateILP([]int{0, 1, 2}, edges, Options{})

	sol, err := Search{Timeout: time.Second}.Solve(ctx, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeTimeout))
	assert.Equal(t, StatusTimeout, sol.Status)
	assert.Equal(t, 10.0, sol.Objective, "greedy incumbent is returned")
	assert.True(t, m.Feasible(sol.Selected))
}

func TestSolveUnlimitedNodes(t *testing.T) {
	edges := []seggraph.Edge{
		e(0, false, 2, true, 10),
		e(0, false, 1, true, 7),
		e(1, false, 2, true, 7),
	}
	m := GenerateILP([]int{0, 1, 2}, edges, Options{})

	var calls int
	sol, err := Search{MaxNodes: -1, Progress: func(int, int, float64) { calls++ }}.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Positive(t, calls)
}

func TestSolveEmpty(t *testing.T) {
	m := GenerateILP([]int{0}, nil, Options{})

	sol, err := Search{}.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Empty(t, sol.Edges)
}

func TestResolveBroken(t *testing.T) {
	edges := []seggraph.Edge{
		e(0, false, 1, true, 5),  // selected
		e(1, false, 2, true, 3),  // broken, loses 1.tail to edge 4
		e(0, false, 2, true, 9),  // broken, 0.tail used
		e(2, false, 3, false, 4), // broken, free
		e(1, false, 3, true, 8),  // broken, free
	}

	got, err := ResolveBroken([]int{0}, []int{1, 2, 3, 4}, edges, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3, 4}, got)
}

func TestResolveBrokenMandatoryFirst(t *testing.T) {
	mandatory := e(0, false, 3, true, 2)
	mandatory.Mandatory = true
	edges := []seggraph.Edge{
		e(0, false, 1, true, 9),  // selected, gives way
		e(2, false, 1, true, 12), // broken, heavier but not mandatory
		mandatory,                // broken
		e(1, false, 3, false, 5), // broken, free
	}

	got, err := ResolveBroken([]int{0}, []int{1, 2, 3}, edges, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestResolveBrokenMandatoryWeight(t *testing.T) {
	edges := []seggraph.Edge{
		e(0, false, 1, true, 3), // selected
		e(0, false, 2, true, 8), // broken, mandatory by weight
	}

	got, err := ResolveBroken([]int{0}, []int{1}, edges, Options{MandatoryWeight: 8})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)

	got, err = ResolveBroken([]int{0}, []int{1}, edges, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestResolveBrokenMandatoryConflict(t *testing.T) {
	edges := []seggraph.Edge{
		{Ind1: 0, Ind2: 1, Head2: true, Weight: 4, Mandatory: true}, // selected
		{Ind1: 0, Ind2: 2, Head2: true, Weight: 4, Mandatory: true}, // broken
	}

	_, err := ResolveBroken([]int{0}, []int{1}, edges, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInfeasible))
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusOptimal, "optimal"},
		{StatusTimeout, "timeout"},
		{StatusInfeasible, "infeasible"},
		{Status(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
