// Package solver selects an optimal set of adjacencies for a small breakpoint
// graph piece by solving a 0/1 integer program exactly.
//
// # Formulation
//
// Every candidate edge e gets a binary variable y_e. Each node extremity (a
// node's head or tail) may be used by at most one selected edge:
//
//	Σ_{e at extremity} y_e ≤ 1
//
// Mandatory edges are fixed to 1. The objective maximizes Σ w_e·y_e, where w_e
// is the edge weight, multiplied by the chimeric factor for chimeric edges.
// The selected edges form vertex-disjoint paths and cycles over node
// extremities, which assemble.Ordering turns into oriented chains.
//
// # Search
//
// [Search.Solve] runs a depth-first branch and bound. Bounds come from the LP
// relaxation solved with gonum's simplex implementation; the initial incumbent
// is a greedy selection by descending weight. When the timeout or node limit
// is hit, the best selection found so far is returned with [StatusTimeout].
package solver

import (
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// DefaultChimericFactor leaves chimeric weights unchanged.
const DefaultChimericFactor = 1.0

// Options configures model generation.
type Options struct {
	// ChimericFactor multiplies the objective weight of chimeric edges.
	// Zero means DefaultChimericFactor.
	ChimericFactor float64

	// MandatoryWeight marks edges with at least this weight as mandatory in
	// addition to edges flagged Mandatory. Zero disables the threshold.
	MandatoryWeight int
}

// mandatory reports whether e must be selected.
func (o Options) mandatory(e seggraph.Edge) bool {
	return e.Mandatory || (o.MandatoryWeight > 0 && e.Weight >= o.MandatoryWeight)
}

// Model is a 0/1 edge-selection program over one graph piece.
type Model struct {
	Nodes     []int           // Node ids of the piece
	Edges     []seggraph.Edge // Candidate edges, one per variable
	EdgeIndex []int           // Index of each candidate in the edges passed to GenerateILP
	Objective []float64       // Objective coefficient per variable
	Mandatory []bool          // Variables fixed to 1

	// Extremities lists the variables incident to each constrained node
	// extremity. Only extremities with at least one candidate appear.
	Extremities [][]int

	// varExt holds the two extremity rows of each variable.
	varExt [][2]int
}

// Vars returns the number of variables.
func (m *Model) Vars() int { return len(m.Edges) }

type extremity struct {
	node int
	head bool
}

// GenerateILP builds the edge-selection model for the piece spanned by nodes.
// Edges with an endpoint outside nodes, and loops, are not candidates.
func GenerateILP(nodes []int, edges []seggraph.Edge, opts Options) *Model {
	factor := opts.ChimericFactor
	if factor == 0 {
		factor = DefaultChimericFactor
	}
	inPiece := make(map[int]bool, len(nodes))
	for _, v := range nodes {
		inPiece[v] = true
	}

	m := &Model{Nodes: append([]int(nil), nodes...)}
	rows := make(map[extremity]int)
	row := func(x extremity) int {
		r, ok := rows[x]
		if !ok {
			r = len(m.Extremities)
			rows[x] = r
			m.Extremities = append(m.Extremities, nil)
		}
		return r
	}

	for i, e := range edges {
		if !inPiece[e.Ind1] || !inPiece[e.Ind2] || e.Ind1 == e.Ind2 {
			continue
		}
		j := len(m.Edges)
		w := float64(e.Weight)
		if e.Provenance == seggraph.ProvenanceChimeric {
			w *= factor
		}
		r1 := row(extremity{e.Ind1, e.Head1})
		r2 := row(extremity{e.Ind2, e.Head2})
		m.Extremities[r1] = append(m.Extremities[r1], j)
		m.Extremities[r2] = append(m.Extremities[r2], j)

		m.Edges = append(m.Edges, e)
		m.EdgeIndex = append(m.EdgeIndex, i)
		m.Objective = append(m.Objective, w)
		m.Mandatory = append(m.Mandatory, opts.mandatory(e))
		m.varExt = append(m.varExt, [2]int{r1, r2})
	}
	return m
}

// Value returns the objective value of a selection.
func (m *Model) Value(selected []bool) float64 {
	var v float64
	for j, on := range selected {
		if on {
			v += m.Objective[j]
		}
	}
	return v
}

// Feasible reports whether selected uses every extremity at most once and
// includes every mandatory variable.
func (m *Model) Feasible(selected []bool) bool {
	for j, mand := range m.Mandatory {
		if mand && !selected[j] {
			return false
		}
	}
	for _, vars := range m.Extremities {
		n := 0
		for _, j := range vars {
			if selected[j] {
				n++
			}
		}
		if n > 1 {
			return false
		}
	}
	return true
}
