// Package mincut splits connected components that are too large for the exact
// solver into tractable pieces.
//
// [MincutRecursion] repeatedly cuts a piece along a minimum cut
// ([BalancedCut]) until every piece fits a [Limit]. Edges crossing a cut are
// reported as broken so callers can try to restore them after solving each
// piece independently.
package mincut

import (
	"context"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// Limit is the tractability threshold of the exact solver. A zero field
// disables that bound.
type Limit struct {
	MaxNodes int // Maximum nodes per piece
	MaxEdges int // Maximum internal edges per piece
}

// Fits reports whether a piece with the given counts is within the limit.
func (l Limit) Fits(nodes, edges int) bool {
	return (l.MaxNodes <= 0 || nodes <= l.MaxNodes) && (l.MaxEdges <= 0 || edges <= l.MaxEdges)
}

// Partition is the result of [MincutRecursion].
type Partition struct {
	// Labels holds the leaf index of each input node, parallel to the nodes
	// argument.
	Labels []int

	// Leaves lists the node ids of each leaf piece, in input order.
	Leaves [][]int

	// LeafEdges lists the indices of the edges internal to each leaf.
	LeafEdges [][]int

	// Broken lists the indices of edges that cross a cut, ascending.
	Broken []int

	// CutWeight is the summed weight of the broken edges.
	CutWeight int
}

type piece struct {
	nodes []int
	edges []int
}

// MincutRecursion partitions nodes into pieces that fit limit.
//
// Only edges with both endpoints in nodes are considered; edge indices in the
// result refer to the edges argument. A piece that fits is kept as a leaf.
// Otherwise it is split along a minimum cut of its weighted simple graph
// (weights of edges between the same two nodes are summed regardless of
// extremity), and both sides are processed with their internal edges. Work is
// kept on an explicit stack.
//
// Cuts are balanced: a split may not leave fewer than a quarter of the
// piece's nodes on one side, capped at half of Limit.MaxNodes, unless a
// zero-weight cut exists or no cut of the search qualifies. This bounds the
// recursion depth on long chains where every cut weighs the same.
//
// Leaves are disjoint and cover nodes. A single node that still violates the
// limit, which happens only when edges contain loops on that node, returns an
// error with code [errors.ErrCodeSizeBound]. Duplicate node ids return
// [errors.ErrCodeInvalidInput]. Cancelling ctx stops the recursion between
// splits and returns ctx.Err().
func MincutRecursion(ctx context.Context, nodes []int, edges []seggraph.Edge, limit Limit) (*Partition, error) {
	pos := make(map[int]int, len(nodes))
	for i, v := range nodes {
		if _, dup := pos[v]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "node %d listed twice", v)
		}
		pos[v] = i
	}

	root := piece{nodes: append([]int(nil), nodes...)}
	for i, e := range edges {
		_, ok1 := pos[e.Ind1]
		_, ok2 := pos[e.Ind2]
		if ok1 && ok2 {
			root.edges = append(root.edges, i)
		}
	}

	p := &Partition{Labels: make([]int, len(nodes))}
	var broken []bool
	if len(edges) > 0 {
		broken = make([]bool, len(edges))
	}
	stack := []piece{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if limit.Fits(len(cur.nodes), len(cur.edges)) {
			for _, v := range cur.nodes {
				p.Labels[pos[v]] = len(p.Leaves)
			}
			p.Leaves = append(p.Leaves, cur.nodes)
			p.LeafEdges = append(p.LeafEdges, cur.edges)
			continue
		}
		if len(cur.nodes) < 2 {
			return nil, errors.New(errors.ErrCodeSizeBound,
				"node %d alone exceeds limit (%d edges, max %d)", cur.nodes[0], len(cur.edges), limit.MaxEdges)
		}

		a, b, crossing := split(cur, edges, minSide(limit, len(cur.nodes)))
		for _, ei := range crossing {
			broken[ei] = true
			p.CutWeight += edges[ei].Weight
		}
		stack = append(stack, b, a)
	}

	for i, ok := range broken {
		if ok {
			p.Broken = append(p.Broken, i)
		}
	}
	return p, nil
}

// minSide is the smallest side a split of an n-node piece may leave.
func minSide(l Limit, n int) int {
	m := n / 4
	if l.MaxNodes > 0 {
		m = min(m, l.MaxNodes/2)
	}
	return max(m, 1)
}

// split cuts cur along a balanced minimum cut.
func split(cur piece, edges []seggraph.Edge, minSide int) (a, b piece, crossing []int) {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	local := make(map[int]int64, len(cur.nodes))
	for i, v := range cur.nodes {
		local[v] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, ei := range cur.edges {
		e := edges[ei]
		x, y := local[e.Ind1], local[e.Ind2]
		if x == y {
			continue
		}
		w := float64(e.Weight)
		if prev := g.WeightedEdge(x, y); prev != nil {
			w += prev.Weight()
		}
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(x), simple.Node(y), w))
	}

	cut, _ := BalancedCut(g, minSide)
	side := make([]bool, len(cur.nodes))
	for _, id := range cut.Side {
		side[id] = true
	}
	for i, v := range cur.nodes {
		if side[i] {
			a.nodes = append(a.nodes, v)
		} else {
			b.nodes = append(b.nodes, v)
		}
	}
	for _, ei := range cur.edges {
		e := edges[ei]
		s1, s2 := side[local[e.Ind1]], side[local[e.Ind2]]
		switch {
		case s1 != s2:
			crossing = append(crossing, ei)
		case s1:
			a.edges = append(a.edges, ei)
		default:
			b.edges = append(b.edges, ei)
		}
	}
	return a, b, crossing
}
