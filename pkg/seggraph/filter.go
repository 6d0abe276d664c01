package seggraph

import (
	"cmp"
	"slices"
)

// FilterbyWeight removes every edge whose weight is below threshold and
// returns the number of removed edges.
//
// Removing edges may disconnect nodes, so component labels are reset to -1;
// callers must relabel with [Graph.ConnectedComponent] afterwards.
func (g *Graph) FilterbyWeight(threshold int) int {
	return g.RemoveEdges(func(_ int, e Edge) bool { return e.Weight < threshold })
}

// FilterbyInterleaving removes chimeric edges that interleave a heavier
// chimeric edge and returns the number of removed edges.
//
// Two chimeric edges interleave when they join the same ordered pair of
// references with the same extremity signature and their genomic spans
// strictly cross (a < c < b < d). Such junctions cannot both lie on one
// left-to-right traversal of the rearranged genome. Edges are considered in
// descending weight, ties by lower index, and an edge survives only if it does
// not interleave any edge that already survived. Raw edges are never removed.
//
// Component labels are reset to -1.
func (g *Graph) FilterbyInterleaving() int {
	var order []int
	for i, e := range g.edges {
		if e.Provenance == ProvenanceChimeric {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(g.edges[b].Weight, g.edges[a].Weight)
	})

	var kept []span
	drop := make(map[int]bool)
	for _, i := range order {
		s := g.span(g.edges[i])
		if slices.ContainsFunc(kept, s.interleaves) {
			drop[i] = true
			continue
		}
		kept = append(kept, s)
	}
	if len(drop) == 0 {
		g.resetLabels()
		return 0
	}
	return g.RemoveEdges(func(i int, _ Edge) bool { return drop[i] })
}

// span is an edge with its endpoints ordered along the genome.
type span struct {
	g              *Graph
	lo, hi         int
	loHead, hiHead bool
}

func (g *Graph) span(e Edge) span {
	s := span{g: g, lo: e.Ind1, hi: e.Ind2, loHead: e.Head1, hiHead: e.Head2}
	if g.compareIndex(s.lo, s.hi) > 0 {
		s.lo, s.hi = s.hi, s.lo
		s.loHead, s.hiHead = s.hiHead, s.loHead
	}
	return s
}

func (s span) interleaves(o span) bool {
	g := s.g
	if s.loHead != o.loHead || s.hiHead != o.hiHead {
		return false
	}
	if g.nodes[s.lo].Chr != g.nodes[o.lo].Chr || g.nodes[s.hi].Chr != g.nodes[o.hi].Chr {
		return false
	}
	less := func(a, b int) bool { return g.compareIndex(a, b) < 0 }
	return (less(s.lo, o.lo) && less(o.lo, s.hi) && less(s.hi, o.hi)) ||
		(less(o.lo, s.lo) && less(s.lo, o.hi) && less(o.hi, s.hi))
}
