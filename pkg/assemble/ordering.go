// Package assemble turns solved adjacency selections into oriented segment
// chains and post-processes the resulting components.
//
// [Ordering] walks the selected adjacencies of a piece. [MergeSingleton] and
// [MergeComponents] attach isolated nodes and small components to nearby
// larger ones on the same reference, and [SortComponents] puts the final list
// into a deterministic genomic order.
package assemble

import (
	"github.com/matzehuels/segraph/pkg/seggraph"
)

type end struct {
	node int
	head bool
}

// Ordering converts the selected adjacencies among nodeIDs into oriented
// chains. selected indexes into edges; edges with an endpoint outside nodeIDs
// are ignored, as is every edge after the first on an already used extremity.
//
// A node entered through its head reads forward and a node entered through
// its tail reads reversed. Chains start at nodes with a free extremity, in
// nodeIDs order; nodes without edges become single-step chains. Cycles are
// opened at their lightest edge (ties by lower edge index). Every chain is
// finally oriented so that most of its nodes read forward, ties going to the
// orientation that starts at the lower node index.
func Ordering(nodeIDs []int, edges []seggraph.Edge, selected []int) []seggraph.Component {
	inPiece := make(map[int]bool, len(nodeIDs))
	for _, v := range nodeIDs {
		inPiece[v] = true
	}
	link := make(map[end]int)
	for _, ei := range selected {
		e := edges[ei]
		if !inPiece[e.Ind1] || !inPiece[e.Ind2] || e.Ind1 == e.Ind2 {
			continue
		}
		a, b := end{e.Ind1, e.Head1}, end{e.Ind2, e.Head2}
		if _, used := link[a]; used {
			continue
		}
		if _, used := link[b]; used {
			continue
		}
		link[a], link[b] = ei, ei
	}

	visited := make(map[int]bool, len(nodeIDs))
	var out []seggraph.Component
	for _, v := range nodeIDs {
		if visited[v] {
			continue
		}
		_, headUsed := link[end{v, true}]
		_, tailUsed := link[end{v, false}]
		if headUsed && tailUsed {
			continue
		}
		out = append(out, orient(walk(v, headUsed, link, edges, visited)))
	}

	// Whatever is left lies on cycles.
	for _, v := range nodeIDs {
		if visited[v] {
			continue
		}
		weak := lightestOnCycle(v, link, edges)
		e := edges[weak]
		delete(link, end{e.Ind1, e.Head1})
		delete(link, end{e.Ind2, e.Head2})
		out = append(out, orient(walk(e.Ind1, !e.Head1, link, edges, visited)))
	}
	return out
}

// walk follows links from start, entering it through its head unless
// reversed is set, and marks every node it reaches.
func walk(start int, reversed bool, link map[end]int, edges []seggraph.Edge, visited map[int]bool) seggraph.Component {
	var comp seggraph.Component
	v, rev := start, reversed
	for !visited[v] {
		visited[v] = true
		comp = append(comp, seggraph.Step{Node: v, Reverse: rev})
		ei, ok := link[end{v, rev}] // exit through the tail when forward
		if !ok {
			break
		}
		w, wHead := edges[ei].Other(v)
		v, rev = w, !wHead
	}
	return comp
}

// lightestOnCycle returns the lightest edge on the cycle through v.
func lightestOnCycle(v int, link map[end]int, edges []seggraph.Edge) int {
	best := -1
	u, exit := v, false
	for {
		ei := link[end{u, exit}]
		if best == -1 || edges[ei].Weight < edges[best].Weight ||
			(edges[ei].Weight == edges[best].Weight && ei < best) {
			best = ei
		}
		w, wHead := edges[ei].Other(u)
		u, exit = w, !wHead
		if u == v {
			return best
		}
	}
}

// orient returns comp read in the direction where most nodes are forward.
func orient(comp seggraph.Component) seggraph.Component {
	forward := 0
	for _, s := range comp {
		if !s.Reverse {
			forward++
		}
	}
	switch {
	case 2*forward < len(comp):
		return comp.Reversed()
	case 2*forward == len(comp) && comp[len(comp)-1].Node < comp[0].Node:
		return comp.Reversed()
	}
	return comp
}
