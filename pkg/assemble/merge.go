package assemble

import (
	"cmp"
	"slices"

	"github.com/tidwall/btree"

	"github.com/matzehuels/segraph/pkg/seggraph"
)

// Defaults for the merge passes.
const (
	DefaultLenCutOff   = 500000
	DefaultMergeCutoff = 5
)

// boundary is one end of a component, keyed by the reference coordinate of
// its outward-facing node end.
type boundary struct {
	chr   int
	pos   int
	comp  int
	right bool // last step of the component
	fwd   bool // boundary step reads forward
}

func boundaryLess(a, b boundary) bool {
	if a.chr != b.chr {
		return a.chr < b.chr
	}
	if a.pos != b.pos {
		return a.pos < b.pos
	}
	if a.comp != b.comp {
		return a.comp < b.comp
	}
	return !a.right && b.right
}

// outward reports whether the component continues toward higher coordinates
// past this boundary.
func (b boundary) outward() bool { return b.right == b.fwd }

// boundaryIndex holds the ends of every component that can absorb others.
type boundaryIndex struct {
	tree  *btree.BTreeG[boundary]
	comps []seggraph.Component
	nodes []seggraph.Node
}

func newBoundaryIndex(comps []seggraph.Component, nodes []seggraph.Node) *boundaryIndex {
	return &boundaryIndex{
		tree:  btree.NewBTreeG[boundary](boundaryLess),
		comps: comps,
		nodes: nodes,
	}
}

func (ix *boundaryIndex) ends(ci int) [2]boundary {
	comp := ix.comps[ci]
	first, last := comp[0], comp[len(comp)-1]
	return [2]boundary{ix.end(ci, first, false), ix.end(ci, last, true)}
}

func (ix *boundaryIndex) end(ci int, s seggraph.Step, right bool) boundary {
	n := ix.nodes[s.Node]
	b := boundary{chr: n.Chr, comp: ci, right: right, fwd: !s.Reverse}
	if b.outward() {
		b.pos = n.End()
	} else {
		b.pos = n.Position
	}
	return b
}

func (ix *boundaryIndex) add(ci int) {
	for _, b := range ix.ends(ci) {
		ix.tree.Set(b)
	}
}

func (ix *boundaryIndex) remove(ci int) {
	for _, b := range ix.ends(ci) {
		ix.tree.Delete(b)
	}
}

// nearest finds the closest boundary on chr that faces the interval [lo, hi)
// from outside with a gap of at most lenCutOff. Ties go to the lower
// component index, then to the left end.
func (ix *boundaryIndex) nearest(chr, lo, hi, lenCutOff int) (boundary, bool) {
	var best boundary
	bestGap := -1
	pivot := boundary{chr: chr, pos: lo - lenCutOff, comp: -1}
	ix.tree.Ascend(pivot, func(b boundary) bool {
		if b.chr != chr || b.pos > hi+lenCutOff {
			return false
		}
		gap := b.pos - hi
		if b.outward() {
			gap = lo - b.pos
		}
		if gap < 0 || gap > lenCutOff {
			return true
		}
		if bestGap == -1 || gap < bestGap ||
			(gap == bestGap && (b.comp < best.comp || (b.comp == best.comp && !b.right))) {
			best, bestGap = b, gap
		}
		return true
	})
	return best, bestGap >= 0
}

// attach joins block to the component at b, oriented to continue the
// direction the component reads at that end.
func (ix *boundaryIndex) attach(b boundary, block seggraph.Component) {
	increasing := b.fwd
	if len(block) == 1 {
		block = seggraph.Component{{Node: block[0].Node, Reverse: !increasing}}
	} else {
		first := ix.nodes[block[0].Node].Position
		last := ix.nodes[block[len(block)-1].Node].Position
		if (increasing && first > last) || (!increasing && first < last) {
			block = block.Reversed()
		}
	}

	ix.remove(b.comp)
	comp := ix.comps[b.comp]
	if b.right {
		comp = append(comp, block...)
	} else {
		comp = append(block.Clone(), comp...)
	}
	ix.comps[b.comp] = comp
	ix.add(b.comp)
}

// span returns the reference and extent of comp, or ok=false when its nodes
// lie on more than one reference.
func span(comp seggraph.Component, nodes []seggraph.Node) (chr, lo, hi int, ok bool) {
	for i, s := range comp {
		n := nodes[s.Node]
		if i == 0 {
			chr, lo, hi = n.Chr, n.Position, n.End()
			continue
		}
		if n.Chr != chr {
			return 0, 0, 0, false
		}
		lo, hi = min(lo, n.Position), max(hi, n.End())
	}
	return chr, lo, hi, len(comp) > 0
}

func cloneAll(components []seggraph.Component) []seggraph.Component {
	out := make([]seggraph.Component, len(components))
	for i, c := range components {
		out[i] = c.Clone()
	}
	return out
}

// byPosition orders component indices by the span start of each component.
func byPosition(idx []int, comps []seggraph.Component, nodes []seggraph.Node) {
	slices.SortStableFunc(idx, func(a, b int) int {
		return seggraph.CompareNodes(nodes[leftmost(comps[a], nodes)], nodes[leftmost(comps[b], nodes)])
	})
}

// MergeSingleton attaches single-node components to nearby components.
//
// nodes is indexed by node id and must cover every step. Singletons are
// visited in reference order. Each one joins the closest end of a component
// with at least two nodes when that end lies on the same reference, faces the
// singleton, and is at most lenCutOff bases away; the joined node takes the
// orientation the component reads at that end. Singletons that find no such
// end are chained with their neighbors on the same reference when
// consecutive gaps are at most lenCutOff.
//
// The input is not modified. Extended components keep their input order and
// are followed by the singleton chains in reference order.
func MergeSingleton(components []seggraph.Component, nodes []seggraph.Node, lenCutOff int) []seggraph.Component {
	comps := cloneAll(components)
	ix := newBoundaryIndex(comps, nodes)
	var targets, singles []int
	for ci, c := range comps {
		switch {
		case len(c) == 1:
			singles = append(singles, ci)
		case len(c) > 1:
			targets = append(targets, ci)
			ix.add(ci)
		}
	}
	byPosition(singles, comps, nodes)

	var rest []int
	for _, si := range singles {
		n := nodes[comps[si][0].Node]
		if b, ok := ix.nearest(n.Chr, n.Position, n.End(), lenCutOff); ok {
			ix.attach(b, comps[si])
			continue
		}
		rest = append(rest, si)
	}

	out := make([]seggraph.Component, 0, len(targets)+len(rest))
	for _, ci := range targets {
		out = append(out, comps[ci])
	}
	var chain seggraph.Component
	prev := -1
	for _, si := range rest {
		v := comps[si][0].Node
		if prev >= 0 && (nodes[v].Chr != nodes[prev].Chr || nodes[v].Position-nodes[prev].End() > lenCutOff) {
			out = append(out, chain)
			chain = nil
		}
		chain = append(chain, seggraph.Step{Node: v})
		prev = v
	}
	if len(chain) > 0 {
		out = append(out, chain)
	}
	return out
}

// MergeComponents attaches components with fewer than cutoff nodes to the
// closest end of a component with at least cutoff nodes.
//
// A small component is eligible when all its nodes lie on one reference and
// a large component's end on that reference faces its span at a distance of
// at most lenCutOff bases. The small component is reversed if needed so that
// it continues the direction the large one reads at that end. Small components
// are visited in reference order; attached ones extend the large component
// and can absorb later ones.
//
// The input is not modified. Large components keep their input order and are
// followed by the small components that found no partner, in input order.
func MergeComponents(components []seggraph.Component, nodes []seggraph.Node, cutoff, lenCutOff int) []seggraph.Component {
	comps := cloneAll(components)
	ix := newBoundaryIndex(comps, nodes)
	var large, small []int
	for ci, c := range comps {
		switch {
		case len(c) >= cutoff && len(c) > 0:
			large = append(large, ci)
			ix.add(ci)
		case len(c) > 0:
			small = append(small, ci)
		}
	}
	byPosition(small, comps, nodes)

	attached := make(map[int]bool)
	for _, si := range small {
		chr, lo, hi, ok := span(comps[si], nodes)
		if !ok {
			continue
		}
		if b, ok := ix.nearest(chr, lo, hi, lenCutOff); ok {
			ix.attach(b, comps[si])
			attached[si] = true
		}
	}

	out := make([]seggraph.Component, 0, len(comps)-len(attached))
	for _, ci := range large {
		out = append(out, comps[ci])
	}
	slices.Sort(small)
	for _, si := range small {
		if !attached[si] {
			out = append(out, comps[si])
		}
	}
	return out
}

// leftmost returns the node of comp with the smallest reference position.
func leftmost(comp seggraph.Component, nodes []seggraph.Node) int {
	best := comp[0].Node
	for _, s := range comp[1:] {
		if c := seggraph.CompareNodes(nodes[s.Node], nodes[best]); c < 0 || (c == 0 && s.Node < best) {
			best = s.Node
		}
	}
	return best
}

// SortComponents sorts components in place by the reference position of
// their leftmost node, then by length, then lexicographically by steps.
// Empty components sort last.
func SortComponents(components []seggraph.Component, nodes []seggraph.Node) {
	slices.SortStableFunc(components, func(a, b seggraph.Component) int {
		switch {
		case len(a) == 0 || len(b) == 0:
			return cmp.Compare(len(b), len(a))
		}
		la, lb := leftmost(a, nodes), leftmost(b, nodes)
		if c := seggraph.CompareNodes(nodes[la], nodes[lb]); c != 0 {
			return c
		}
		if c := cmp.Compare(la, lb); c != 0 {
			return c
		}
		if c := cmp.Compare(len(a), len(b)); c != 0 {
			return c
		}
		return slices.CompareFunc(a, b, compareStep)
	})
}

func compareStep(a, b seggraph.Step) int {
	if c := cmp.Compare(a.Node, b.Node); c != 0 {
		return c
	}
	switch {
	case a.Reverse == b.Reverse:
		return 0
	case b.Reverse:
		return -1
	}
	return 1
}
