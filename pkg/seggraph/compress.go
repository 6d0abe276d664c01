package seggraph

// CompressNode collapses pass-through chains into single nodes and returns the
// map from old node index to new node index.
//
// Node u is merged with node v when the only edge at u's tail is also the only
// edge at v's head, both lie on the same reference, and v starts after u
// (v.Position > u.Position and v.Position >= u.End()). Junctions joining two
// heads or two tails signal an orientation change and are never compressed.
// A link is also kept when merging across it would turn another edge of the
// chain into a self-loop, so duplication evidence is not lost.
//
// Chains are merged maximally in one call; running CompressNode again yields
// the same node and edge counts. The merged node spans from the first
// member's start to the last member's end, sums Support, concatenates the
// members' intervals into Chain, and inherits the first member's head edges
// and the last member's tail edges. New node indices follow the original index
// order of each chain's first member. Parallel edges created by remapping are
// merged with [MergeParallel]. Component labels are reset to -1.
func (g *Graph) CompressNode() []int {
	return g.compress(nil)
}

// CompressNodeWithReads behaves like [Graph.CompressNode] and additionally
// rewrites readNode, a table of node indices per read, in place: every entry
// is mapped to its merged node and consecutive duplicates are dropped, so each
// read's assignment stays valid after compression.
func (g *Graph) CompressNodeWithReads(readNode [][]int) []int {
	return g.compress(readNode)
}

func (g *Graph) compress(readNode [][]int) []int {
	n := len(g.nodes)
	next, prev, link := g.chainLinks()
	g.breakLoopingChains(next, prev, link)

	mapping := make([]int, n)
	for i := range mapping {
		mapping[i] = -1
	}
	nodes := make([]Node, 0, n)
	for i := 0; i < n; i++ {
		if prev[i] != -1 {
			continue
		}
		merged := g.nodes[i]
		merged.HeadEdges, merged.TailEdges = nil, nil
		mapping[i] = len(nodes)
		if next[i] != -1 {
			merged.Chain = g.nodes[i].Intervals()
		}
		for j := next[i]; j != -1; j = next[j] {
			m := g.nodes[j]
			merged.Length = m.End() - merged.Position
			merged.Support += m.Support
			merged.Chain = append(merged.Chain, m.Intervals()...)
			mapping[j] = len(nodes)
		}
		nodes = append(nodes, merged)
	}

	edges := make([]Edge, 0, len(g.edges))
	for i, e := range g.edges {
		if link[i] {
			continue
		}
		e.Ind1, e.Ind2 = mapping[e.Ind1], mapping[e.Ind2]
		edges = append(edges, e)
	}

	loops := make([]Edge, len(g.loops))
	for i, e := range g.loops {
		e.Ind1, e.Ind2 = mapping[e.Ind1], mapping[e.Ind2]
		loops[i] = e
	}

	g.nodes = nodes
	g.edges = MergeParallel(edges)
	if len(loops) > 0 {
		g.loops = MergeParallel(loops)
	}
	g.label = nil
	g.UpdateNodeLink()

	for r, path := range readNode {
		out := path[:0]
		for _, v := range path {
			if v < 0 || v >= n {
				continue
			}
			m := mapping[v]
			if len(out) > 0 && out[len(out)-1] == m {
				continue
			}
			out = append(out, m)
		}
		readNode[r] = out
	}
	return mapping
}

// chainLinks finds every pass-through edge. next[u] = v and prev[v] = u when
// the edge link[i] joins u's tail to v's head without branching.
func (g *Graph) chainLinks() (next, prev []int, link []bool) {
	n := len(g.nodes)
	next = make([]int, n)
	prev = make([]int, n)
	for i := range next {
		next[i], prev[i] = -1, -1
	}
	link = make([]bool, len(g.edges))
	for i, e := range g.edges {
		u, v, ok := g.passThrough(i, e)
		if !ok {
			continue
		}
		next[u], prev[v] = v, u
		link[i] = true
	}
	return next, prev, link
}

// passThrough reports whether edge i joins the tail of one node to the head
// of a later node on the same reference with no other edge at either end.
func (g *Graph) passThrough(i int, e Edge) (u, v int, ok bool) {
	switch {
	case !e.Head1 && e.Head2:
		u, v = e.Ind1, e.Ind2
	case e.Head1 && !e.Head2:
		u, v = e.Ind2, e.Ind1
	default:
		return 0, 0, false
	}
	nu, nv := g.nodes[u], g.nodes[v]
	if len(nu.TailEdges) != 1 || nu.TailEdges[0] != i {
		return 0, 0, false
	}
	if len(nv.HeadEdges) != 1 || nv.HeadEdges[0] != i {
		return 0, 0, false
	}
	if nu.Chr != nv.Chr || nv.Position <= nu.Position || nv.Position < nu.End() {
		return 0, 0, false
	}
	return u, v, true
}

// breakLoopingChains cuts chain links so that no non-link edge ends up with
// both endpoints inside one chain.
func (g *Graph) breakLoopingChains(next, prev []int, link []bool) {
	n := len(g.nodes)
	chain := make([]int, n)
	offset := make([]int, n)
	linkOf := make([]int, n) // edge index of the link entering each node
	for i := range linkOf {
		linkOf[i] = -1
	}
	for i, isLink := range link {
		if isLink {
			_, v, _ := g.passThrough(i, g.edges[i])
			linkOf[v] = i
		}
	}

	ids := 0
	for i := 0; i < n; i++ {
		if prev[i] != -1 {
			continue
		}
		for j, k := i, 0; j != -1; j, k = next[j], k+1 {
			chain[j], offset[j] = ids, k
		}
		ids++
	}

	for i, e := range g.edges {
		if link[i] || chain[e.Ind1] != chain[e.Ind2] {
			continue
		}
		later := e.Ind2
		if offset[e.Ind1] > offset[e.Ind2] {
			later = e.Ind1
		}
		p := prev[later]
		next[p], prev[later] = -1, -1
		link[linkOf[later]] = false

		base := offset[later]
		for j := later; j != -1; j = next[j] {
			chain[j] = ids
			offset[j] -= base
		}
		ids++
	}
}
