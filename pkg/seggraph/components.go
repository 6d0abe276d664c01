package seggraph

// DFS assigns labelID to every unlabeled node reachable from node through the
// current edges and returns the number of nodes it labeled. Nodes already
// carrying a label other than -1 are neither relabeled nor traversed.
//
// The walk uses an explicit stack, so arbitrarily long chains do not grow the
// goroutine stack. label must have one entry per node.
func (g *Graph) DFS(node, labelID int, label []int) int {
	if label[node] != -1 {
		return 0
	}
	label[node] = labelID
	count := 1
	stack := []int{node}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, ei := range g.IncidentEdges(u) {
			v, _ := g.edges[ei].Other(u)
			if label[v] != -1 {
				continue
			}
			label[v] = labelID
			count++
			stack = append(stack, v)
		}
	}
	return count
}

// ConnectedComponent labels every node with the id of its connected
// component and returns the number of components. Ids are assigned in order
// of each component's lowest node index, starting at 0.
func (g *Graph) ConnectedComponent() int {
	g.resetLabels()
	id := 0
	for i := range g.nodes {
		if g.label[i] == -1 {
			g.DFS(i, id, g.label)
			id++
		}
	}
	return id
}

// ConnectedComponentBounded labels nodes like [Graph.ConnectedComponent] but
// never puts more than maxSize nodes under one label. It returns the number of
// label groups.
//
// Each group grows breadth-first from its lowest unlabeled node and takes
// nodes in discovery order until it holds maxSize nodes. Reachable nodes that
// did not fit stay unlabeled and seed later groups. A maxSize of zero or less
// disables the bound.
func (g *Graph) ConnectedComponentBounded(maxSize int) int {
	if maxSize <= 0 {
		return g.ConnectedComponent()
	}
	g.resetLabels()
	id := 0
	for i := range g.nodes {
		if g.label[i] == -1 {
			g.bfsBounded(i, id, maxSize)
			id++
		}
	}
	return id
}

func (g *Graph) bfsBounded(start, labelID, maxSize int) {
	g.label[start] = labelID
	size := 1
	queue := []int{start}
	for head := 0; head < len(queue) && size < maxSize; head++ {
		u := queue[head]
		for _, ei := range g.IncidentEdges(u) {
			v, _ := g.edges[ei].Other(u)
			if g.label[v] != -1 {
				continue
			}
			if size == maxSize {
				return
			}
			g.label[v] = labelID
			size++
			queue = append(queue, v)
		}
	}
}

// Components groups node indices by label. Groups are ordered by label id and
// hold ascending node indices; unlabeled nodes are omitted.
func (g *Graph) Components() [][]int {
	count := 0
	for _, l := range g.label {
		if l+1 > count {
			count = l + 1
		}
	}
	groups := make([][]int, count)
	for i, l := range g.label {
		if l >= 0 {
			groups[l] = append(groups[l], i)
		}
	}
	return groups
}

// MaxComponentSize returns the size of the largest label group, or 0 if no
// node is labeled.
func (g *Graph) MaxComponentSize() int {
	best := 0
	for _, c := range g.Components() {
		best = max(best, len(c))
	}
	return best
}
