package seggraph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidEdgeEndpoint is returned by [New] and [Graph.AddEdge] when an
	// edge references a node index outside the node slice.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrSelfLoop is returned by [Graph.AddEdge] when both ends of an edge
	// belong to the same node. [New] sets such edges aside instead.
	ErrSelfLoop = errors.New("edge connects a node to itself")

	// ErrInvalidNode is returned by [New] when a node has a negative position,
	// length or reference id.
	ErrInvalidNode = errors.New("invalid node interval")

	// ErrNegativeWeight is returned by [New] and [Graph.AddEdge] when an edge
	// carries negative support.
	ErrNegativeWeight = errors.New("negative edge weight")
)

// Provenance tells where the evidence for an edge came from.
type Provenance int

const (
	// ProvenanceRaw marks edges derived from linear read continuity between
	// neighboring segments.
	ProvenanceRaw Provenance = iota
	// ProvenanceChimeric marks edges derived from discordant or split alignments.
	ProvenanceChimeric
)

// String returns "raw" or "chimeric".
func (p Provenance) String() string {
	if p == ProvenanceChimeric {
		return "chimeric"
	}
	return "raw"
}

// Interval is a half-open genomic interval [Start, End) on reference Chr.
// Reverse is set when the interval is read reverse-complemented.
type Interval struct {
	Chr     int  `json:"chr"`
	Start   int  `json:"start"`
	End     int  `json:"end"`
	Reverse bool `json:"reverse,omitempty"`
}

// Len returns End - Start.
func (iv Interval) Len() int { return iv.End - iv.Start }

// Node is a segment of the reference genome.
//
// A node produced by compression stands for a chain of original segments; its
// Chain field lists their intervals in reference order. Nodes that were never
// merged leave Chain empty and represent their own interval.
type Node struct {
	Chr      int // Reference id
	Position int // 0-based start on the reference
	Length   int // Segment length in bases
	Support  int // Read support of the segment

	// HeadEdges and TailEdges hold the indices of incident edges attached to
	// the node's start and end. Maintained by UpdateNodeLink.
	HeadEdges []int
	TailEdges []int

	// Chain lists original sub-intervals for compressed nodes.
	Chain []Interval
}

// End returns the exclusive end coordinate of the node.
func (n Node) End() int { return n.Position + n.Length }

// Interval returns the node's span as an Interval.
func (n Node) Interval() Interval {
	return Interval{Chr: n.Chr, Start: n.Position, End: n.End()}
}

// Intervals returns the original intervals the node stands for.
func (n Node) Intervals() []Interval {
	if len(n.Chain) == 0 {
		return []Interval{n.Interval()}
	}
	return slices.Clone(n.Chain)
}

// Degree returns the number of incident edges.
func (n Node) Degree() int { return len(n.HeadEdges) + len(n.TailEdges) }

// Edge is an undirected adjacency between an extremity of node Ind1 and an
// extremity of node Ind2. HeadN is true when the edge attaches to the start
// of node IndN and false when it attaches to its end.
type Edge struct {
	Ind1       int
	Head1      bool
	Ind2       int
	Head2      bool
	Weight     int        // Number of supporting reads
	Provenance Provenance // Evidence type
	Mandatory  bool       // Adjacency must be selected by the solver
}

// Canonical returns the edge with Ind1 <= Ind2, swapping extremities with
// their nodes when needed.
func (e Edge) Canonical() Edge {
	if e.Ind1 > e.Ind2 {
		e.Ind1, e.Ind2 = e.Ind2, e.Ind1
		e.Head1, e.Head2 = e.Head2, e.Head1
	}
	return e
}

// End returns the extremity of node that e attaches to. ok is false when node
// is not an endpoint of e.
func (e Edge) End(node int) (head bool, ok bool) {
	switch node {
	case e.Ind1:
		return e.Head1, true
	case e.Ind2:
		return e.Head2, true
	}
	return false, false
}

// Other returns the endpoint of e opposite to node and the extremity it
// attaches to.
func (e Edge) Other(node int) (other int, head bool) {
	if node == e.Ind1 {
		return e.Ind2, e.Head2
	}
	return e.Ind1, e.Head1
}

type edgeKey struct {
	ind1, ind2   int
	head1, head2 bool
}

func (e Edge) key() edgeKey {
	return edgeKey{ind1: e.Ind1, ind2: e.Ind2, head1: e.Head1, head2: e.Head2}
}

// absorb folds a parallel edge into e.
func (e *Edge) absorb(o Edge) {
	e.Weight += o.Weight
	if o.Provenance == ProvenanceChimeric {
		e.Provenance = ProvenanceChimeric
	}
	e.Mandatory = e.Mandatory || o.Mandatory
}

// MergeParallel canonicalizes edges and folds parallel edges (same endpoints
// and extremities) into the first occurrence: weights are summed, provenance
// becomes chimeric if any folded edge is chimeric, and Mandatory is or-ed.
// Order of first occurrences is preserved.
func MergeParallel(edges []Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	seen := make(map[edgeKey]int, len(edges))
	for _, e := range edges {
		e = e.Canonical()
		if i, ok := seen[e.key()]; ok {
			out[i].absorb(e)
			continue
		}
		seen[e.key()] = len(out)
		out = append(out, e)
	}
	return out
}

// Graph is a breakpoint graph over segment nodes.
//
// The zero value is an empty graph. Use [New] to build a graph from node and
// edge lists. Graph is not safe for concurrent mutation.
type Graph struct {
	nodes []Node
	edges []Edge
	loops []Edge
	label []int
}

// New builds a graph from raw node and edge lists.
//
// Nodes are copied and their adjacency lists are rebuilt; any HeadEdges or
// TailEdges supplied by the caller are ignored. Edges are canonicalized and
// parallel edges are merged with [MergeParallel]. Every node starts
// unlabeled (-1).
//
// Edges joining a node to itself (tandem or fold-back duplication evidence)
// cannot take part in an ordering. They are kept out of the adjacency lists
// and are available from [Graph.Loops].
//
// New returns ErrInvalidNode for negative coordinates, ErrInvalidEdgeEndpoint
// for out-of-range endpoints, and ErrNegativeWeight for negative weights.
// Errors name the offending index.
func New(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{nodes: make([]Node, len(nodes))}
	for i, n := range nodes {
		if n.Chr < 0 || n.Position < 0 || n.Length < 0 {
			return nil, fmt.Errorf("node %d: %w", i, ErrInvalidNode)
		}
		n.HeadEdges, n.TailEdges = nil, nil
		n.Chain = slices.Clone(n.Chain)
		g.nodes[i] = n
	}
	var links, loops []Edge
	for i, e := range edges {
		if err := g.checkEndpoints(e); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		if e.Ind1 == e.Ind2 {
			loops = append(loops, e)
			continue
		}
		links = append(links, e)
	}
	g.edges = MergeParallel(links)
	if len(loops) > 0 {
		g.loops = MergeParallel(loops)
	}
	g.UpdateNodeLink()
	return g, nil
}

func (g *Graph) checkEndpoints(e Edge) error {
	n := len(g.nodes)
	if e.Ind1 < 0 || e.Ind1 >= n || e.Ind2 < 0 || e.Ind2 >= n {
		return ErrInvalidEdgeEndpoint
	}
	if e.Weight < 0 {
		return ErrNegativeWeight
	}
	return nil
}

func (g *Graph) checkEdge(e Edge) error {
	if err := g.checkEndpoints(e); err != nil {
		return err
	}
	if e.Ind1 == e.Ind2 {
		return ErrSelfLoop
	}
	return nil
}

// UpdateNodeLink rebuilds the HeadEdges and TailEdges lists of every node from
// the edge slice and invalidates component labels.
//
// After UpdateNodeLink every edge index appears exactly once in the list of
// the extremity it attaches to on each of its two endpoints, and no list
// references an edge that is not in the graph.
func (g *Graph) UpdateNodeLink() {
	for i := range g.nodes {
		g.nodes[i].HeadEdges = nil
		g.nodes[i].TailEdges = nil
	}
	for i, e := range g.edges {
		g.attach(e.Ind1, e.Head1, i)
		g.attach(e.Ind2, e.Head2, i)
	}
	g.resetLabels()
}

func (g *Graph) attach(node int, head bool, edge int) {
	if head {
		g.nodes[node].HeadEdges = append(g.nodes[node].HeadEdges, edge)
	} else {
		g.nodes[node].TailEdges = append(g.nodes[node].TailEdges, edge)
	}
}

func (g *Graph) resetLabels() {
	if len(g.label) != len(g.nodes) {
		g.label = make([]int, len(g.nodes))
	}
	for i := range g.label {
		g.label[i] = -1
	}
}

// AddEdge inserts e and returns its index. If an edge with the same endpoints
// and extremities already exists, e is folded into it and the existing index
// is returned. Component labels are invalidated.
func (g *Graph) AddEdge(e Edge) (int, error) {
	if err := g.checkEdge(e); err != nil {
		return -1, err
	}
	e = e.Canonical()
	for i := range g.edges {
		if g.edges[i].key() == e.key() {
			g.edges[i].absorb(e)
			g.resetLabels()
			return i, nil
		}
	}
	g.edges = append(g.edges, e)
	idx := len(g.edges) - 1
	g.attach(e.Ind1, e.Head1, idx)
	g.attach(e.Ind2, e.Head2, idx)
	g.resetLabels()
	return idx, nil
}

// RemoveEdges deletes every edge for which drop returns true, rebuilds the
// adjacency lists and invalidates component labels. Surviving edges keep their
// relative order but are renumbered. It returns the number of removed edges.
func (g *Graph) RemoveEdges(drop func(i int, e Edge) bool) int {
	kept := g.edges[:0:0]
	for i, e := range g.edges {
		if !drop(i, e) {
			kept = append(kept, e)
		}
	}
	removed := len(g.edges) - len(kept)
	g.edges = kept
	g.UpdateNodeLink()
	return removed
}

// Loops returns the self-loop edges set aside by [New]. They follow node
// renumbering by compression.
func (g *Graph) Loops() []Edge { return g.loops }

// Node returns the node at index i. The adjacency slices are shared with the
// graph and must not be modified.
func (g *Graph) Node(i int) Node { return g.nodes[i] }

// Nodes returns the node slice. It must not be modified.
func (g *Graph) Nodes() []Node { return g.nodes }

// Edge returns the edge at index i.
func (g *Graph) Edge(i int) Edge { return g.edges[i] }

// Edges returns the edge slice. It must not be modified.
func (g *Graph) Edges() []Edge { return g.edges }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Degree returns the number of edges incident to node i.
func (g *Graph) Degree(i int) int { return g.nodes[i].Degree() }

// IncidentEdges returns the indices of all edges incident to node i, head
// edges first.
func (g *Graph) IncidentEdges(i int) []int {
	n := g.nodes[i]
	out := make([]int, 0, n.Degree())
	out = append(out, n.HeadEdges...)
	return append(out, n.TailEdges...)
}

// Neighbors returns the distinct nodes adjacent to node i in ascending order.
func (g *Graph) Neighbors(i int) []int {
	var out []int
	for _, ei := range g.IncidentEdges(i) {
		other, _ := g.edges[ei].Other(i)
		out = append(out, other)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Label returns the component label of node i, or -1 if unlabeled.
func (g *Graph) Label(i int) int { return g.label[i] }

// Labels returns the label slice. It must not be modified.
func (g *Graph) Labels() []int { return g.label }

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make([]Node, len(g.nodes)),
		edges: slices.Clone(g.edges),
		loops: slices.Clone(g.loops),
		label: slices.Clone(g.label),
	}
	for i, n := range g.nodes {
		n.HeadEdges = slices.Clone(n.HeadEdges)
		n.TailEdges = slices.Clone(n.TailEdges)
		n.Chain = slices.Clone(n.Chain)
		c.nodes[i] = n
	}
	return c
}

// CompareNodes orders nodes by reference id and then start position.
func CompareNodes(a, b Node) int {
	if c := cmp.Compare(a.Chr, b.Chr); c != 0 {
		return c
	}
	return cmp.Compare(a.Position, b.Position)
}

// GenomicOrder returns the given node indices sorted by reference position,
// breaking ties by index. The input slice is not modified.
func (g *Graph) GenomicOrder(nodes []int) []int {
	out := slices.Clone(nodes)
	slices.SortFunc(out, g.compareIndex)
	return out
}

func (g *Graph) compareIndex(a, b int) int {
	if c := CompareNodes(g.nodes[a], g.nodes[b]); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}
