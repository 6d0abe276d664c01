// Package simplify collapses low-support nodes of ordered components into
// placeholder nodes and expands solved skeleton orderings back into original
// node orderings.
//
// A simplified component keeps every node whose support reaches the cutoff as
// its own skeleton node. Each maximal run of consecutive low-support nodes in
// the component's pre-solve order becomes a single placeholder. The solver only
// sees the skeleton; [DesimplifyComponents] restores the members afterwards and
// reattaches any skeleton node the solved ordering dropped next to its anchor.
package simplify

import (
	"slices"

	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// Mapping relates skeleton nodes to the original nodes they stand for.
type Mapping struct {
	// NewIndex maps every original node to its skeleton node, or -1 when the
	// node belongs to none of the simplified components.
	NewIndex []int

	// LowSupportNode lists, per skeleton node, the original nodes it subsumes
	// in pre-solve order. Step.Reverse carries each member's orientation.
	LowSupportNode []seggraph.Component

	// ReferenceNode is the original node each skeleton node is anchored to:
	// the nearest preceding reference node in the pre-solve order, or the
	// nearest following one for groups that lead their component. -1 when
	// the component has no reference node outside the group.
	ReferenceNode []int

	// RelativePosition is true when the group sits after its anchor and false
	// when it sits before it.
	RelativePosition []bool
}

// Groups returns the number of skeleton nodes.
func (m *Mapping) Groups() int { return len(m.LowSupportNode) }

// Result is the output of [SimplifyComponents].
type Result struct {
	// Skeleton holds one node per group. Edges are the quotient of the
	// original edges with weights summed; edges inside one group are dropped.
	Skeleton *seggraph.Graph

	// Mapping relates Skeleton back to the original graph.
	Mapping *Mapping

	// Components are the input components expressed over skeleton nodes, in
	// pre-solve order with every step forward.
	Components []seggraph.Component
}

// SimplifyComponents builds the skeleton of g restricted to the nodes of
// components. Nodes with Support >= cutoff are reference nodes; maximal runs
// of consecutive lower-support nodes collapse into one placeholder each.
//
// Each skeleton node covers its members' intervals: it lies on the first
// member's reference, spans the members on that reference, sums Support, and
// lists every member interval in Chain, flipped for reversed members. A
// forward skeleton step reads its members exactly as listed in the mapping.
//
// An edge incident to a member attaches to the skeleton head when the member
// extremity faces the group's left end and to the skeleton tail otherwise.
// Parallel skeleton edges are merged by summing weights.
//
// A step referencing a node outside g, or a node that appears twice, returns
// an error with code [errors.ErrCodeStructural].
func SimplifyComponents(g *seggraph.Graph, components []seggraph.Component, cutoff int) (*Result, error) {
	m := &Mapping{NewIndex: make([]int, g.NodeCount())}
	for i := range m.NewIndex {
		m.NewIndex[i] = -1
	}
	position := make(map[int]seggraph.Step, g.NodeCount())

	res := &Result{Mapping: m, Components: make([]seggraph.Component, 0, len(components))}
	for ci, comp := range components {
		for _, s := range comp {
			if s.Node < 0 || s.Node >= g.NodeCount() {
				return nil, errors.New(errors.ErrCodeStructural, "component %d: node %d out of range", ci, s.Node)
			}
			if m.NewIndex[s.Node] != -1 {
				return nil, errors.New(errors.ErrCodeStructural, "component %d: node %d appears twice", ci, s.Node)
			}
			m.NewIndex[s.Node] = -2
			position[s.Node] = s
		}
		res.Components = append(res.Components, m.group(g, comp, cutoff))
	}

	nodes := make([]seggraph.Node, m.Groups())
	for gi, members := range m.LowSupportNode {
		nodes[gi] = skeletonNode(g, members)
	}

	var edges []seggraph.Edge
	for _, e := range g.Edges() {
		a, b := m.NewIndex[e.Ind1], m.NewIndex[e.Ind2]
		if a < 0 || b < 0 || a == b {
			continue
		}
		edges = append(edges, seggraph.Edge{
			Ind1:       a,
			Head1:      facesLeft(e.Head1, position[e.Ind1]),
			Ind2:       b,
			Head2:      facesLeft(e.Head2, position[e.Ind2]),
			Weight:     e.Weight,
			Provenance: e.Provenance,
			Mandatory:  e.Mandatory,
		})
	}

	skeleton, err := seggraph.New(nodes, edges)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build skeleton")
	}
	res.Skeleton = skeleton
	return res, nil
}

// group splits comp into skeleton nodes and returns the skeleton component.
func (m *Mapping) group(g *seggraph.Graph, comp seggraph.Component, cutoff int) seggraph.Component {
	out := make(seggraph.Component, 0, len(comp))
	first := m.Groups()
	lastRef := -1
	for i := 0; i < len(comp); {
		j := i + 1
		if g.Node(comp[i].Node).Support < cutoff {
			for j < len(comp) && g.Node(comp[j].Node).Support < cutoff {
				j++
			}
		}
		gi := m.Groups()
		members := slices.Clone(comp[i:j])
		for _, s := range members {
			m.NewIndex[s.Node] = gi
		}
		m.LowSupportNode = append(m.LowSupportNode, members)
		m.ReferenceNode = append(m.ReferenceNode, lastRef)
		m.RelativePosition = append(m.RelativePosition, lastRef != -1)
		out = append(out, seggraph.Step{Node: gi})

		if j-i == 1 && g.Node(comp[i].Node).Support >= cutoff {
			lastRef = comp[i].Node
		}
		i = j
	}

	// Groups before the first reference node anchor to the one that follows.
	for gi := first; gi < m.Groups(); gi++ {
		if m.ReferenceNode[gi] != -1 {
			break
		}
		for gj := gi + 1; gj < m.Groups(); gj++ {
			members := m.LowSupportNode[gj]
			if len(members) == 1 && g.Node(members[0].Node).Support >= cutoff {
				m.ReferenceNode[gi] = members[0].Node
				break
			}
		}
	}
	return out
}

// facesLeft reports whether extremity head of a member placed as s points
// toward the left end of its group.
func facesLeft(head bool, s seggraph.Step) bool {
	return head != s.Reverse
}

func skeletonNode(g *seggraph.Graph, members seggraph.Component) seggraph.Node {
	first := g.Node(members[0].Node)
	if len(members) == 1 && !members[0].Reverse {
		n := first
		n.HeadEdges, n.TailEdges = nil, nil
		return n
	}

	n := seggraph.Node{Chr: first.Chr, Position: first.Position}
	end := first.End()
	for _, s := range members {
		member := g.Node(s.Node)
		n.Support += member.Support
		ivs := member.Intervals()
		if s.Reverse {
			slices.Reverse(ivs)
			for k := range ivs {
				ivs[k].Reverse = !ivs[k].Reverse
			}
		}
		n.Chain = append(n.Chain, ivs...)
		if member.Chr != n.Chr {
			continue
		}
		n.Position = min(n.Position, member.Position)
		end = max(end, member.End())
	}
	n.Length = end - n.Position
	return n
}
