package simplify

import (
	"slices"

	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// DesimplifyComponents expands components over skeleton nodes into components
// over original nodes.
//
// Every skeleton step is replaced by its members; a reversed step reverses the
// member order and flips each member's orientation. Skeleton nodes missing
// from resolved are reattached next to their ReferenceNode: after it when
// RelativePosition is set and before it otherwise, mirrored when the anchor
// itself reads reversed.
//
// A skeleton index that is out of range or appears twice, or a missing group
// whose anchor never appears in the output, returns an error with code
// [errors.ErrCodeStructural].
func DesimplifyComponents(resolved []seggraph.Component, m *Mapping) ([]seggraph.Component, error) {
	seen := make([]bool, m.Groups())
	out := make([]seggraph.Component, 0, len(resolved))
	for ci, comp := range resolved {
		var expanded seggraph.Component
		for _, s := range comp {
			if s.Node < 0 || s.Node >= m.Groups() {
				return nil, errors.New(errors.ErrCodeStructural, "component %d: skeleton node %d out of range", ci, s.Node)
			}
			if seen[s.Node] {
				return nil, errors.New(errors.ErrCodeStructural, "component %d: skeleton node %d appears twice", ci, s.Node)
			}
			seen[s.Node] = true
			expanded = append(expanded, m.expand(s)...)
		}
		out = append(out, expanded)
	}

	var pending []int
	for gi, ok := range seen {
		if !ok {
			pending = append(pending, gi)
		}
	}
	// Groups placed after a shared anchor are inserted latest-first so they
	// end up in their original order.
	slices.SortStableFunc(pending, func(a, b int) int {
		ra, rb := m.RelativePosition[a], m.RelativePosition[b]
		switch {
		case ra && rb:
			return b - a
		case ra:
			return -1
		case rb:
			return 1
		}
		return a - b
	})

	for len(pending) > 0 {
		var next []int
		for _, gi := range pending {
			if !reattach(out, m, gi) {
				next = append(next, gi)
			}
		}
		if len(next) == len(pending) {
			return nil, errors.New(errors.ErrCodeStructural,
				"skeleton node %d: anchor %d not present in resolved components", next[0], m.ReferenceNode[next[0]])
		}
		pending = next
	}
	return out, nil
}

// expand returns the members of skeleton step s.
func (m *Mapping) expand(s seggraph.Step) seggraph.Component {
	members := m.LowSupportNode[s.Node]
	if s.Reverse {
		return members.Reversed()
	}
	return members.Clone()
}

// reattach inserts group gi next to its anchor and reports whether the anchor
// was found.
func reattach(out []seggraph.Component, m *Mapping, gi int) bool {
	anchor := m.ReferenceNode[gi]
	if anchor < 0 {
		return false
	}
	for ci, comp := range out {
		k := slices.IndexFunc(comp, func(s seggraph.Step) bool { return s.Node == anchor })
		if k < 0 {
			continue
		}
		members := m.LowSupportNode[gi].Clone()
		after := m.RelativePosition[gi]
		if comp[k].Reverse {
			members = members.Reversed()
			after = !after
		}
		at := k
		if after {
			at = k + 1
		}
		out[ci] = slices.Insert(comp, at, members...)
		return true
	}
	return false
}
