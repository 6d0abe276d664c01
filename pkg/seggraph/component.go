package seggraph

import (
	"slices"
	"strconv"
	"strings"
)

// Step is one oriented node of a resolved component. Reverse is set when the
// node is read reverse-complemented.
type Step struct {
	Node    int
	Reverse bool
}

// String renders the step as the node index, prefixed with "-" when reversed.
// Node 0 reversed renders as "-0".
func (s Step) String() string {
	if s.Reverse {
		return "-" + strconv.Itoa(s.Node)
	}
	return strconv.Itoa(s.Node)
}

// Flip returns the step read in the opposite orientation.
func (s Step) Flip() Step { return Step{Node: s.Node, Reverse: !s.Reverse} }

// Component is an ordered chain of oriented segment nodes.
type Component []Step

// Forward returns a component visiting nodes in the given order, all forward.
func Forward(nodes ...int) Component {
	c := make(Component, len(nodes))
	for i, n := range nodes {
		c[i] = Step{Node: n}
	}
	return c
}

// Nodes returns the node indices of the component in order.
func (c Component) Nodes() []int {
	out := make([]int, len(c))
	for i, s := range c {
		out[i] = s.Node
	}
	return out
}

// Reversed returns the component read from the other strand: step order is
// reversed and every orientation flipped.
func (c Component) Reversed() Component {
	out := make(Component, len(c))
	for i, s := range c {
		out[len(c)-1-i] = s.Flip()
	}
	return out
}

// Clone returns a copy of the component.
func (c Component) Clone() Component { return slices.Clone(c) }

// String renders the component as space-separated steps.
func (c Component) String() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}
