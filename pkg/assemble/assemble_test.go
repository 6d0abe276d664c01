package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/segraph/pkg/seggraph"
)

func edge(a int, ha bool, b int, hb bool, w int) seggraph.Edge {
	return seggraph.Edge{Ind1: a, Head1: ha, Ind2: b, Head2: hb, Weight: w}
}

// segments places n nodes of length 1000 at the given starts on reference 0.
func segments(starts ...int) []seggraph.Node {
	nodes := make([]seggraph.Node, len(starts))
	for i, s := range starts {
		nodes[i] = seggraph.Node{Chr: 0, Position: s, Length: 1000}
	}
	return nodes
}

func TestOrderingPath(t *testing.T) {
	// 0 -> 1 -> 2 with 2 inverted: 1.tail joins 2.tail.
	edges := []seggraph.Edge{
		edge(0, false, 1, true, 5),
		edge(1, false, 2, false, 5),
	}

	got := Ordering([]int{0, 1, 2}, edges, []int{0, 1})

	want := []seggraph.Component{{{Node: 0}, {Node: 1}, {Node: 2, Reverse: true}}}
	assert.Equal(t, want, got)
}

func TestOrderingMajorityForward(t *testing.T) {
	// 0.head is taken, so the walk starts at 0 reversed.
	edges := []seggraph.Edge{
		edge(0, true, 1, false, 5), // 1 -> 0
		edge(1, true, 2, false, 5), // 2 -> 1
	}

	got := Ordering([]int{0, 1, 2}, edges, []int{0, 1})

	assert.Equal(t, []seggraph.Component{seggraph.Forward(2, 1, 0)}, got)
}

func TestOrderingSingletonsAndUnselected(t *testing.T) {
	edges := []seggraph.Edge{
		edge(0, false, 1, true, 5),
		edge(1, false, 3, true, 9), // not selected
		edge(2, false, 9, true, 9), // outside the piece
	}

	got := Ordering([]int{0, 1, 2, 3}, edges, []int{0, 2})

	want := []seggraph.Component{seggraph.Forward(0, 1), seggraph.Forward(2), seggraph.Forward(3)}
	assert.Equal(t, want, got)
}

func TestOrderingCycle(t *testing.T) {
	// 0 -> 1 -> 2 -> 0, lightest link 2.tail-0.head.
	edges := []seggraph.Edge{
		edge(0, false, 1, true, 8),
		edge(1, false, 2, true, 6),
		edge(2, false, 0, true, 3),
	}

	got := Ordering([]int{0, 1, 2}, edges, []int{0, 1, 2})

	require.Len(t, got, 1)
	assert.Equal(t, seggraph.Forward(0, 1, 2), got[0])
}

func TestOrderingCoversEveryNode(t *testing.T) {
	edges := []seggraph.Edge{
		edge(0, false, 1, true, 5),
		edge(2, true, 3, true, 5),
		edge(3, false, 4, false, 2),
		edge(4, true, 2, false, 1),
		edge(5, false, 6, true, 4),
	}
	nodes := []int{0, 1, 2, 3, 4, 5, 6, 7}

	got := Ordering(nodes, edges, []int{0, 1, 2, 3, 4})

	seen := make(map[int]int)
	for _, c := range got {
		for _, s := range c {
			seen[s.Node]++
		}
	}
	for _, v := range nodes {
		assert.Equal(t, 1, seen[v], "node %d", v)
	}
}

func TestMergeSingletonDistance(t *testing.T) {
	tests := []struct {
		name string
		gap  int
		want int // number of components
	}{
		{"400kb apart merge", 400000, 1},
		{"600kb apart stay separate", 600000, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := segments(0, 1000+tt.gap)
			comps := []seggraph.Component{seggraph.Forward(0), seggraph.Forward(1)}

			got := MergeSingleton(comps, nodes, DefaultLenCutOff)

			assert.Len(t, got, tt.want)
			assert.Len(t, comps[0], 1, "input must not be modified")
		})
	}
}

func TestMergeSingletonJoinsComponentEnd(t *testing.T) {
	nodes := segments(0, 1000, 2000, 10000, 700000, 900000)
	comps := []seggraph.Component{
		seggraph.Forward(0, 1, 2),
		seggraph.Forward(3), // 7 kb past the right end
		seggraph.Forward(4), // too far from any end, chains with 5
		seggraph.Forward(5),
	}

	got := MergeSingleton(comps, nodes, 500000)

	want := []seggraph.Component{
		seggraph.Forward(0, 1, 2, 3),
		seggraph.Forward(4, 5),
	}
	assert.Equal(t, want, got)
}

func TestMergeSingletonReversedEnd(t *testing.T) {
	// The component reads right to left, so a singleton below its last node
	// continues it reversed.
	nodes := segments(0, 5000, 6000, 7000)
	comps := []seggraph.Component{
		{{Node: 3, Reverse: true}, {Node: 2, Reverse: true}, {Node: 1, Reverse: true}},
		seggraph.Forward(0),
	}

	got := MergeSingleton(comps, nodes, 500000)

	want := []seggraph.Component{{
		{Node: 3, Reverse: true}, {Node: 2, Reverse: true}, {Node: 1, Reverse: true}, {Node: 0, Reverse: true},
	}}
	assert.Equal(t, want, got)
}

func TestMergeSingletonOtherReference(t *testing.T) {
	nodes := segments(0, 1000, 2000)
	nodes[2].Chr = 1
	comps := []seggraph.Component{seggraph.Forward(0, 1), seggraph.Forward(2)}

	got := MergeSingleton(comps, nodes, 500000)

	assert.Equal(t, comps, got)
}

func TestMergeComponents(t *testing.T) {
	nodes := segments(0, 1000, 2000, 3000, 4000, 5000, 6000, 50000, 52000, 2000000, 2001000)
	comps := []seggraph.Component{
		seggraph.Forward(0, 1, 2, 3, 4, 5, 6),
		{{Node: 8, Reverse: true}, {Node: 7, Reverse: true}}, // small, reads backwards
		seggraph.Forward(9, 10),                              // small, too far
	}

	got := MergeComponents(comps, nodes, DefaultMergeCutoff, DefaultLenCutOff)

	want := []seggraph.Component{
		seggraph.Forward(0, 1, 2, 3, 4, 5, 6, 7, 8),
		seggraph.Forward(9, 10),
	}
	assert.Equal(t, want, got)
}

func TestMergeComponentsPrepend(t *testing.T) {
	nodes := segments(0, 1000, 20000, 21000, 22000, 23000, 24000)
	comps := []seggraph.Component{
		seggraph.Forward(2, 3, 4, 5, 6),
		seggraph.Forward(0, 1),
	}

	got := MergeComponents(comps, nodes, 5, 500000)

	assert.Equal(t, []seggraph.Component{seggraph.Forward(0, 1, 2, 3, 4, 5, 6)}, got)
}

func TestSortComponents(t *testing.T) {
	nodes := segments(5000, 0, 1000, 9000, 0)
	nodes[4].Chr = 1
	comps := []seggraph.Component{
		seggraph.Forward(4),
		seggraph.Forward(3, 0),
		{},
		seggraph.Forward(2, 1),
		seggraph.Forward(1),
	}

	SortComponents(comps, nodes)

	want := []seggraph.Component{
		seggraph.Forward(1),
		seggraph.Forward(2, 1),
		seggraph.Forward(3, 0),
		seggraph.Forward(4),
		{},
	}
	assert.Equal(t, want, comps)
}
