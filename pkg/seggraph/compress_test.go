package seggraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressNodeLinearChain(t *testing.T) {
	edges := []Edge{
		concordant(0, 1, 10),
		concordant(1, 2, 10),
		concordant(2, 3, 10),
		concordant(3, 4, 10),
	}
	g, err := New(linearNodes(5, 10), edges)
	require.NoError(t, err)
	g.FilterbyWeight(5)

	mapping := g.CompressNode()

	require.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, []int{0, 0, 0, 0, 0}, mapping)

	n := g.Node(0)
	assert.Equal(t, 0, n.Position)
	assert.Equal(t, 5000, n.Length)
	assert.Equal(t, 50, n.Support)
	require.Len(t, n.Chain, 5)
	for i, iv := range n.Chain {
		assert.Equal(t, Interval{Chr: 0, Start: i * 1000, End: (i + 1) * 1000}, iv)
	}
}

func TestCompressNodeIdempotent(t *testing.T) {
	nodes := linearNodes(8, 4)
	nodes[6].Chr, nodes[7].Chr = 1, 1
	edges := []Edge{
		concordant(0, 1, 10),
		concordant(1, 2, 10),
		concordant(2, 3, 7),
		chimeric(2, false, 5, true, 3), // branch at 2.tail
		concordant(3, 4, 6),
		concordant(5, 6, 6), // crosses references
		chimeric(4, false, 7, false, 8),
		concordant(6, 7, 9),
	}
	g, err := New(nodes, edges)
	require.NoError(t, err)

	g.CompressNode()
	nodesOnce, edgesOnce := g.NodeCount(), g.EdgeCount()
	g.CompressNode()

	assert.Equal(t, nodesOnce, g.NodeCount())
	assert.Equal(t, edgesOnce, g.EdgeCount())
	assert.Less(t, nodesOnce, 8)
	requireLinked(t, g)
}

func TestCompressNodeSkipsOrientationChange(t *testing.T) {
	g, err := New(linearNodes(3, 1), []Edge{
		chimeric(0, false, 1, false, 10), // tail-tail
		{Ind1: 1, Head1: true, Ind2: 2, Head2: true, Weight: 10},
	})
	require.NoError(t, err)

	g.CompressNode()

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
}

func TestCompressNodeSkipsBackwardLink(t *testing.T) {
	// 1.tail joins 0.head: node 0 lies before node 1, so the link runs
	// right to left and is not a pass-through.
	g, err := New(linearNodes(2, 1), []Edge{{Ind1: 0, Head1: true, Ind2: 1, Head2: false, Weight: 10}})
	require.NoError(t, err)

	g.CompressNode()

	assert.Equal(t, 2, g.NodeCount())
}

func TestCompressNodeKeepsDuplicationEvidence(t *testing.T) {
	// 0 -> 1 -> 2 with a tandem-duplication junction 2.tail-0.head.
	g, err := New(linearNodes(3, 1), []Edge{
		concordant(0, 1, 10),
		concordant(1, 2, 10),
		chimeric(2, false, 0, true, 5),
	})
	require.NoError(t, err)

	g.CompressNode()

	require.Equal(t, 2, g.NodeCount())
	require.Equal(t, 2, g.EdgeCount())
	for _, e := range g.Edges() {
		assert.NotEqual(t, e.Ind1, e.Ind2)
	}
	requireLinked(t, g)

	before := g.NodeCount()
	g.CompressNode()
	assert.Equal(t, before, g.NodeCount())
}

func TestCompressNodeWithReads(t *testing.T) {
	g, err := New(linearNodes(4, 1), []Edge{
		concordant(0, 1, 10),
		chimeric(1, false, 3, true, 4),
		concordant(1, 2, 3),
	})
	require.NoError(t, err)
	// 1.tail branches, so only 0-1 merges.
	reads := [][]int{{0, 1}, {1, 3}, {2}, {0, 1, 2}}

	mapping := g.CompressNodeWithReads(reads)

	assert.Equal(t, []int{0, 0, 1, 2}, mapping)
	assert.Equal(t, [][]int{{0}, {0, 2}, {1}, {0, 1}}, reads)
	for _, r := range reads {
		for _, v := range r {
			assert.Less(t, v, g.NodeCount())
		}
	}
}

func TestBuild(t *testing.T) {
	edges := []Edge{
		concordant(0, 1, 10),
		concordant(1, 2, 10),
		concordant(2, 3, 2), // below cutoff
		concordant(3, 4, 10),
	}
	reads := [][]int{{1, 2, 3}}

	g, mapping, err := Build(linearNodes(5, 1), edges, WithReads(reads))
	require.NoError(t, err)

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, []int{0, 0, 0, 1, 1}, mapping)
	assert.Equal(t, [][]int{{0, 1}}, reads)

	raw, mapping, err := Build(linearNodes(5, 1), edges, WithWeightCutoff(0), WithCompression(false))
	require.NoError(t, err)
	assert.Nil(t, mapping)
	assert.Equal(t, 5, raw.NodeCount())
	assert.Equal(t, 4, raw.EdgeCount())

	_, _, err = Build(linearNodes(2, 1), []Edge{concordant(0, 9, 1)})
	require.ErrorIs(t, err, ErrInvalidEdgeEndpoint)
}
