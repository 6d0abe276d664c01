// Package seggraph provides the breakpoint graph used to resolve genome
// rearrangements.
//
// # Overview
//
// A [Graph] holds segment nodes (genomic intervals) and undirected edges that
// carry adjacency evidence between node extremities. Every node has two
// distinguishable ends, the head (its start) and the tail (its end), and every
// edge records which end of each endpoint it attaches to:
//
//	concordant:  A.tail ── B.head      (A precedes B on the reference)
//	inversion:   A.tail ── C.tail      (C is read reverse-complemented)
//
// Nodes and edges live in slices and are addressed by stable integer indices;
// there is no pointer graph. Indices only change across an explicit
// compression ([Graph.CompressNode]), which returns the old-to-new node map.
//
// # Adjacency
//
// Each node keeps the indices of its incident edges split per extremity
// (HeadEdges, TailEdges). [Graph.UpdateNodeLink] rebuilds these lists from the
// edge slice; every bulk mutation calls it before returning, so callers can
// rely on the lists being current.
//
// # Filtering and Compression
//
// [Graph.FilterbyWeight] drops weakly supported edges and
// [Graph.FilterbyInterleaving] drops chimeric junctions that cannot share one
// left-to-right traversal with a heavier junction. [Graph.CompressNode]
// collapses pass-through chains (A.tail ── B.head with no branching at either
// end) into single nodes that remember their original intervals.
//
// # Connected Components
//
// [Graph.ConnectedComponent] labels every node with the id of its connected
// component using an explicit-stack [Graph.DFS].
// [Graph.ConnectedComponentBounded] caps the size of each label group with a
// breadth-first walk; nodes beyond the cap are deferred to later groups.
//
// # Thread Safety
//
// A Graph is not safe for concurrent mutation. Once labeled, concurrent reads
// are safe as long as no goroutine mutates the graph.
package seggraph
