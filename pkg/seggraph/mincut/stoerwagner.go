package mincut

import (
	"container/heap"
	"slices"

	"gonum.org/v1/gonum/graph"
)

// Cut is a bipartition found by [StoerWagner].
type Cut struct {
	// Weight is the summed weight of the edges between the two sides.
	Weight float64

	// Side holds the node IDs of one side. The other side is every other
	// node of the graph. IDs are ascending.
	Side []int64
}

// StoerWagner computes a global minimum cut of the undirected weighted graph g.
// Edges from a node to itself are ignored.
//
// Every phase of the algorithm yields a candidate cut. Among candidates of
// minimum weight, the one whose smaller side is largest is returned, so a
// graph with many equally light cuts, like a uniform path, is bisected rather
// than trimmed one node at a time. For fewer than two nodes there is no cut
// and StoerWagner returns a zero Cut with ok set to false.
//
// The graph is read into adjacency maps once, so time is O(n·(n+m)·log n)
// and memory O(n+m). Ties in the maximum-adjacency order are broken by lower
// node ID, so the result is deterministic.
func StoerWagner(g graph.WeightedUndirected) (Cut, bool) {
	return BalancedCut(g, 1)
}

// BalancedCut is [StoerWagner] restricted to candidates whose smaller side
// has at least minSide nodes. The unrestricted minimum is returned instead
// when it has zero weight or when no phase yields such a candidate.
func BalancedCut(g graph.WeightedUndirected, minSide int) (Cut, bool) {
	ids := graph.NodesOf(g.Nodes())
	n := len(ids)
	if n < 2 {
		return Cut{}, false
	}
	order := make([]int64, n)
	for i, u := range ids {
		order[i] = u.ID()
	}
	slices.Sort(order)
	index := make(map[int64]int, n)
	for i, id := range order {
		index[id] = i
	}

	adj := make([]map[int]float64, n)
	for i, id := range order {
		adj[i] = make(map[int]float64)
		to := g.From(id)
		for to.Next() {
			vid := to.Node().ID()
			if vid == id {
				continue
			}
			w, _ := g.Weight(id, vid)
			adj[i][index[vid]] = w
		}
	}

	members := make([][]int, n)
	active := make([]int, n)
	for v := range members {
		members[v] = []int{v}
		active[v] = v
	}

	var lightest, balanced phaseBest
	key := make([]float64, n)
	added := make([]bool, n)
	for len(active) > 1 {
		s, prev := phase(active, adj, key, added)

		size := len(members[s])
		lightest.offer(key[s], size, n, members[s])
		if min(size, n-size) >= minSide {
			balanced.offer(key[s], size, n, members[s])
		}

		for v, w := range adj[s] {
			delete(adj[v], s)
			if v == prev {
				continue
			}
			adj[prev][v] += w
			adj[v][prev] += w
		}
		adj[s] = nil
		members[prev] = append(members[prev], members[s]...)
		active = slices.DeleteFunc(active, func(v int) bool { return v == s })
	}

	best := lightest
	if balanced.found && lightest.weight > 0 {
		best = balanced
	}
	cut := Cut{Weight: best.weight, Side: make([]int64, len(best.set))}
	for i, v := range best.set {
		cut.Side[i] = order[v]
	}
	slices.Sort(cut.Side)
	return cut, true
}

// phase runs one maximum-adjacency ordering over active and returns its last
// vertex s and the vertex added just before it. key[s] is the weight of the
// cut of the phase.
func phase(active []int, adj []map[int]float64, key []float64, added []bool) (s, prev int) {
	pq := make(adjacencyQueue, 0, len(active))
	for _, v := range active {
		key[v], added[v] = 0, false
		pq = append(pq, queued{v: v})
	}
	heap.Init(&pq)

	s, prev = -1, -1
	for remaining := len(active); remaining > 0; {
		top := heap.Pop(&pq).(queued)
		if added[top.v] || top.key != key[top.v] {
			continue
		}
		added[top.v] = true
		remaining--
		prev, s = s, top.v
		for v, w := range adj[top.v] {
			if !added[v] {
				key[v] += w
				heap.Push(&pq, queued{v: v, key: key[v]})
			}
		}
	}
	return s, prev
}

// phaseBest tracks the best cut of the phase seen so far.
type phaseBest struct {
	found   bool
	weight  float64
	balance int
	set     []int
}

func (b *phaseBest) offer(weight float64, size, n int, set []int) {
	balance := min(size, n-size)
	if b.found && (weight > b.weight || (weight == b.weight && balance <= b.balance)) {
		return
	}
	b.found, b.weight, b.balance = true, weight, balance
	b.set = append(b.set[:0], set...)
}

type queued struct {
	v   int
	key float64
}

// adjacencyQueue pops the vertex with the largest key, ties by lower index.
type adjacencyQueue []queued

func (q adjacencyQueue) Len() int { return len(q) }
func (q adjacencyQueue) Less(i, j int) bool {
	if q[i].key != q[j].key {
		return q[i].key > q[j].key
	}
	return q[i].v < q[j].v
}
func (q adjacencyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *adjacencyQueue) Push(x any)   { *q = append(*q, x.(queued)) }
func (q *adjacencyQueue) Pop() any {
	old := *q
	x := old[len(old)-1]
	*q = old[:len(old)-1]
	return x
}
