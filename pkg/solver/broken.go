package solver

import (
	"cmp"
	"slices"

	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// ResolveBroken restores edges removed by min-cut partitioning.
//
// selected and broken index into edges. Mandatory broken edges (see
// [Options.MandatoryWeight]) are restored first and displace any other edge
// selected at their extremities; a mandatory edge that collides with another
// mandatory edge returns an [errors.ErrCodeInfeasible] error. The remaining
// broken edges are then visited in descending weight, ties by lower index,
// and each one is added when neither of its extremities is used by an edge
// kept so far. The result holds the kept edge indices in ascending order.
func ResolveBroken(selected, broken []int, edges []seggraph.Edge, opts Options) ([]int, error) {
	type end struct {
		node int
		head bool
	}
	owner := make(map[end]int, 2*len(selected))
	kept := make(map[int]bool, len(selected))
	ends := func(ei int) [2]end {
		e := edges[ei]
		return [2]end{{e.Ind1, e.Head1}, {e.Ind2, e.Head2}}
	}
	take := func(ei int) {
		for _, x := range ends(ei) {
			owner[x] = ei
		}
		kept[ei] = true
	}
	release := func(ei int) {
		for _, x := range ends(ei) {
			if owner[x] == ei {
				delete(owner, x)
			}
		}
		delete(kept, ei)
	}
	for _, ei := range selected {
		take(ei)
	}

	order := slices.Clone(broken)
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(edges[b].Weight, edges[a].Weight); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	for _, ei := range order {
		e := edges[ei]
		if e.Ind1 == e.Ind2 || !opts.mandatory(e) {
			continue
		}
		for _, x := range ends(ei) {
			other, used := owner[x]
			if !used {
				continue
			}
			if opts.mandatory(edges[other]) {
				return nil, errors.New(errors.ErrCodeInfeasible,
					"mandatory edges %d and %d share an end of node %d", other, ei, x.node)
			}
			release(other)
		}
		take(ei)
	}

	for _, ei := range order {
		if kept[ei] || edges[ei].Ind1 == edges[ei].Ind2 {
			continue
		}
		x := ends(ei)
		if _, used := owner[x[0]]; used {
			continue
		}
		if _, used := owner[x[1]]; used {
			continue
		}
		take(ei)
	}

	out := make([]int, 0, len(kept))
	for ei := range kept {
		out = append(out, ei)
	}
	slices.Sort(out)
	return out, nil
}
