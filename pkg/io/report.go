package io

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/segraph/pkg/seggraph"
)

// WriteDegree writes one row per node: index, reference, position, length,
// total degree, head degree and tail degree.
func WriteDegree(w io.Writer, g *seggraph.Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "node\tchr\tposition\tlength\tdegree\thead\ttail")
	for i, n := range g.Nodes() {
		fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			i, n.Chr, n.Position, n.Length, n.Degree(), len(n.HeadEdges), len(n.TailEdges))
	}
	return bw.Flush()
}

// WriteConnectedComponents writes one row per label group: label, size and
// the comma-separated member nodes. The graph must be labeled.
func WriteConnectedComponents(w io.Writer, g *seggraph.Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "label\tsize\tnodes")
	for label, members := range g.Components() {
		if len(members) == 0 {
			continue
		}
		ids := make([]string, len(members))
		for i, v := range members {
			ids[i] = strconv.Itoa(v)
		}
		fmt.Fprintf(bw, "%d\t%d\t%s\n", label, len(members), strings.Join(ids, ","))
	}
	return bw.Flush()
}
