package io

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/segraph/pkg/seggraph"
)

// DOTOptions configures [ComponentDOT].
type DOTOptions struct {
	// Selected highlights edges by index, typically the solver's choice.
	Selected map[int]bool
	// References names reference ids in node labels. Missing names fall back
	// to the numeric id.
	References []Reference
}

// ComponentDOT renders the nodes and the edges among them as an undirected
// Graphviz graph. Nodes are records with a head port on the left and a tail
// port on the right; chimeric edges are dashed and selected edges bold.
func ComponentDOT(g *seggraph.Graph, nodes []int, opts DOTOptions) string {
	in := make(map[int]bool, len(nodes))
	for _, v := range nodes {
		in[v] = true
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for _, v := range g.GenomicOrder(nodes) {
		n := g.Node(v)
		fmt.Fprintf(&buf, "  n%d [label=\"<h> |%d\\n%s:%d-%d\\nsupport %d| <t>\"];\n",
			v, v, refName(opts.References, n.Chr), n.Position, n.End(), n.Support)
	}

	buf.WriteString("\n")
	for i, e := range g.Edges() {
		if !in[e.Ind1] || !in[e.Ind2] {
			continue
		}
		attrs := fmt.Sprintf("label=\"%d\"", e.Weight)
		if e.Provenance == seggraph.ProvenanceChimeric {
			attrs += ", style=dashed, color=firebrick"
		}
		if opts.Selected[i] {
			attrs += ", penwidth=3"
		}
		fmt.Fprintf(&buf, "  n%d:%s -- n%d:%s [%s];\n", e.Ind1, port(e.Head1), e.Ind2, port(e.Head2), attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func port(head bool) string {
	if head {
		return "h"
	}
	return "t"
}

func refName(refs []Reference, chr int) string {
	if chr >= 0 && chr < len(refs) && refs[chr].Name != "" {
		return refs[chr].Name
	}
	return fmt.Sprintf("chr%d", chr)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderComponentSVG renders the component formed by nodes as SVG.
func RenderComponentSVG(ctx context.Context, g *seggraph.Graph, nodes []int, opts DOTOptions) ([]byte, error) {
	return RenderSVG(ctx, ComponentDOT(g, nodes, opts))
}
