package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// Reference names one reference sequence. Node Chr ids index the reference
// list.
type Reference struct {
	Name   string `json:"name"`
	Length int    `json:"length,omitempty"`
}

// Dataset is a decoded graph file.
type Dataset struct {
	References []Reference
	Graph      *seggraph.Graph
	// Reads lists, per read, the nodes it aligns to in read order. Nil when
	// the file carries no read table.
	Reads [][]int
}

type graphFile struct {
	References []Reference `json:"references,omitempty"`
	Nodes      []node      `json:"nodes"`
	Edges      []edge      `json:"edges"`
	Reads      [][]int     `json:"reads,omitempty"`
}

type node struct {
	Chr      int                 `json:"chr"`
	Position int                 `json:"position"`
	Length   int                 `json:"length"`
	Support  int                 `json:"support"`
	Chain    []seggraph.Interval `json:"chain,omitempty"`
}

type edge struct {
	Ind1       int    `json:"ind1"`
	Head1      bool   `json:"head1"`
	Ind2       int    `json:"ind2"`
	Head2      bool   `json:"head2"`
	Weight     int    `json:"weight"`
	Provenance string `json:"provenance,omitempty"`
	Mandatory  bool   `json:"mandatory,omitempty"`
}

var provenanceFromString = map[string]seggraph.Provenance{
	"":         seggraph.ProvenanceRaw,
	"raw":      seggraph.ProvenanceRaw,
	"chimeric": seggraph.ProvenanceChimeric,
}

// ReadGraph decodes a graph file from r and builds the graph with
// [seggraph.New], which merges parallel edges.
//
// ReadGraph returns an ErrCodeInvalidFormat error for malformed JSON or an
// unknown provenance, and an ErrCodeInvalidGraph error when the graph itself
// is rejected or a read references an unknown node. ReadGraph does not close r.
func ReadGraph(r io.Reader) (*Dataset, error) {
	var data graphFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}

	nodes := make([]seggraph.Node, len(data.Nodes))
	for i, n := range data.Nodes {
		nodes[i] = seggraph.Node{Chr: n.Chr, Position: n.Position, Length: n.Length, Support: n.Support, Chain: n.Chain}
	}
	edges := make([]seggraph.Edge, len(data.Edges))
	for i, e := range data.Edges {
		p, ok := provenanceFromString[e.Provenance]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "edge %d: unknown provenance %q", i, e.Provenance)
		}
		edges[i] = seggraph.Edge{
			Ind1: e.Ind1, Head1: e.Head1, Ind2: e.Ind2, Head2: e.Head2,
			Weight: e.Weight, Provenance: p, Mandatory: e.Mandatory,
		}
	}
	for i, read := range data.Reads {
		for _, v := range read {
			if v < 0 || v >= len(nodes) {
				return nil, errors.New(errors.ErrCodeInvalidGraph, "read %d: unknown node %d", i, v)
			}
		}
	}

	g, err := seggraph.New(nodes, edges)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "build graph")
	}
	return &Dataset{References: data.References, Graph: g, Reads: data.Reads}, nil
}

// ImportGraph reads the graph file at path.
func ImportGraph(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

// WriteGraph encodes d as indented JSON. Edges are written as stored, so
// parallel edges appear merged; self-loops follow the other edges.
func WriteGraph(d *Dataset, w io.Writer) error {
	out := graphFile{References: d.References, Reads: d.Reads}
	g := d.Graph
	out.Nodes = make([]node, g.NodeCount())
	for i, n := range g.Nodes() {
		out.Nodes[i] = node{Chr: n.Chr, Position: n.Position, Length: n.Length, Support: n.Support, Chain: n.Chain}
	}
	out.Edges = make([]edge, 0, g.EdgeCount()+len(g.Loops()))
	for _, e := range slices.Concat(g.Edges(), g.Loops()) {
		out.Edges = append(out.Edges, edge{
			Ind1: e.Ind1, Head1: e.Head1, Ind2: e.Ind2, Head2: e.Head2,
			Weight: e.Weight, Provenance: e.Provenance.String(), Mandatory: e.Mandatory,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportGraph writes d to a JSON file at path.
func ExportGraph(d *Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(d, f)
}
