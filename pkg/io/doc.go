// Package io reads and writes the file formats used around the pipeline.
//
// # Graph JSON
//
// The input graph is a JSON object with node and edge arrays. Reference names
// and the read-to-node table are optional:
//
//	{
//	  "references": [{"name": "chr1", "length": 248956422}],
//	  "nodes": [
//	    {"chr": 0, "position": 0, "length": 1200, "support": 31},
//	    {"chr": 0, "position": 1200, "length": 800, "support": 27}
//	  ],
//	  "edges": [
//	    {"ind1": 0, "head1": false, "ind2": 1, "head2": true, "weight": 18},
//	    {"ind1": 0, "head1": false, "ind2": 1, "head2": false, "weight": 6,
//	     "provenance": "chimeric"}
//	  ],
//	  "reads": [[0, 1]]
//	}
//
// Nodes are addressed by their position in the array. An edge attaches to the
// start of a node when its head flag is set and to the end otherwise.
// Provenance is "raw" (the default) or "chimeric". Compressed nodes may carry
// a "chain" array of original intervals.
//
// Use [ImportGraph] to read a file or [ReadGraph] to read from any io.Reader.
// [WriteGraph] produces the same format, so a filtered or compressed graph can
// be saved and re-imported.
//
// # Component Lists
//
// Resolved components are written one per line as space-separated node
// indices. A leading "-" marks a node read reverse-complemented, so "-0" is
// node 0 reversed:
//
//	# segraph 1.0.0
//	0 1 -2 3
//	7 -6
//
// Blank lines and lines starting with "#" are ignored on input.
// [ReadComponents] and [WriteComponents] round-trip exactly.
//
// # Reports
//
// [WriteDegree] and [WriteConnectedComponents] emit tab-separated tables for
// inspecting a graph. [ComponentDOT] renders one component's nodes and edges
// as Graphviz DOT, and [RenderComponentSVG] renders it to SVG in-process.
package io
