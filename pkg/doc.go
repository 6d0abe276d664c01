// Package pkg provides the libraries behind segraph, a breakpoint-graph
// partitioning and optimization engine.
//
// # Overview
//
// A breakpoint graph has one node per reference segment and one edge per
// observed adjacency between segment ends. segraph finds, for every connected
// component, a maximum-weight set of adjacencies in which each segment end is
// used at most once, and reads the result as oriented chains of segments.
//
// The pkg directory is organized as follows:
//
//  1. [seggraph] - Graph model, filters, compression and component labeling
//  2. [seggraph/simplify] - Collapse low-support nodes into skeleton nodes
//  3. [seggraph/mincut] - Split large components along minimum cuts
//  4. [solver] - Exact edge selection by branch and bound
//  5. [assemble] - Chain walking, merging and sorting of components
//  6. [pipeline] - Orchestration with caching and a worker pool
//  7. [io], [genome] - Graph and component files, FASTA output
//  8. [cache], [metrics], [observability], [errors] - Supporting infrastructure
//
// # Architecture
//
//	graph.json
//	     ↓
//	[seggraph] filter, compress, label components
//	     ↓
//	[simplify] → [mincut] → [solver] per component
//	     ↓
//	[assemble] walk selected edges, desimplify, merge, sort
//	     ↓
//	components.txt / genome.fa
//
// # Quick Start
//
//	data, err := io.ImportGraph("sample.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Run(ctx, data.Graph, data.Reads, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	io.WriteComponents(os.Stdout, res.Components)
package pkg
