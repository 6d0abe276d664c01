package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/segraph/pkg/buildinfo"
	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/genome"
	segio "github.com/matzehuels/segraph/pkg/io"
	"github.com/matzehuels/segraph/pkg/metrics"
	"github.com/matzehuels/segraph/pkg/observability"
	"github.com/matzehuels/segraph/pkg/pipeline"
)

// solveFlags holds the flags of the solve command that are not pipeline options.
type solveFlags struct {
	output      string
	graphOut    string
	config      string
	reference   string
	genomeOut   string
	metricsFile string
	cache       cacheFlags
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var flags solveFlags
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "solve [graph.json]",
		Short: "Resolve a breakpoint graph into oriented chains",
		Long: `Resolve a breakpoint graph into oriented chains of segments.

The graph is filtered and compressed, split into connected components, and
each component is solved for a maximum-weight set of adjacencies. Steps in the
output refer to nodes of the compressed graph; use --graph-out to save it.

Options come from pipeline defaults, then --config (TOML or YAML), then flags.`,
		Example: `  # Write components to stdout
  segraph solve sample.json

  # Save components and the compressed graph, with a config file
  segraph solve sample.json -o sample.txt --graph-out sample.compressed.json --config segraph.toml

  # Also write the rearranged genome
  segraph solve sample.json -o sample.txt --reference ref.fa --genome sample.fa`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, err := mergeOptions(flags.config, opts, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			return c.runSolve(cmd, args[0], merged, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "output components file (default: stdout)")
	f.StringVar(&flags.graphOut, "graph-out", "", "write the compressed graph as JSON")
	f.StringVar(&flags.config, "config", "", "load options from a TOML or YAML file")
	f.StringVar(&flags.reference, "reference", "", "reference FASTA for --genome")
	f.StringVar(&flags.genomeOut, "genome", "", "write the sequence of each component as FASTA")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics in text format")
	f.BoolVar(&flags.cache.noCache, "no-cache", false, "disable caching of solved pieces")
	f.StringVar(&flags.cache.url, "cache", "", "redis URL for the cache (default: local directory)")
	f.StringVar(&flags.cache.prefix, "cache-prefix", "", "prefix for cache keys, to keep datasets apart in a shared cache")

	f.IntVar(&opts.WeightCutoff, "weight-cutoff", pipeline.DefaultWeightCutoff, "minimum edge weight (negative keeps all)")
	f.BoolVar(&opts.SkipInterleaving, "skip-interleaving", false, "keep interleaving chimeric edges")
	f.BoolVar(&opts.SkipCompress, "skip-compress", false, "do not compress pass-through chains")
	f.IntVar(&opts.MaxComponentSize, "max-component-size", 0, "split components above this many nodes (0 = unbounded)")
	f.IntVar(&opts.SimplifyCutoff, "simplify-cutoff", pipeline.DefaultSimplifyCutoff, "support needed to keep a node out of simplification")
	f.IntVar(&opts.MaxSolverNodes, "max-solver-nodes", pipeline.DefaultMaxSolverNodes, "largest piece handed to the solver, in nodes")
	f.IntVar(&opts.MaxSolverEdges, "max-solver-edges", pipeline.DefaultMaxSolverEdges, "largest piece handed to the solver, in edges")
	f.DurationVar(&opts.SolverTimeout, "solver-timeout", pipeline.DefaultSolverTimeout, "time limit per solved piece")
	f.IntVar(&opts.MaxSearchNodes, "max-search-nodes", pipeline.DefaultMaxSearchNodes, "branch-and-bound node limit per piece")
	f.Float64Var(&opts.ChimericFactor, "chimeric-factor", 1, "objective multiplier for chimeric edges")
	f.IntVar(&opts.MandatoryWeight, "mandatory-weight", 0, "force edges with at least this weight (0 = off)")
	f.IntVar(&opts.LenCutOff, "len-cutoff", pipeline.DefaultLenCutOff, "largest gap in bases bridged when merging")
	f.IntVar(&opts.MergeCutoff, "merge-cutoff", pipeline.DefaultMergeCutoff, "merge components with fewer nodes than this")
	f.IntVar(&opts.Workers, "workers", pipeline.DefaultWorkers, "components solved in parallel")
	f.BoolVar(&opts.Refresh, "refresh", false, "ignore cached solutions")

	return cmd
}

// mergeOptions loads the config file, if any, and applies every flag the
// user set on top of it.
func mergeOptions(configPath string, flagOpts pipeline.Options, changed func(string) bool) (pipeline.Options, error) {
	var opts pipeline.Options
	if configPath != "" {
		loaded, err := pipeline.LoadConfig(configPath)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}

	overrides := []struct {
		flag  string
		apply func()
	}{
		{"weight-cutoff", func() { opts.WeightCutoff = flagOpts.WeightCutoff }},
		{"skip-interleaving", func() { opts.SkipInterleaving = flagOpts.SkipInterleaving }},
		{"skip-compress", func() { opts.SkipCompress = flagOpts.SkipCompress }},
		{"max-component-size", func() { opts.MaxComponentSize = flagOpts.MaxComponentSize }},
		{"simplify-cutoff", func() { opts.SimplifyCutoff = flagOpts.SimplifyCutoff }},
		{"max-solver-nodes", func() { opts.MaxSolverNodes = flagOpts.MaxSolverNodes }},
		{"max-solver-edges", func() { opts.MaxSolverEdges = flagOpts.MaxSolverEdges }},
		{"solver-timeout", func() { opts.SolverTimeout = flagOpts.SolverTimeout }},
		{"max-search-nodes", func() { opts.MaxSearchNodes = flagOpts.MaxSearchNodes }},
		{"chimeric-factor", func() { opts.ChimericFactor = flagOpts.ChimericFactor }},
		{"mandatory-weight", func() { opts.MandatoryWeight = flagOpts.MandatoryWeight }},
		{"len-cutoff", func() { opts.LenCutOff = flagOpts.LenCutOff }},
		{"merge-cutoff", func() { opts.MergeCutoff = flagOpts.MergeCutoff }},
		{"workers", func() { opts.Workers = flagOpts.Workers }},
		{"refresh", func() { opts.Refresh = flagOpts.Refresh }},
	}
	for _, o := range overrides {
		if changed(o.flag) {
			o.apply()
		}
	}
	return opts, nil
}

func (c *CLI) runSolve(cmd *cobra.Command, input string, opts pipeline.Options, flags solveFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	if (flags.reference == "") != (flags.genomeOut == "") {
		return errors.New(errors.ErrCodeInvalidInput, "--reference and --genome must be used together")
	}

	prog := newProgress(logger)
	data, err := segio.ImportGraph(input)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Loaded %d nodes, %d edges", data.Graph.NodeCount(), data.Graph.EdgeCount()))

	var m *metrics.Metrics
	if flags.metricsFile != "" {
		m = metrics.New()
		m.Register()
		defer observability.Reset()
	}

	runner, err := c.newRunner(ctx, flags.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts.Logger = logger
	res, err := runner.Run(ctx, data.Graph, data.Reads, opts)
	if err != nil {
		return err
	}

	if err := writeComponents(flags.output, res); err != nil {
		return err
	}
	if flags.graphOut != "" {
		out := &segio.Dataset{References: data.References, Graph: res.Graph, Reads: res.Reads}
		if err := segio.ExportGraph(out, flags.graphOut); err != nil {
			return err
		}
	}
	if flags.genomeOut != "" {
		if err := writeGenome(flags.reference, flags.genomeOut, res); err != nil {
			return err
		}
	}
	if m != nil {
		if err := m.WriteToTextfile(flags.metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	printSummary(res, flags)
	return nil
}

func writeComponents(path string, res *pipeline.Result) error {
	if path == "" || path == "-" {
		return segio.WriteComponents(os.Stdout, res.Components)
	}
	header := fmt.Sprintf("segraph %s run %s %s", buildinfo.Version, res.RunID, time.Now().UTC().Format(time.RFC3339))
	return segio.ExportComponents(path, header, res.Components)
}

func writeGenome(refPath, outPath string, res *pipeline.Result) error {
	f, err := os.Open(refPath)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", refPath)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", refPath, err)
	}
	defer f.Close()
	refs, err := genome.ReadFASTA(f)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	if err := genome.Render(out, res.Components, res.Graph.Nodes(), refs); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// printSummary reports the run on stdout unless components went there.
func printSummary(res *pipeline.Result, flags solveFlags) {
	if flags.output == "" || flags.output == "-" {
		return
	}
	s := res.Stats
	printSuccess("Resolved %d components", len(res.Components))
	printStats(s.Nodes, s.Edges, s.CacheHits)
	printKeyValue("Solved", fmt.Sprintf("%d of %d", s.Solved, s.Components))
	if s.BrokenEdges > 0 {
		printKeyValue("Min cuts", fmt.Sprintf("%d edges cut, %d restored", s.BrokenEdges, s.RestoredEdges))
	}
	for _, w := range res.Warnings {
		printWarning("component %d: %s", w.Component, errors.UserMessage(w.Err))
	}
	for _, f := range res.Failures {
		printError("component %d: %s", f.Component, errors.UserMessage(f.Err))
	}
	printFile(flags.output)
	for _, p := range []string{flags.graphOut, flags.genomeOut, flags.metricsFile} {
		if p != "" {
			printFile(p)
		}
	}
	if flags.graphOut == "" {
		printNextStep("Save the compressed graph to inspect components", "segraph solve --graph-out graph.json")
	}
}
