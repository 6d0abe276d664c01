package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/segraph/pkg/errors"
	segio "github.com/matzehuels/segraph/pkg/io"
)

// statsFlags holds the flags of the stats command.
type statsFlags struct {
	degree           string
	components       string
	dot              string
	svg              string
	component        int
	maxComponentSize int
	weightCutoff     int
}

// statsCommand creates the stats command for inspecting a graph.
func (c *CLI) statsCommand() *cobra.Command {
	var flags statsFlags

	cmd := &cobra.Command{
		Use:   "stats [graph.json]",
		Short: "Summarize a graph and write debug reports",
		Long: `Summarize a breakpoint graph and optionally write reports.

--degree and --components write tab-separated tables. --dot and --svg draw one
connected component (chosen with --component) with graphviz.`,
		Example: `  segraph stats sample.json
  segraph stats sample.json --degree degree.tsv --components components.tsv
  segraph stats sample.json --component 3 --svg component3.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStats(cmd, args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.degree, "degree", "", "write per-node degrees (TSV)")
	f.StringVar(&flags.components, "components", "", "write connected components (TSV)")
	f.StringVar(&flags.dot, "dot", "", "write one component as graphviz DOT")
	f.StringVar(&flags.svg, "svg", "", "render one component as SVG")
	f.IntVar(&flags.component, "component", 0, "component label for --dot and --svg")
	f.IntVar(&flags.maxComponentSize, "max-component-size", 0, "bound component labels to this many nodes (0 = unbounded)")
	f.IntVar(&flags.weightCutoff, "weight-cutoff", 0, "drop edges below this weight before labeling (0 keeps all)")

	return cmd
}

func (c *CLI) runStats(cmd *cobra.Command, input string, flags statsFlags) error {
	ctx := cmd.Context()
	data, err := segio.ImportGraph(input)
	if err != nil {
		return err
	}
	g := data.Graph
	if flags.weightCutoff > 0 {
		removed := g.FilterbyWeight(flags.weightCutoff)
		loggerFromContext(ctx).Debug("filtered edges", "cutoff", flags.weightCutoff, "removed", removed)
	}
	count := g.ConnectedComponentBounded(flags.maxComponentSize)

	printSuccess("Loaded %s", input)
	printStats(g.NodeCount(), g.EdgeCount(), -1)
	printKeyValue("Components", fmt.Sprintf("%d", count))
	printKeyValue("Largest", fmt.Sprintf("%d nodes", g.MaxComponentSize()))
	printKeyValue("References", fmt.Sprintf("%d", len(data.References)))
	if len(data.Reads) > 0 {
		printKeyValue("Reads", fmt.Sprintf("%d", len(data.Reads)))
	}

	if flags.degree != "" {
		if err := writeReport(flags.degree, func(w io.Writer) error { return segio.WriteDegree(w, g) }); err != nil {
			return err
		}
	}
	if flags.components != "" {
		if err := writeReport(flags.components, func(w io.Writer) error { return segio.WriteConnectedComponents(w, g) }); err != nil {
			return err
		}
	}
	if flags.dot == "" && flags.svg == "" {
		return nil
	}

	groups := g.Components()
	if flags.component < 0 || flags.component >= len(groups) {
		return errors.New(errors.ErrCodeInvalidInput, "component %d does not exist (graph has %d)", flags.component, len(groups))
	}
	nodes := groups[flags.component]
	opts := segio.DOTOptions{References: data.References}
	if flags.dot != "" {
		dot := segio.ComponentDOT(g, nodes, opts)
		if err := writeReport(flags.dot, func(w io.Writer) error {
			_, err := io.WriteString(w, dot)
			return err
		}); err != nil {
			return err
		}
	}
	if flags.svg != "" {
		spin := newSpinnerWithContext(ctx, "Rendering "+describeComponent(flags.component, len(nodes)))
		spin.Start()
		svg, err := segio.RenderComponentSVG(ctx, g, nodes, opts)
		if err != nil {
			spin.StopWithError("Rendering failed")
			return err
		}
		spin.Stop()
		if err := os.WriteFile(flags.svg, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", flags.svg, err)
		}
		printFile(flags.svg)
	}
	return nil
}

// writeReport creates path and fills it with write.
func writeReport(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printFile(path)
	return nil
}
