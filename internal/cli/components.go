package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/segraph/pkg/assemble"
	"github.com/matzehuels/segraph/pkg/errors"
	segio "github.com/matzehuels/segraph/pkg/io"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// componentsCommand creates the components command for post-processing
// component lists.
func (c *CLI) componentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components",
		Short: "Sort or merge component lists",
		Long: `Post-process component lists written by "segraph solve".

Both subcommands need the graph the steps refer to, usually the file written
by "segraph solve --graph-out".`,
	}

	cmd.AddCommand(c.componentsSortCommand())
	cmd.AddCommand(c.componentsMergeCommand())

	return cmd
}

// componentsSortCommand creates the "components sort" subcommand.
func (c *CLI) componentsSortCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "sort [graph.json] [components.txt]",
		Short: "Sort components by reference position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, comps, err := loadComponents(args[0], args[1])
			if err != nil {
				return err
			}
			assemble.SortComponents(comps, nodes)
			return writeComponentList(output, "sorted "+args[1], comps)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

// componentsMergeCommand creates the "components merge" subcommand.
func (c *CLI) componentsMergeCommand() *cobra.Command {
	var (
		output      string
		lenCutOff   int
		mergeCutoff int
	)
	cmd := &cobra.Command{
		Use:   "merge [graph.json] [components.txt]",
		Short: "Attach singletons and small components to nearby chains",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidatePositive("len-cutoff", lenCutOff); err != nil {
				return err
			}
			if err := errors.ValidatePositive("merge-cutoff", mergeCutoff); err != nil {
				return err
			}
			nodes, comps, err := loadComponents(args[0], args[1])
			if err != nil {
				return err
			}
			before := len(comps)
			comps = assemble.MergeSingleton(comps, nodes, lenCutOff)
			comps = assemble.MergeComponents(comps, nodes, mergeCutoff, lenCutOff)
			assemble.SortComponents(comps, nodes)
			loggerFromContext(cmd.Context()).Info("merged components", "before", before, "after", len(comps))
			return writeComponentList(output, "merged "+args[1], comps)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVar(&lenCutOff, "len-cutoff", assemble.DefaultLenCutOff, "largest gap in bases bridged when merging")
	cmd.Flags().IntVar(&mergeCutoff, "merge-cutoff", assemble.DefaultMergeCutoff, "merge components with fewer nodes than this")
	return cmd
}

// loadComponents reads a graph and a component list and checks that every
// step names a node of the graph.
func loadComponents(graphPath, compPath string) ([]seggraph.Node, []seggraph.Component, error) {
	data, err := segio.ImportGraph(graphPath)
	if err != nil {
		return nil, nil, err
	}
	comps, err := segio.ImportComponents(compPath)
	if err != nil {
		return nil, nil, err
	}
	nodes := data.Graph.Nodes()
	for i, comp := range comps {
		for _, s := range comp {
			if s.Node >= len(nodes) {
				return nil, nil, errors.New(errors.ErrCodeInvalidInput,
					"%s: component %d references node %d, graph has %d nodes", compPath, i, s.Node, len(nodes))
			}
		}
	}
	return nodes, comps, nil
}

func writeComponentList(path, header string, comps []seggraph.Component) error {
	if path == "" || path == "-" {
		return segio.WriteComponents(os.Stdout, comps)
	}
	if err := segio.ExportComponents(path, header, comps); err != nil {
		return err
	}
	printSuccess("Wrote %d components", len(comps))
	printFile(path)
	return nil
}

// describeComponent formats a component label and size for messages.
func describeComponent(label, size int) string {
	return fmt.Sprintf("component %d (%d nodes)", label, size)
}
