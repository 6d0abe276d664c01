package cli

import (
	"github.com/spf13/cobra"
)

// fileFlags lists, per flag name, the file extensions offered when a shell
// completes the flag's value. A flag name means the same kind of file in every
// command that has it.
var fileFlags = map[string][]string{
	"config":       {"toml", "yaml", "yml"},
	"output":       {"txt"},
	"graph-out":    {"json"},
	"reference":    {"fa", "fasta"},
	"genome":       {"fa", "fasta"},
	"metrics-file": {"prom", "txt"},
	"degree":       {"tsv"},
	"components":   {"tsv"},
	"dot":          {"dot", "gv"},
	"svg":          {"svg"},
}

// completeFiles completes the i-th positional argument to a file with one of
// exts[i]; later arguments get no completion.
func completeFiles(exts ...[]string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= len(exts) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return exts[len(args)], cobra.ShellCompDirectiveFilterFileExt
	}
}

// registerCompletions walks the command tree under root and attaches file
// completions to the graph and component arguments and to every flag listed
// in fileFlags.
func registerCompletions(root *cobra.Command) {
	graph, components := []string{"json"}, []string{"txt"}
	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		switch cmd.CommandPath() {
		case "segraph solve", "segraph stats":
			cmd.ValidArgsFunction = completeFiles(graph)
		case "segraph components sort", "segraph components merge":
			cmd.ValidArgsFunction = completeFiles(graph, components)
		}
		for name, exts := range fileFlags {
			if cmd.Flags().Lookup(name) == nil {
				continue
			}
			_ = cmd.RegisterFlagCompletionFunc(name, func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
				return exts, cobra.ShellCompDirectiveFilterFileExt
			})
		}
		for _, sub := range cmd.Commands() {
			walk(sub)
		}
	}
	walk(root)
}

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for segraph.

Besides commands and flags, the scripts complete graph arguments to .json
files, component lists to .txt, --config to TOML or YAML, and report flags to
their file types.

  source <(segraph completion bash)
  segraph completion zsh > "${fpath[1]}/_segraph"
  segraph completion fish > ~/.config/fish/completions/segraph.fish
  segraph completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}
