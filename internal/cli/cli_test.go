package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/segraph/pkg/cache"
	segio "github.com/matzehuels/segraph/pkg/io"
	"github.com/matzehuels/segraph/pkg/pipeline"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// writeInversion writes a three-segment graph whose best reading inverts the
// middle segment, and returns its path.
func writeInversion(t *testing.T, dir string) string {
	t.Helper()
	nodes := make([]seggraph.Node, 3)
	for i := range nodes {
		nodes[i] = seggraph.Node{Chr: 0, Position: i * 1000, Length: 1000, Support: 10}
	}
	g, err := seggraph.New(nodes, []seggraph.Edge{
		{Ind1: 0, Ind2: 1, Weight: 10, Provenance: seggraph.ProvenanceChimeric},
		{Ind1: 1, Head1: true, Ind2: 2, Head2: true, Weight: 10, Provenance: seggraph.ProvenanceChimeric},
		{Ind1: 0, Ind2: 1, Head2: true, Weight: 6},
		{Ind1: 1, Ind2: 2, Head2: true, Weight: 6},
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "graph.json")
	d := &segio.Dataset{References: []segio.Reference{{Name: "chr1", Length: 3000}}, Graph: g}
	if err := segio.ExportGraph(d, path); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the CLI with args and returns the log output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs bytes.Buffer
	c := New(&logs, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return logs.String(), err
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()

	want := []string{"cache", "completion", "components", "solve", "stats"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestMergeOptions(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "segraph.toml")
	if err := os.WriteFile(config, []byte("workers = 4\nmerge_cutoff = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	flags := pipeline.Options{Workers: 2, MergeCutoff: 9, SolverTimeout: time.Minute}
	changed := func(name string) bool { return name == "workers" || name == "solver-timeout" }

	opts, err := mergeOptions(config, flags, changed)
	if err != nil {
		t.Fatalf("mergeOptions() error: %v", err)
	}

	if opts.Workers != 2 {
		t.Errorf("Workers = %d, want 2 (flag overrides config)", opts.Workers)
	}
	if opts.MergeCutoff != 7 {
		t.Errorf("MergeCutoff = %d, want 7 (config kept when flag unset)", opts.MergeCutoff)
	}
	if opts.SolverTimeout != time.Minute {
		t.Errorf("SolverTimeout = %v, want 1m", opts.SolverTimeout)
	}
}

func TestMergeOptionsMissingConfig(t *testing.T) {
	_, err := mergeOptions(filepath.Join(t.TempDir(), "none.yaml"), pipeline.Options{}, func(string) bool { return false })
	if err == nil {
		t.Error("mergeOptions() should fail for a missing config file")
	}
}

func TestSolveCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeInversion(t, dir)
	ref := filepath.Join(dir, "ref.fa")
	if err := os.WriteFile(ref, []byte(">chr1\n"+strings.Repeat("ACGT", 750)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "components.txt")
	graphOut := filepath.Join(dir, "compressed.json")
	genomeOut := filepath.Join(dir, "genome.fa")
	metricsOut := filepath.Join(dir, "metrics.prom")

	logs, err := execute(t, "solve", input, "-o", out, "--no-cache",
		"--graph-out", graphOut, "--reference", ref, "--genome", genomeOut, "--metrics-file", metricsOut)
	if err != nil {
		t.Fatalf("solve error: %v\nlogs:\n%s", err, logs)
	}

	comps, err := segio.ImportComponents(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(comps) != 1 || comps[0].String() != "0 -1 2" {
		t.Errorf("components = %v, want [0 -1 2]", comps)
	}
	if _, err := segio.ImportGraph(graphOut); err != nil {
		t.Errorf("graph-out not readable: %v", err)
	}
	fasta, err := os.ReadFile(genomeOut)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(fasta), ">component_0 nodes=3 length=3000\n") {
		t.Errorf("genome header = %q", strings.SplitN(string(fasta), "\n", 2)[0])
	}
	metrics, err := os.ReadFile(metricsOut)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(metrics), "segraph_runs_total") {
		t.Error("metrics file should contain run counter")
	}
}

func TestSolveCommandErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeInversion(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"solve", filepath.Join(dir, "none.json"), "--no-cache"}},
		{"genome without reference", []string{"solve", input, "--no-cache", "--genome", filepath.Join(dir, "g.fa")}},
		{"bad cache url", []string{"solve", input, "--cache", "http://localhost"}},
		{"invalid workers", []string{"solve", input, "--no-cache", "--workers", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestComponentsMergeCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeInversion(t, dir)
	list := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(list, []byte("# split\n2\n0 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.txt")

	if _, err := execute(t, "components", "merge", input, list, "-o", out); err != nil {
		t.Fatalf("merge error: %v", err)
	}

	comps, err := segio.ImportComponents(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(comps) != 1 || comps[0].String() != "0 1 2" {
		t.Errorf("merged = %v, want [0 1 2]", comps)
	}
}

func TestComponentsSortRejectsUnknownNode(t *testing.T) {
	dir := t.TempDir()
	input := writeInversion(t, dir)
	list := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(list, []byte("0 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "components", "sort", input, list); err == nil {
		t.Error("sort should reject a step outside the graph")
	}
}

func TestStatsCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeInversion(t, dir)
	degree := filepath.Join(dir, "degree.tsv")
	components := filepath.Join(dir, "components.tsv")
	dot := filepath.Join(dir, "component.dot")

	if _, err := execute(t, "stats", input, "--degree", degree, "--components", components, "--dot", dot); err != nil {
		t.Fatalf("stats error: %v", err)
	}

	data, err := os.ReadFile(components)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "0\t3\t0,1,2") {
		t.Errorf("components report = %q", data)
	}
	data, err = os.ReadFile(dot)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "graph G {") {
		t.Errorf("dot output should start with a graph declaration, got %q", data)
	}
	if _, err := os.Stat(degree); err != nil {
		t.Errorf("degree report missing: %v", err)
	}

	if _, err := execute(t, "stats", input, "--dot", dot, "--component", "5"); err == nil {
		t.Error("stats should reject an unknown component")
	}
}

func TestCacheClearCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	input := writeInversion(t, t.TempDir())

	if _, err := execute(t, "solve", input, "-o", filepath.Join(t.TempDir(), "out.txt")); err != nil {
		t.Fatalf("solve error: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(xdg, appName))
	if len(entries) == 0 {
		t.Fatal("solve should populate the cache")
	}

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	entries, _ = os.ReadDir(filepath.Join(xdg, appName))
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after clear", len(entries))
	}
}

func TestStatsLine(t *testing.T) {
	tests := []struct {
		hits int
		want string
	}{
		{-1, "3 nodes"},
		{0, "fresh"},
		{2, "2 cached"},
	}
	for _, tt := range tests {
		if got := statsLine(3, 4, tt.hits); !strings.Contains(got, tt.want) {
			t.Errorf("statsLine(3, 4, %d) = %q, want it to contain %q", tt.hits, got, tt.want)
		}
	}
}

func TestNewRunnerCachePrefix(t *testing.T) {
	c := New(&bytes.Buffer{}, log.InfoLevel)

	r, err := c.newRunner(context.Background(), cacheFlags{noCache: true, prefix: "sample:"})
	if err != nil {
		t.Fatal(err)
	}
	want := "sample:" + cache.NewDefaultKeyer().LeafKey([]int{0, 1}, nil, cache.LeafKeyOpts{})
	if got := r.Keyer.LeafKey([]int{0, 1}, nil, cache.LeafKeyOpts{}); got != want {
		t.Errorf("LeafKey = %q, want %q", got, want)
	}

	r, err = c.newRunner(context.Background(), cacheFlags{noCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Keyer.(cache.DefaultKeyer); !ok {
		t.Errorf("Keyer = %T, want cache.DefaultKeyer", r.Keyer)
	}
	if reason, ok := cache.DisabledReason(r.Cache); !ok || reason != "--no-cache" {
		t.Errorf("DisabledReason = %q, %v, want --no-cache, true", reason, ok)
	}
}

// complete runs the hidden completion request command and returns the
// offered values and the directive line.
func complete(t *testing.T, args ...string) []string {
	t.Helper()
	var out bytes.Buffer
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
	root.SetArgs(append([]string{cobra.ShellCompRequestCmd}, args...))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func TestFileCompletions(t *testing.T) {
	filter := fmt.Sprintf(":%d", cobra.ShellCompDirectiveFilterFileExt)
	noFile := fmt.Sprintf(":%d", cobra.ShellCompDirectiveNoFileComp)
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"solve", ""}, []string{"json", filter}},
		{[]string{"solve", "--config", ""}, []string{"toml", "yaml", "yml", filter}},
		{[]string{"solve", "--reference", ""}, []string{"fa", "fasta", filter}},
		{[]string{"stats", "g.json", "--svg", ""}, []string{"svg", filter}},
		{[]string{"components", "merge", "g.json", ""}, []string{"txt", filter}},
		{[]string{"components", "merge", "g.json", "c.txt", ""}, []string{noFile}},
	}
	for _, tt := range tests {
		got := complete(t, tt.args...)
		if strings.Join(got, " ") != strings.Join(tt.want, " ") {
			t.Errorf("complete %v = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestCompletionScript(t *testing.T) {
	var out bytes.Buffer
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
	root.SetArgs([]string{"completion", "bash"})
	root.SetOut(&out)
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "__start_segraph") {
		t.Error("bash script should define __start_segraph")
	}
}
