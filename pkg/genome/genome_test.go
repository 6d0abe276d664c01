package genome

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

func TestComplement(t *testing.T) {
	tests := []struct {
		in, want byte
	}{
		{'A', 'T'}, {'T', 'A'}, {'C', 'G'}, {'G', 'C'},
		{'a', 't'}, {'g', 'c'},
		{'R', 'Y'}, {'y', 'r'}, {'K', 'M'}, {'B', 'V'}, {'D', 'H'},
		{'S', 'S'}, {'W', 'W'}, {'N', 'N'},
		{'-', '-'}, {'.', '.'},
		{'U', 'A'}, {'X', 'N'}, {0, 'N'},
	}
	for _, tt := range tests {
		if got := Complement(tt.in); got != tt.want {
			t.Errorf("Complement(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"A", "T"},
		{"ACGT", "ACGT"},
		{"AACCG", "CGGTT"},
		{"acgN-", "-Ncgt"},
	}
	for _, tt := range tests {
		if got := string(ReverseComplement([]byte(tt.in))); got != tt.want {
			t.Errorf("ReverseComplement(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReadFASTA(t *testing.T) {
	in := ">chr1 first\nACGT\nAC\n\n>chr2\nGG\n"
	refs, err := ReadFASTA(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadFASTA: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d records, want 2", len(refs))
	}
	if refs[0].Name != "chr1" || string(refs[0].Seq) != "ACGTAC" {
		t.Errorf("refs[0] = %s %s", refs[0].Name, refs[0].Seq)
	}
	if refs[1].Name != "chr2" || string(refs[1].Seq) != "GG" {
		t.Errorf("refs[1] = %s %s", refs[1].Name, refs[1].Seq)
	}

	if _, err := ReadFASTA(strings.NewReader("ACGT\n")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("headerless input: err = %v, want INVALID_FORMAT", err)
	}
}

func TestRender(t *testing.T) {
	refs := []Reference{{Name: "chr1", Seq: []byte("AAAACCCCGGGGTTTT")}}
	// AAAA, CCCC, and GGGGTTTT stored as a two-part chain.
	nodes := []seggraph.Node{
		{Chr: 0, Position: 0, Length: 4},
		{Chr: 0, Position: 4, Length: 4},
		{Chr: 0, Position: 8, Length: 8,
			Chain: []seggraph.Interval{{Chr: 0, Start: 8, End: 12}, {Chr: 0, Start: 12, End: 16}}},
	}
	comps := []seggraph.Component{
		{{Node: 0}, {Node: 1, Reverse: true}},
		{},
		{{Node: 2, Reverse: true}},
	}

	var buf bytes.Buffer
	if err := Render(&buf, comps, nodes, refs); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := ">component_0 nodes=2 length=8\nAAAAGGGG\n" +
		">component_2 nodes=1 length=8\nAAAACCCC\n"
	if got := buf.String(); got != want {
		t.Errorf("Render =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderWrapsLines(t *testing.T) {
	refs := []Reference{{Name: "chr1", Seq: bytes.Repeat([]byte("A"), 130)}}
	nodes := []seggraph.Node{{Chr: 0, Position: 0, Length: 130}}

	var buf bytes.Buffer
	if err := Render(&buf, []seggraph.Component{seggraph.Forward(0)}, nodes, refs); err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header plus 3", len(lines))
	}
	if len(lines[1]) != LineWidth || len(lines[3]) != 10 {
		t.Errorf("line widths = %d, %d", len(lines[1]), len(lines[3]))
	}
}

func TestRenderOutOfBounds(t *testing.T) {
	refs := []Reference{{Name: "chr1", Seq: []byte("ACGT")}}
	nodes := []seggraph.Node{{Chr: 0, Position: 2, Length: 8}, {Chr: 3, Length: 1}}

	for _, n := range []int{0, 1, 5} {
		err := Render(&bytes.Buffer{}, []seggraph.Component{seggraph.Forward(n)}, nodes, refs)
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("node %d: err = %v, want INVALID_INPUT", n, err)
		}
	}
}
