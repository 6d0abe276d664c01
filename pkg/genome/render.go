package genome

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// LineWidth is the number of bases per FASTA sequence line.
const LineWidth = 60

// Reference is one named reference sequence. Node Chr ids index a slice of
// references.
type Reference struct {
	Name string
	Seq  []byte
}

// ReadFASTA reads every record from r. The name is the header up to the first
// whitespace; sequence lines are concatenated with surrounding space removed.
func ReadFASTA(r io.Reader) ([]Reference, error) {
	var refs []Reference
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<30)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		switch {
		case len(text) == 0:
			continue
		case text[0] == '>':
			name, _, _ := strings.Cut(string(text[1:]), " ")
			refs = append(refs, Reference{Name: name})
		case len(refs) == 0:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "line %d: sequence before first header", line)
		default:
			last := &refs[len(refs)-1]
			last.Seq = append(last.Seq, text...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read fasta")
	}
	return refs, nil
}

// Sequence returns the bases of one oriented step. Compressed nodes contribute
// each chain interval in order.
func Sequence(s seggraph.Step, nodes []seggraph.Node, refs []Reference) ([]byte, error) {
	if s.Node < 0 || s.Node >= len(nodes) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "node %d out of range", s.Node)
	}
	var seq []byte
	for _, iv := range nodes[s.Node].Intervals() {
		if iv.Chr < 0 || iv.Chr >= len(refs) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "node %d: unknown reference %d", s.Node, iv.Chr)
		}
		ref := refs[iv.Chr].Seq
		if iv.Start < 0 || iv.End > len(ref) || iv.Start > iv.End {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"node %d: interval %d-%d outside %s (%d bases)", s.Node, iv.Start, iv.End, refs[iv.Chr].Name, len(ref))
		}
		part := bytes.Clone(ref[iv.Start:iv.End])
		if iv.Reverse {
			ReverseComplement(part)
		}
		seq = append(seq, part...)
	}
	if s.Reverse {
		ReverseComplement(seq)
	}
	return seq, nil
}

// Render writes one FASTA record per non-empty component. Records are named
// after their position in components.
func Render(w io.Writer, components []seggraph.Component, nodes []seggraph.Node, refs []Reference) error {
	bw := bufio.NewWriter(w)
	for i, comp := range components {
		if len(comp) == 0 {
			continue
		}
		var seq []byte
		for _, s := range comp {
			part, err := Sequence(s, nodes, refs)
			if err != nil {
				return fmt.Errorf("component %d: %w", i, err)
			}
			seq = append(seq, part...)
		}
		fmt.Fprintf(bw, ">component_%d nodes=%d length=%d\n", i, len(comp), len(seq))
		for len(seq) > 0 {
			n := min(LineWidth, len(seq))
			bw.Write(seq[:n])
			bw.WriteByte('\n')
			seq = seq[n:]
		}
	}
	return bw.Flush()
}
