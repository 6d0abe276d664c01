package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/segraph/pkg/errors"
	"github.com/matzehuels/segraph/pkg/seggraph"
)

// ReadComponents parses a component list. Each non-blank line that does not
// start with "#" is one component; steps are separated by whitespace and a
// leading "-" marks a reversed step.
func ReadComponents(r io.Reader) ([]seggraph.Component, error) {
	var out []seggraph.Component
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		comp := make(seggraph.Component, len(fields))
		for i, f := range fields {
			s, err := parseStep(f)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d", line)
			}
			comp[i] = s
		}
		out = append(out, comp)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read components: %w", err)
	}
	return out, nil
}

func parseStep(f string) (seggraph.Step, error) {
	digits, reverse := strings.CutPrefix(f, "-")
	if digits == "" || digits[0] == '+' || digits[0] == '-' {
		return seggraph.Step{}, fmt.Errorf("invalid step %q", f)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return seggraph.Step{}, fmt.Errorf("invalid step %q", f)
	}
	return seggraph.Step{Node: n, Reverse: reverse}, nil
}

// WriteComponents writes one line per component. Empty components produce
// no line, since they cannot be read back.
func WriteComponents(w io.Writer, components []seggraph.Component) error {
	bw := bufio.NewWriter(w)
	for _, c := range components {
		if len(c) == 0 {
			continue
		}
		bw.WriteString(c.String())
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ImportComponents reads the component list at path.
func ImportComponents(path string) ([]seggraph.Component, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadComponents(f)
}

// ExportComponents writes components to path, preceded by a "#" header line
// when header is not empty.
func ExportComponents(path, header string, components []seggraph.Component) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if header != "" {
		fmt.Fprintf(f, "# %s\n", header)
	}
	if err := WriteComponents(f, components); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
