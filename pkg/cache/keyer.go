package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"

	"github.com/matzehuels/segraph/pkg/seggraph"
)

// LeafKeyOpts holds the solver options that change a leaf's optimum.
type LeafKeyOpts struct {
	ChimericFactor  float64 `json:"chimeric_factor"`
	MandatoryWeight int     `json:"mandatory_weight"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LeafKey identifies the solution of one min-cut leaf. nodes is the leaf's
	// node set and edges the candidate edges handed to the solver.
	LeafKey(nodes []int, edges []seggraph.Edge, opts LeafKeyOpts) string
}

// DefaultKeyer hashes leaf contents with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

type leafEdge struct {
	I1, I2    int
	H1, H2    bool
	W         int
	Chimeric  bool
	Mandatory bool
}

// LeafKey returns "leaf:<sha256>". Node order does not matter; edge order
// does, since cached solutions index into edges.
func (DefaultKeyer) LeafKey(nodes []int, edges []seggraph.Edge, opts LeafKeyOpts) string {
	sorted := slices.Clone(nodes)
	slices.Sort(sorted)
	es := make([]leafEdge, len(edges))
	for i, e := range edges {
		es[i] = leafEdge{
			I1: e.Ind1, I2: e.Ind2, H1: e.Head1, H2: e.Head2, W: e.Weight,
			Chimeric: e.Provenance == seggraph.ProvenanceChimeric, Mandatory: e.Mandatory,
		}
	}
	data, _ := json.Marshal(struct {
		Nodes []int       `json:"nodes"`
		Edges []leafEdge  `json:"edges"`
		Opts  LeafKeyOpts `json:"opts"`
	}{sorted, es, opts})
	sum := sha256.Sum256(data)
	return "leaf:" + hex.EncodeToString(sum[:])
}

var _ Keyer = DefaultKeyer{}
