// Package genome renders assembled components as nucleotide sequences.
//
// Components produced by the pipeline are chains of oriented segments. Given
// the reference sequences the segments were cut from, [Render] writes one
// FASTA record per component, reverse-complementing reversed steps.
//
// The complement table is built once at package initialization and never
// modified, so every function here is safe for concurrent use.
package genome

import "strings"

// complement maps every byte to its Watson-Crick partner. IUPAC ambiguity
// codes map to their complementary code, case is preserved, and gap or mask
// symbols map to themselves. Anything else maps to 'N'.
var complement = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 'N'
	}
	pairs := []string{"AT", "CG", "RY", "KM", "BV", "DH", "SS", "WW", "NN"}
	for _, p := range pairs {
		for _, q := range []string{p, strings.ToLower(p)} {
			t[q[0]], t[q[1]] = q[1], q[0]
		}
	}
	t['U'], t['u'] = 'A', 'a'
	for _, c := range []byte{'.', '-', '*'} {
		t[c] = c
	}
	return t
}()

// Complement returns the complementary base of b.
func Complement(b byte) byte { return complement[b] }

// ReverseComplement reverse-complements seq in place and returns it.
func ReverseComplement(seq []byte) []byte {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		seq[i], seq[j] = complement[seq[j]], complement[seq[i]]
	}
	return seq
}
