// Package diff compares a sample sequence against a reference position by
// position.
//
// There is no alignment step: an insertion or deletion in the sample shows
// up as a run of mismatches after the event plus the length difference of
// the unaligned tail.
package diff

import (
	"strconv"

	"github.com/oncoatlas/brcascan/internal/fasta"
)

// KindSNV is the only variant kind produced by Diff.
const KindSNV = "SNV"

// DefaultPreviewLimit bounds the number of calls kept per gene.
const DefaultPreviewLimit = 50

// VariantCall is a single-base difference between reference and sample.
type VariantCall struct {
	Gene     string `json:"gene"`
	Position int    `json:"position"` // 1-based, relative to the compared sequences
	Ref      string `json:"ref"`
	Alt      string `json:"alt"`
	Kind     string `json:"kind"`
}

// HGVSc renders the call as a coding-style substitution, e.g. "c.5G>A".
// Positions are relative to the compared sequence, not to a CDS start.
func (c VariantCall) HGVSc() string {
	return "c." + strconv.Itoa(c.Position) + c.Ref + ">" + c.Alt
}

// Result holds the bounded call preview and the full divergence count.
type Result struct {
	Calls []VariantCall `json:"calls"`
	Total int           `json:"total"`
}

// Diff compares sample against reference over their common prefix length.
// Symbols are compared case-insensitively and reported upper-cased.
// Every mismatch is counted in Total; at most previewLimit calls are kept
// (a negative limit keeps all of them). A length difference adds
// abs(len(reference)-len(sample)) to Total without producing calls.
func Diff(reference, sample fasta.Sequence, gene string, previewLimit int) Result {
	overlap := min(len(reference), len(sample))

	res := Result{Calls: []VariantCall{}}
	for i := 0; i < overlap; i++ {
		ref, alt := upper(reference[i]), upper(sample[i])
		if ref == alt {
			continue
		}
		res.Total++
		if previewLimit < 0 || len(res.Calls) < previewLimit {
			res.Calls = append(res.Calls, VariantCall{
				Gene:     gene,
				Position: i + 1,
				Ref:      string(ref),
				Alt:      string(alt),
				Kind:     KindSNV,
			})
		}
	}

	res.Total += abs(len(reference) - len(sample))
	return res
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
