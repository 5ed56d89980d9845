// Package report assembles per-gene analyses into an AnalysisResult and
// renders it.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/oncoatlas/brcascan/internal/annotate"
	"github.com/oncoatlas/brcascan/internal/catalog"
	"github.com/oncoatlas/brcascan/internal/diff"
	"github.com/oncoatlas/brcascan/internal/fasta"
)

// Hit is a catalog entry recognized in a sample together with its clinical
// annotation.
type Hit struct {
	Entry         catalog.Entry                `json:"entry"`
	Annotation    *annotate.ClinicalAnnotation `json:"clinical_annotation,omitempty"`
	LowConfidence bool                         `json:"low_confidence,omitempty"` // matched by header keyword, not fingerprint
}

// Classification returns the annotated clinical significance, falling back
// on the catalog's pathogenicity.
func (h Hit) Classification() string {
	if h.Annotation != nil && h.Annotation.ClinicalSignificance != "" {
		return h.Annotation.ClinicalSignificance
	}
	return h.Entry.Pathogenicity
}

// Conditions returns the annotated conditions, falling back on the
// catalog's conditions.
func (h Hit) Conditions() []string {
	if h.Annotation != nil && len(h.Annotation.Conditions) > 0 {
		return h.Annotation.Conditions
	}
	return h.Entry.Conditions
}

// GeneAnalysis is the outcome for one gene.
type GeneAnalysis struct {
	Gene            string             `json:"gene"`
	ReferenceHeader string             `json:"reference_header"`
	ReferenceLength int                `json:"reference_length"`
	SampleHeader    string             `json:"sample_header"`
	SampleLength    int                `json:"sample_length"`
	SNVCount        int                `json:"snv_count"`
	SNVPreview      []diff.VariantCall `json:"snv_preview"`
	Hits            []Hit              `json:"catalog_hits"`
	Warnings        []string           `json:"warnings,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// Analyzed reports whether the gene was compared successfully.
func (g *GeneAnalysis) Analyzed() bool {
	return g.Error == ""
}

// AnalysisResult is the root aggregate of one pipeline run.
type AnalysisResult struct {
	Genes       []GeneAnalysis `json:"genes"` // sorted by gene
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     string         `json:"summary"`
}

// Gene returns the analysis for a gene symbol.
func (r *AnalysisResult) Gene(gene string) (*GeneAnalysis, bool) {
	for i := range r.Genes {
		if strings.EqualFold(r.Genes[i].Gene, gene) {
			return &r.Genes[i], true
		}
	}
	return nil, false
}

// TotalSNVs returns the SNV count summed over analyzed genes.
func (r *AnalysisResult) TotalSNVs() int {
	n := 0
	for _, g := range r.Genes {
		n += g.SNVCount
	}
	return n
}

// HitCount returns the number of catalog hits over all genes.
func (r *AnalysisResult) HitCount() int {
	n := 0
	for _, g := range r.Genes {
		n += len(g.Hits)
	}
	return n
}

// GeneInput carries everything computed for one gene.
type GeneInput struct {
	Gene      string
	Reference fasta.Record
	Sample    fasta.Record
	Diff      diff.Result
	Hits      []Hit
	Warnings  []string
	Err       error // set when the gene could not be analyzed
}

// Aggregate builds the result for a set of genes and synthesizes its
// summary. Genes are ordered by symbol.
func Aggregate(inputs []GeneInput, generatedAt time.Time) *AnalysisResult {
	genes := make([]GeneAnalysis, 0, len(inputs))
	for _, in := range inputs {
		genes = append(genes, analysis(in))
	}
	sort.SliceStable(genes, func(i, j int) bool {
		return genes[i].Gene < genes[j].Gene
	})

	return &AnalysisResult{
		Genes:       genes,
		GeneratedAt: generatedAt.UTC(),
		Summary:     Summarize(genes),
	}
}

func analysis(in GeneInput) GeneAnalysis {
	g := GeneAnalysis{
		Gene:            strings.ToUpper(strings.TrimSpace(in.Gene)),
		ReferenceHeader: in.Reference.Header,
		ReferenceLength: in.Reference.Seq.Len(),
		SampleHeader:    in.Sample.Header,
		SampleLength:    in.Sample.Seq.Len(),
		SNVPreview:      []diff.VariantCall{},
		Hits:            []Hit{},
	}
	if len(in.Warnings) > 0 {
		g.Warnings = append([]string(nil), in.Warnings...)
	}
	if in.Err != nil {
		g.Error = in.Err.Error()
		return g
	}

	g.SNVCount = in.Diff.Total
	g.SNVPreview = append(g.SNVPreview, in.Diff.Calls...)
	g.Hits = append(g.Hits, in.Hits...)
	return g
}
