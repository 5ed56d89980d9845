package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncoatlas/brcascan/internal/annotate"
	"github.com/oncoatlas/brcascan/internal/catalog"
	"github.com/oncoatlas/brcascan/internal/diff"
	"github.com/oncoatlas/brcascan/internal/fasta"
)

var generated = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func brca1Hit() Hit {
	return Hit{
		Entry: catalog.Entry{
			Gene:          "BRCA1",
			Code:          "BRCA1_185delAG",
			ShortName:     "185delAG",
			Transcript:    "NM_007294.4",
			HGVSc:         "c.68_69delAG",
			Pathogenicity: "Pathogenic",
			Conditions:    []string{"Hereditary breast cancer", "Hereditary ovarian cancer"},
		},
		Annotation: &annotate.ClinicalAnnotation{
			Identifier:           "NM_007294.4:c.68_69delAG",
			ClinicalSignificance: "Pathogenic",
			ReviewStatus:         annotate.ReviewStatusLocalOverride,
			Conditions:           []string{"Hereditary breast-ovarian cancer syndrome (BRCA1)"},
			Origin:               annotate.OriginLocalOverride,
		},
	}
}

func record(header, seq string) fasta.Record {
	return fasta.Record{Header: header, Seq: fasta.NewSequence(seq)}
}

func TestAggregate_GoldenSummary(t *testing.T) {
	inputs := []GeneInput{
		{
			Gene:      "BRCA2",
			Reference: record("ref2", "ACGTACGT"),
			Sample:    record("s2", "ACGTACGT"),
			Diff:      diff.Result{Calls: []diff.VariantCall{}, Total: 0},
		},
		{
			Gene:      "BRCA1",
			Reference: record("ref1", "ATCGATCG"),
			Sample:    record("s1", "ATCAATCG"),
			Diff: diff.Result{
				Calls: []diff.VariantCall{{Gene: "BRCA1", Position: 4, Ref: "G", Alt: "A", Kind: diff.KindSNV}},
				Total: 1,
			},
			Hits: []Hit{brca1Hit()},
		},
	}

	res := Aggregate(inputs, generated)

	require.Len(t, res.Genes, 2)
	assert.Equal(t, "BRCA1", res.Genes[0].Gene)
	assert.Equal(t, "BRCA2", res.Genes[1].Gene)
	assert.Equal(t, 8, res.Genes[0].ReferenceLength)
	assert.Equal(t, "s1", res.Genes[0].SampleHeader)
	assert.Equal(t, 1, res.TotalSNVs())
	assert.Equal(t, 1, res.HitCount())
	assert.Equal(t, generated, res.GeneratedAt)

	want := "Detected 1 SNV(s) across analyzed genes (BRCA1: 1, BRCA2: 0). " +
		"BRCA1 185delAG (c.68_69delAG): Pathogenic; associated conditions: Hereditary breast-ovarian cancer syndrome (BRCA1). " +
		Disclaimer
	assert.Equal(t, want, res.Summary)
}

func TestSummarize(t *testing.T) {
	fallback := brca1Hit()
	fallback.Annotation = &annotate.ClinicalAnnotation{Conditions: []string{}}

	lowConf := brca1Hit()
	lowConf.LowConfidence = true

	noShortName := brca1Hit()
	noShortName.Entry.ShortName = ""

	tests := []struct {
		name  string
		genes []GeneAnalysis
		want  string
	}{
		{
			name: "no hits",
			genes: []GeneAnalysis{
				{Gene: "BRCA1", SNVCount: 3},
				{Gene: "BRCA2", SNVCount: 2},
			},
			want: "Detected 5 SNV(s) across analyzed genes (BRCA1: 3, BRCA2: 2). " + NoHitsClause + " " + Disclaimer,
		},
		{
			name: "failed gene",
			genes: []GeneAnalysis{
				{Gene: "BRCA1", SNVCount: 3},
				{Gene: "BRCA2", Error: "no reference for BRCA2"},
			},
			want: "Detected 3 SNV(s) across analyzed genes (BRCA1: 3, BRCA2: not analyzed). " + NoHitsClause + " " + Disclaimer,
		},
		{
			name:  "annotation empty falls back on catalog",
			genes: []GeneAnalysis{{Gene: "BRCA1", Hits: []Hit{fallback}}},
			want: "Detected 0 SNV(s) across analyzed genes (BRCA1: 0). " +
				"BRCA1 185delAG (c.68_69delAG): Pathogenic; associated conditions: Hereditary breast cancer, Hereditary ovarian cancer. " +
				Disclaimer,
		},
		{
			name:  "low confidence",
			genes: []GeneAnalysis{{Gene: "BRCA1", Hits: []Hit{lowConf}}},
			want: "Detected 0 SNV(s) across analyzed genes (BRCA1: 0). " +
				"BRCA1 185delAG (c.68_69delAG): Pathogenic; associated conditions: Hereditary breast-ovarian cancer syndrome (BRCA1) [low confidence]. " +
				Disclaimer,
		},
		{
			name:  "code without short name",
			genes: []GeneAnalysis{{Gene: "BRCA1", Hits: []Hit{noShortName}}},
			want: "Detected 0 SNV(s) across analyzed genes (BRCA1: 0). " +
				"BRCA1 BRCA1_185delAG (c.68_69delAG): Pathogenic; associated conditions: Hereditary breast-ovarian cancer syndrome (BRCA1). " +
				Disclaimer,
		},
		{
			name:  "no genes",
			genes: nil,
			want:  "Detected 0 SNV(s) across analyzed genes. " + NoHitsClause + " " + Disclaimer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.genes))
		})
	}
}

func TestAggregate_FailedGene(t *testing.T) {
	res := Aggregate([]GeneInput{{
		Gene:     "brca2",
		Sample:   record("s2", "ACGT"),
		Diff:     diff.Result{Total: 99},
		Hits:     []Hit{brca1Hit()},
		Warnings: []string{"something odd"},
		Err:      errors.New("no reference for BRCA2"),
	}}, generated)

	g, ok := res.Gene("BRCA2")
	require.True(t, ok)
	assert.False(t, g.Analyzed())
	assert.Equal(t, "no reference for BRCA2", g.Error)
	assert.Zero(t, g.SNVCount)
	assert.Empty(t, g.Hits)
	assert.NotNil(t, g.SNVPreview)
	assert.Equal(t, []string{"something odd"}, g.Warnings)
	assert.Contains(t, res.Summary, "BRCA2: not analyzed")

	_, ok = res.Gene("BRCA1")
	assert.False(t, ok)
}

func TestWriteJSON(t *testing.T) {
	res := Aggregate([]GeneInput{{
		Gene: "BRCA1",
		Diff: diff.Result{Calls: []diff.VariantCall{}, Total: 0},
		Hits: []Hit{brca1Hit()},
	}}, generated)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, res.Summary, decoded["summary"])
	assert.Equal(t, "2025-03-14T09:30:00Z", decoded["generated_at"])

	genes := decoded["genes"].([]any)
	require.Len(t, genes, 1)
	gene := genes[0].(map[string]any)
	assert.Equal(t, []any{}, gene["snv_preview"])
	hits := gene["catalog_hits"].([]any)
	hit := hits[0].(map[string]any)
	assert.Equal(t, "local_override", hit["clinical_annotation"].(map[string]any)["origin"])
}

func TestTabWriter(t *testing.T) {
	res := Aggregate([]GeneInput{
		{
			Gene: "BRCA1",
			Diff: diff.Result{
				Calls: []diff.VariantCall{
					{Gene: "BRCA1", Position: 4, Ref: "G", Alt: "A", Kind: diff.KindSNV},
					{Gene: "BRCA1", Position: 10, Ref: "C", Alt: "T", Kind: diff.KindSNV},
				},
				Total: 2,
			},
		},
		{Gene: "BRCA2", Err: errors.New("missing")},
	}, generated)

	var buf bytes.Buffer
	require.NoError(t, NewTabWriter(&buf).WriteResult(res))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "#Gene\tPosition\tRef\tAlt\tKind\tHGVSc", lines[0])
	assert.Equal(t, "BRCA1\t4\tG\tA\tSNV\tc.4G>A", lines[1])
	assert.Equal(t, "BRCA1\t10\tC\tT\tSNV\tc.10C>T", lines[2])
}

func TestTextWriter(t *testing.T) {
	hit := brca1Hit()
	hit.Entry.URL = "https://www.ncbi.nlm.nih.gov/clinvar/RCV000019231/"
	res := Aggregate([]GeneInput{
		{
			Gene:      "BRCA1",
			Reference: record("NM_007294.4", "ATCGATCG"),
			Sample:    record("patient", "ATCAATCG"),
			Diff: diff.Result{
				Calls: []diff.VariantCall{{Gene: "BRCA1", Position: 4, Ref: "G", Alt: "A", Kind: diff.KindSNV}},
				Total: 1,
			},
			Hits:     []Hit{hit},
			Warnings: []string{"duplicate fingerprint"},
		},
		{Gene: "BRCA2", Err: errors.New("no reference for BRCA2")},
	}, generated)

	var buf bytes.Buffer
	w := NewTextWriter(&buf)
	w.SetTitle("Patient 42")
	require.NoError(t, w.Write(res))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Patient 42\n==========\n"))
	assert.Contains(t, out, "Generated: 2025-03-14T09:30:00Z")
	assert.Contains(t, out, "Reference: NM_007294.4 (8 bp)")
	assert.Contains(t, out, "c.4G>A")
	assert.Contains(t, out, "Classification: Pathogenic")
	assert.Contains(t, out, "Review status:  local_override (local_override)")
	assert.Contains(t, out, "RCV000019231")
	assert.Contains(t, out, "Warning: duplicate fingerprint")
	assert.Contains(t, out, "not analyzed: no reference for BRCA2")
	assert.True(t, strings.HasSuffix(out, Disclaimer+"\n"))
}
