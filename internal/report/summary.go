package report

import (
	"fmt"
	"strings"
)

// Fixed summary clauses.
const (
	NoHitsClause = "No annotated pathogenic variant was recognized in the analyzed genes."
	Disclaimer   = "This report is an academic prototype and is not intended for clinical use."
)

// Summarize renders the narrative summary of a set of gene analyses. The
// text is deterministic: SNV totals first, then one clause per catalog hit
// in gene order, then the disclaimer.
func Summarize(genes []GeneAnalysis) string {
	clauses := []string{snvClause(genes)}

	hits := 0
	for _, g := range genes {
		for _, h := range g.Hits {
			clauses = append(clauses, hitClause(g.Gene, h))
			hits++
		}
	}
	if hits == 0 {
		clauses = append(clauses, NoHitsClause)
	}

	clauses = append(clauses, Disclaimer)
	return strings.Join(clauses, " ")
}

func snvClause(genes []GeneAnalysis) string {
	total := 0
	parts := make([]string, 0, len(genes))
	for _, g := range genes {
		if !g.Analyzed() {
			parts = append(parts, g.Gene+": not analyzed")
			continue
		}
		total += g.SNVCount
		parts = append(parts, fmt.Sprintf("%s: %d", g.Gene, g.SNVCount))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Detected %d SNV(s) across analyzed genes.", total)
	}
	return fmt.Sprintf("Detected %d SNV(s) across analyzed genes (%s).", total, strings.Join(parts, ", "))
}

func hitClause(gene string, h Hit) string {
	conditions := "not reported"
	if c := h.Conditions(); len(c) > 0 {
		conditions = strings.Join(c, ", ")
	}
	classification := h.Classification()
	if classification == "" {
		classification = "unclassified"
	}

	code := h.Entry.ShortName
	if code == "" {
		code = h.Entry.Code
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s): %s; associated conditions: %s", gene, code, h.Entry.HGVSc, classification, conditions)
	if h.LowConfidence {
		b.WriteString(" [low confidence]")
	}
	b.WriteString(".")
	return b.String()
}
