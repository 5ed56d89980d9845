package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, r *AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode analysis result: %w", err)
	}
	return nil
}

// TextWriter renders a result as a plain-text report document.
type TextWriter struct {
	w     *bufio.Writer
	title string
}

// NewTextWriter creates a report writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{
		w:     bufio.NewWriter(w),
		title: "BRCA1/BRCA2 Variant Report",
	}
}

// SetTitle overrides the report title.
func (tw *TextWriter) SetTitle(title string) {
	tw.title = title
}

// Write renders the whole report and flushes it.
func (tw *TextWriter) Write(r *AnalysisResult) error {
	tw.printf("%s\n%s\n", tw.title, strings.Repeat("=", len(tw.title)))
	tw.printf("Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))

	for i := range r.Genes {
		tw.writeGene(&r.Genes[i])
	}

	tw.printf("\nSummary\n-------\n%s\n", r.Summary)
	return tw.w.Flush()
}

func (tw *TextWriter) writeGene(g *GeneAnalysis) {
	tw.printf("\n%s\n%s\n", g.Gene, strings.Repeat("-", len(g.Gene)))
	if !g.Analyzed() {
		tw.printf("  not analyzed: %s\n", g.Error)
		return
	}

	tw.printf("  Reference: %s (%d bp)\n", orDash(g.ReferenceHeader), g.ReferenceLength)
	tw.printf("  Sample:    %s (%d bp)\n", orDash(g.SampleHeader), g.SampleLength)
	tw.printf("  SNVs:      %d", g.SNVCount)
	if n := len(g.SNVPreview); n > 0 && n < g.SNVCount {
		tw.printf(" (first %d shown)", n)
	}
	tw.printf("\n")
	for _, c := range g.SNVPreview {
		tw.printf("    %s\n", c.HGVSc())
	}

	for _, h := range g.Hits {
		tw.printf("  Variant:   %s %s %s\n", h.Entry.Code, h.Entry.HGVSc, orDash(h.Entry.HGVSp))
		tw.printf("    Classification: %s\n", orDash(h.Classification()))
		tw.printf("    Conditions:     %s\n", orDash(strings.Join(h.Conditions(), ", ")))
		if h.Annotation != nil {
			tw.printf("    Review status:  %s (%s)\n", orDash(h.Annotation.ReviewStatus), h.Annotation.Origin)
		}
		if h.Entry.URL != "" {
			tw.printf("    Reference:      %s\n", h.Entry.URL)
		}
		if h.LowConfidence {
			tw.printf("    Matched by header keyword only (low confidence)\n")
		}
	}

	for _, w := range g.Warnings {
		tw.printf("  Warning: %s\n", w)
	}
}

// printf writes to the buffer; errors surface on Flush.
func (tw *TextWriter) printf(format string, args ...any) {
	fmt.Fprintf(tw.w, format, args...)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
