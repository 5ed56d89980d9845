package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// TabWriter writes the SNV preview of each gene in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Gene",
			"Position",
			"Ref",
			"Alt",
			"Kind",
			"HGVSc",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes one row per previewed SNV of a gene. Genes that failed to
// analyze produce no rows.
func (tw *TabWriter) Write(g *GeneAnalysis) error {
	for _, c := range g.SNVPreview {
		values := []string{
			g.Gene,
			strconv.Itoa(c.Position),
			c.Ref,
			c.Alt,
			c.Kind,
			c.HGVSc(),
		}
		if _, err := tw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult writes the header and every gene of a result, then flushes.
func (tw *TabWriter) WriteResult(r *AnalysisResult) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for i := range r.Genes {
		if err := tw.Write(&r.Genes[i]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
