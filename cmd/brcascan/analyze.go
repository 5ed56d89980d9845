package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oncoatlas/brcascan/internal/duckdb"
	"github.com/oncoatlas/brcascan/internal/pipeline"
	"github.com/oncoatlas/brcascan/internal/reference"
	"github.com/oncoatlas/brcascan/internal/report"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
	formatTab  = "tab"
)

func validFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatTab:
		return nil
	}
	return usageErrorf("unknown output format %q (want text, json or tab)", format)
}

type analyzeOptions struct {
	format         string
	output         string
	storePath      string
	patientID      string
	offline        bool
	selfCheck      bool
	refBRCA1       string
	refBRCA2       string
	previewLimit   int
	headerFallback bool
	allowEmpty     bool
}

func (c *cli) newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <brca1.fa> <brca2.fa>",
		Short: "Analyze patient BRCA1/BRCA2 sequences",
		Long: `Compare patient BRCA1 and BRCA2 sequences against the configured
references, recognize curated pathogenic variants and annotate them.

Input files may be plain or gzipped FASTA.`,
		Example: `  brcascan analyze patient_brca1.fa patient_brca2.fa
  brcascan analyze --format json -o result.json brca1.fa.gz brca2.fa.gz
  brcascan analyze --offline --store ~/.brcascan/analyses.duckdb --patient P-0042 brca1.fa brca2.fa`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, opts, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", formatText, "Output format: text, json, tab")
	f.StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	f.StringVar(&opts.storePath, "store", "", "Save the result to this DuckDB file (default: store.path)")
	f.StringVar(&opts.patientID, "patient", "", "Patient identifier recorded with the result")
	f.BoolVar(&opts.offline, "offline", false, "Do not query ClinVar; use local annotations only")
	f.BoolVar(&opts.selfCheck, "self-check", false, "Verify that each reference matches itself before analyzing")
	f.StringVar(&opts.refBRCA1, "reference-brca1", "", "BRCA1 reference FASTA (default: references.brca1)")
	f.StringVar(&opts.refBRCA2, "reference-brca2", "", "BRCA2 reference FASTA (default: references.brca2)")
	f.IntVar(&opts.previewLimit, "preview-limit", 0, "Max SNVs listed per gene, negative for all (default: analysis.preview_limit)")
	f.BoolVar(&opts.headerFallback, "header-fallback", false, "Match variants by FASTA header keywords when fingerprints do not match")
	f.BoolVar(&opts.allowEmpty, "allow-empty", false, "Report empty samples per gene instead of rejecting the analysis")

	return cmd
}

func (c *cli) runAnalyze(cmd *cobra.Command, opts analyzeOptions, brca1Path, brca2Path string) error {
	if err := validFormat(opts.format); err != nil {
		return err
	}

	s := loadSettings()
	flags := cmd.Flags()
	if opts.refBRCA1 != "" {
		s.References[reference.GeneBRCA1] = opts.refBRCA1
	}
	if opts.refBRCA2 != "" {
		s.References[reference.GeneBRCA2] = opts.refBRCA2
	}
	if flags.Changed("preview-limit") {
		s.PreviewLimit = opts.previewLimit
	}
	if opts.headerFallback {
		s.HeaderFallback = true
	}
	if opts.allowEmpty {
		s.RequireSample = false
	}
	if opts.storePath != "" {
		s.StorePath = opts.storePath
	}

	refs := reference.Load(s.References, c.logger)
	cat, err := c.buildCatalog(s)
	if err != nil {
		return err
	}
	resolver, err := c.buildResolver(s, opts.offline)
	if err != nil {
		return err
	}

	p := pipeline.New(refs, cat, resolver, s.pipelineOptions())
	p.SetLogger(c.logger)

	if opts.selfCheck {
		if err := p.SelfCheck(); err != nil {
			return err
		}
		c.logger.Info("reference self-check passed", zap.Strings("genes", refs.Genes()))
	}

	inputs, err := pipeline.ReadInputs(map[string]string{
		reference.GeneBRCA1: brca1Path,
		reference.GeneBRCA2: brca2Path,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx, inputs)
	if err != nil {
		return err
	}

	if s.StorePath != "" {
		id, err := saveResult(cmd, s.StorePath, opts.patientID, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stderr, "Saved analysis %s to %s\n", id, s.StorePath)
	}

	out := c.stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	title := ""
	if opts.patientID != "" {
		title = "BRCA1/BRCA2 Variant Report: " + opts.patientID
	}
	return renderResult(out, opts.format, title, res)
}

func saveResult(cmd *cobra.Command, path, patientID string, res *report.AnalysisResult) (string, error) {
	store, err := duckdb.Open(path)
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.SaveAnalysis(cmd.Context(), patientID, res)
}

func renderResult(w io.Writer, format, title string, res *report.AnalysisResult) error {
	switch format {
	case formatJSON:
		return report.WriteJSON(w, res)
	case formatTab:
		return report.NewTabWriter(w).WriteResult(res)
	default:
		tw := report.NewTextWriter(w)
		if title != "" {
			tw.SetTitle(title)
		}
		return tw.Write(res)
	}
}
