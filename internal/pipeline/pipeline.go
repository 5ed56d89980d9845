// Package pipeline runs the per-gene analysis: reference diff, catalog
// matching and clinical annotation, assembled into a report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oncoatlas/brcascan/internal/annotate"
	"github.com/oncoatlas/brcascan/internal/catalog"
	"github.com/oncoatlas/brcascan/internal/diff"
	"github.com/oncoatlas/brcascan/internal/fasta"
	"github.com/oncoatlas/brcascan/internal/reference"
	"github.com/oncoatlas/brcascan/internal/report"
)

// Input is one sample sequence to analyze against the reference of Gene.
type Input struct {
	Gene   string
	Sample fasta.Record
}

// Options control a pipeline run.
type Options struct {
	PreviewLimit   int  // max SNV calls kept per gene, negative for all
	RequireSample  bool // reject the run when any sample is empty
	HeaderFallback bool // match catalog entries by header keyword when no fingerprint matches
	Workers        int  // concurrent registry lookups per gene, 0 for the default
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		PreviewLimit:  diff.DefaultPreviewLimit,
		RequireSample: true,
	}
}

// Pipeline analyzes samples against a fixed reference set and catalog. It
// holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	refs     *reference.Set
	catalog  *catalog.Catalog
	resolver *annotate.Resolver
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a pipeline. A nil catalog uses the built-in founder catalog
// and a nil resolver resolves offline from the default overrides.
func New(refs *reference.Set, cat *catalog.Catalog, resolver *annotate.Resolver, opts Options) *Pipeline {
	if refs == nil {
		refs = reference.New(nil)
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if resolver == nil {
		resolver = annotate.NewResolver(nil, annotate.DefaultOverrides())
	}
	return &Pipeline{
		refs:     refs,
		catalog:  cat,
		resolver: resolver,
		opts:     opts,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
}

// SetLogger sets the logger for warning and info messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// SetClock replaces the clock used to stamp results.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Run analyzes every input concurrently and aggregates the outcome.
//
// Per-gene failures (missing reference, registry errors) are recorded in
// the result. An empty sample, when samples are optional, diverges at
// every reference position and matches nothing. Run only fails
// when the request itself is invalid. If ctx is cancelled, Run returns at
// once with the genes that completed; the others are absent.
func (p *Pipeline) Run(ctx context.Context, inputs []Input) (*report.AnalysisResult, error) {
	if err := p.validate(inputs); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	completed := make(map[int]report.GeneInput, len(inputs))

	var g errgroup.Group
	g.SetLimit(max(len(inputs), 1))
	for i, in := range inputs {
		g.Go(func() error {
			gi := p.analyzeGene(ctx, in)
			if ctx.Err() != nil {
				return nil
			}
			mu.Lock()
			completed[i] = gi
			mu.Unlock()
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("analysis cancelled, returning partial result", zap.Error(ctx.Err()))
	}

	mu.Lock()
	genes := make([]report.GeneInput, 0, len(completed))
	for i := range inputs {
		if gi, ok := completed[i]; ok {
			genes = append(genes, gi)
		}
	}
	mu.Unlock()

	res := report.Aggregate(genes, p.now())
	p.logger.Info("analysis complete",
		zap.Int("genes", len(res.Genes)),
		zap.Int("snvs", res.TotalSNVs()),
		zap.Int("hits", res.HitCount()))
	return res, nil
}

func (p *Pipeline) validate(inputs []Input) error {
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		gene := normalizeGene(in.Gene)
		if gene == "" {
			return errors.New("input without gene symbol")
		}
		if seen[gene] {
			return fmt.Errorf("duplicate input for %s", gene)
		}
		seen[gene] = true

		if p.opts.RequireSample {
			if err := in.Sample.RequireSequence(gene + " sample"); err != nil {
				return fmt.Errorf("reject analysis: %w", err)
			}
		}
	}
	return nil
}

func (p *Pipeline) analyzeGene(ctx context.Context, in Input) report.GeneInput {
	gene := normalizeGene(in.Gene)
	gi := report.GeneInput{Gene: gene, Sample: in.Sample}

	ref, err := p.refs.Get(gene)
	if err != nil {
		p.logger.Warn("gene not analyzed", zap.String("gene", gene), zap.Error(err))
		gi.Err = err
		return gi
	}
	gi.Reference = ref

	gi.Diff = diff.Diff(ref.Seq, in.Sample.Seq, gene, p.opts.PreviewLimit)
	if in.Sample.Seq.IsEmpty() {
		p.logger.Warn("empty sample, every reference position diverges",
			zap.String("gene", gene),
			zap.Int("snvs", gi.Diff.Total))
		return gi
	}

	entries := p.catalog.Match(in.Sample.Seq, gene)
	if err := catalog.CheckIntegrity(gene, entries); err != nil {
		gi.Warnings = append(gi.Warnings, err.Error())
	}

	lowConfidence := false
	if len(entries) == 0 && p.opts.HeaderFallback {
		entries = p.catalog.MatchHeader(in.Sample.Header, gene)
		lowConfidence = len(entries) > 0
		if lowConfidence {
			p.logger.Info("catalog hit by header keyword",
				zap.String("gene", gene),
				zap.String("header", in.Sample.Header))
		}
	}

	anns := p.resolver.ResolveAll(ctx, entries, p.opts.Workers)
	for i, e := range entries {
		ann := anns[i]
		gi.Hits = append(gi.Hits, report.Hit{
			Entry:         e,
			Annotation:    &ann,
			LowConfidence: lowConfidence,
		})
	}

	p.logger.Debug("gene analyzed",
		zap.String("gene", gene),
		zap.Int("snvs", gi.Diff.Total),
		zap.Int("hits", len(gi.Hits)))
	return gi
}

// SelfCheck diffs every loaded reference against itself and fails if any
// reports a divergence.
func (p *Pipeline) SelfCheck() error {
	for _, gene := range p.refs.Genes() {
		ref, err := p.refs.Get(gene)
		if err != nil {
			return err
		}
		if res := diff.Diff(ref.Seq, ref.Seq, gene, 0); res.Total != 0 {
			return fmt.Errorf("self-check %s: reference differs from itself at %d positions", gene, res.Total)
		}
	}
	return nil
}

func normalizeGene(gene string) string {
	return strings.ToUpper(strings.TrimSpace(gene))
}
