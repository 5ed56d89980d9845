// Package reference holds the per-gene reference sequences used as ground
// truth by the analysis pipeline.
package reference

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/oncoatlas/brcascan/internal/fasta"
)

// Supported gene symbols.
const (
	GeneBRCA1 = "BRCA1"
	GeneBRCA2 = "BRCA2"
)

// NotFoundError reports that no usable reference is configured for a gene.
type NotFoundError struct {
	Gene string
	Err  error // underlying load failure, nil if the gene was never configured
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reference for %s not available: %v", e.Gene, e.Err)
	}
	return fmt.Sprintf("no reference configured for %s", e.Gene)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Set is an immutable collection of reference records keyed by gene.
// It is safe for concurrent use.
type Set struct {
	records map[string]fasta.Record
	failed  map[string]error
}

// New creates a Set from already parsed records.
func New(records map[string]fasta.Record) *Set {
	s := &Set{
		records: make(map[string]fasta.Record, len(records)),
		failed:  make(map[string]error),
	}
	for gene, rec := range records {
		s.records[normalizeGene(gene)] = rec
	}
	return s
}

// Load reads one FASTA file per gene. A gene whose file cannot be read, or
// whose sequence is empty, is remembered as failed; Get reports it as a
// *NotFoundError while the other genes stay usable.
func Load(paths map[string]string, logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Set{
		records: make(map[string]fasta.Record, len(paths)),
		failed:  make(map[string]error),
	}
	for gene, path := range paths {
		gene = normalizeGene(gene)
		if path == "" {
			continue
		}
		rec, err := fasta.ReadFile(path)
		if err == nil {
			err = rec.RequireSequence(path)
		}
		if err != nil {
			logger.Error("reference unavailable",
				zap.String("gene", gene),
				zap.String("path", path),
				zap.Error(err))
			s.failed[gene] = err
			continue
		}
		logger.Info("loaded reference",
			zap.String("gene", gene),
			zap.String("header", rec.Header),
			zap.Int("length", rec.Seq.Len()))
		s.records[gene] = rec
	}
	return s
}

// Get returns the reference record for a gene.
func (s *Set) Get(gene string) (fasta.Record, error) {
	gene = normalizeGene(gene)
	if rec, ok := s.records[gene]; ok {
		return rec, nil
	}
	return fasta.Record{}, &NotFoundError{Gene: gene, Err: s.failed[gene]}
}

// Genes returns the genes with a usable reference, sorted.
func (s *Set) Genes() []string {
	genes := make([]string, 0, len(s.records))
	for g := range s.records {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}

func normalizeGene(gene string) string {
	return strings.ToUpper(strings.TrimSpace(gene))
}
