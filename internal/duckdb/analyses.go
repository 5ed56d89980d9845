package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/oncoatlas/brcascan/internal/annotate"
	"github.com/oncoatlas/brcascan/internal/catalog"
	"github.com/oncoatlas/brcascan/internal/diff"
	"github.com/oncoatlas/brcascan/internal/report"
)

// AnalysisInfo describes a stored analysis without its per-gene detail.
type AnalysisInfo struct {
	ID          string
	PatientID   string
	GeneratedAt time.Time
	CreatedAt   time.Time
	Summary     string
}

// StoredHit is a catalog hit together with the analysis it belongs to.
type StoredHit struct {
	AnalysisID  string
	PatientID   string
	GeneratedAt time.Time
	Gene        string
	Hit         report.Hit
}

// SaveAnalysis stores a result and returns its generated ID. Timestamps
// are kept at microsecond precision. The result is written in a single
// transaction: on error nothing of it is stored.
func (s *Store) SaveAnalysis(ctx context.Context, patientID string, r *report.AnalysisResult) (string, error) {
	id := uuid.NewString()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `BEGIN TRANSACTION`); err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	if err := saveAnalysis(ctx, conn, id, patientID, r); err != nil {
		if _, rbErr := conn.ExecContext(context.WithoutCancel(ctx), `ROLLBACK`); rbErr != nil {
			return "", errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return "", err
	}
	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		return "", fmt.Errorf("commit analysis: %w", err)
	}
	return id, nil
}

func saveAnalysis(ctx context.Context, conn *sql.Conn, id, patientID string, r *report.AnalysisResult) error {
	if _, err := conn.ExecContext(ctx,
		`INSERT INTO analyses (id, patient_id, generated_at, created_at, summary) VALUES (?, ?, ?, ?, ?)`,
		id, patientID, r.GeneratedAt.UTC(), time.Now().UTC(), r.Summary,
	); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	for _, g := range r.Genes {
		warnings, err := json.Marshal(g.Warnings)
		if err != nil {
			return fmt.Errorf("encode warnings: %w", err)
		}
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO gene_analyses VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, g.Gene, g.ReferenceHeader, int64(g.ReferenceLength),
			g.SampleHeader, int64(g.SampleLength), int64(g.SNVCount),
			string(warnings), g.Error,
		); err != nil {
			return fmt.Errorf("insert %s analysis: %w", g.Gene, err)
		}

		for i, h := range g.Hits {
			if err := insertHit(ctx, conn, id, g.Gene, i, h); err != nil {
				return err
			}
		}
	}

	return appendCalls(conn, id, r.Genes)
}

func insertHit(ctx context.Context, conn *sql.Conn, id, gene string, seq int, h report.Hit) error {
	entry, err := json.Marshal(h.Entry)
	if err != nil {
		return fmt.Errorf("encode catalog entry: %w", err)
	}
	var annotation, identifier, significance, origin string
	if h.Annotation != nil {
		b, err := json.Marshal(h.Annotation)
		if err != nil {
			return fmt.Errorf("encode annotation: %w", err)
		}
		annotation = string(b)
		identifier = h.Annotation.Identifier
		origin = h.Annotation.Origin
	}
	significance = h.Classification()
	if identifier == "" {
		identifier = h.Entry.Identifier()
	}

	if _, err := conn.ExecContext(ctx,
		`INSERT INTO catalog_hits VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, gene, int32(seq), h.Entry.Code, identifier, significance, origin,
		h.LowConfidence, string(entry), annotation,
	); err != nil {
		return fmt.Errorf("insert hit %s: %w", h.Entry.Code, err)
	}
	return nil
}

// appendCalls bulk-loads the SNV previews using the Appender API.
func appendCalls(conn *sql.Conn, id string, genes []report.GeneAnalysis) error {
	n := 0
	for _, g := range genes {
		n += len(g.SNVPreview)
	}
	if n == 0 {
		return nil
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "variant_calls")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, g := range genes {
		for _, c := range g.SNVPreview {
			if err := appender.AppendRow(id, g.Gene, int64(c.Position), c.Ref, c.Alt, c.Kind); err != nil {
				return fmt.Errorf("append variant call: %w", err)
			}
		}
	}

	return appender.Flush()
}

// LoadAnalysis reads a stored result back. It returns ErrNotFound for an
// unknown ID.
func (s *Store) LoadAnalysis(ctx context.Context, id string) (*report.AnalysisResult, error) {
	r := &report.AnalysisResult{Genes: []report.GeneAnalysis{}}
	err := s.db.QueryRowContext(ctx,
		`SELECT generated_at, summary FROM analyses WHERE id = ?`, id,
	).Scan(&r.GeneratedAt, &r.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}
	r.GeneratedAt = r.GeneratedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `SELECT
		gene, reference_header, reference_length, sample_header, sample_length,
		snv_count, warnings, error
		FROM gene_analyses WHERE analysis_id = ? ORDER BY gene`, id)
	if err != nil {
		return nil, fmt.Errorf("query gene analyses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g report.GeneAnalysis
		var refLen, sampleLen, snvs int64
		var warnings string
		if err := rows.Scan(&g.Gene, &g.ReferenceHeader, &refLen, &g.SampleHeader, &sampleLen,
			&snvs, &warnings, &g.Error); err != nil {
			return nil, fmt.Errorf("scan gene analysis: %w", err)
		}
		g.ReferenceLength = int(refLen)
		g.SampleLength = int(sampleLen)
		g.SNVCount = int(snvs)
		if err := json.Unmarshal([]byte(warnings), &g.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
		g.SNVPreview = []diff.VariantCall{}
		g.Hits = []report.Hit{}
		r.Genes = append(r.Genes, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gene analyses: %w", err)
	}

	for i := range r.Genes {
		g := &r.Genes[i]
		if g.SNVPreview, err = s.loadCalls(ctx, id, g.Gene); err != nil {
			return nil, err
		}
		hits, err := s.queryHits(ctx, `SELECT h.analysis_id, a.patient_id, a.generated_at, h.gene,
			h.low_confidence, h.entry, h.annotation
			FROM catalog_hits h JOIN analyses a ON a.id = h.analysis_id
			WHERE h.analysis_id = ? AND h.gene = ? ORDER BY h.seq`, id, g.Gene)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			g.Hits = append(g.Hits, h.Hit)
		}
	}
	return r, nil
}

func (s *Store) loadCalls(ctx context.Context, id, gene string) ([]diff.VariantCall, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT position, ref, alt, kind
		FROM variant_calls WHERE analysis_id = ? AND gene = ? ORDER BY position`, id, gene)
	if err != nil {
		return nil, fmt.Errorf("query variant calls: %w", err)
	}
	defer rows.Close()

	calls := []diff.VariantCall{}
	for rows.Next() {
		c := diff.VariantCall{Gene: gene}
		var pos int64
		if err := rows.Scan(&pos, &c.Ref, &c.Alt, &c.Kind); err != nil {
			return nil, fmt.Errorf("scan variant call: %w", err)
		}
		c.Position = int(pos)
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant calls: %w", err)
	}
	return calls, nil
}

// ListAnalyses returns stored analyses, newest first. An empty patientID
// lists every patient.
func (s *Store) ListAnalyses(ctx context.Context, patientID string) ([]AnalysisInfo, error) {
	query := `SELECT id, patient_id, generated_at, created_at, summary FROM analyses`
	var args []any
	if patientID != "" {
		query += ` WHERE patient_id = ?`
		args = append(args, patientID)
	}
	query += ` ORDER BY generated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisInfo
	for rows.Next() {
		var a AnalysisInfo
		if err := rows.Scan(&a.ID, &a.PatientID, &a.GeneratedAt, &a.CreatedAt, &a.Summary); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a.GeneratedAt = a.GeneratedAt.UTC()
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}

// SearchHitsByGene returns every stored catalog hit for a gene, newest
// analysis first.
func (s *Store) SearchHitsByGene(ctx context.Context, gene string) ([]StoredHit, error) {
	return s.queryHits(ctx, `SELECT h.analysis_id, a.patient_id, a.generated_at, h.gene,
		h.low_confidence, h.entry, h.annotation
		FROM catalog_hits h JOIN analyses a ON a.id = h.analysis_id
		WHERE upper(h.gene) = upper(?)
		ORDER BY a.generated_at DESC, h.analysis_id, h.seq`, gene)
}

func (s *Store) queryHits(ctx context.Context, query string, args ...any) ([]StoredHit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hits: %w", err)
	}
	defer rows.Close()

	var out []StoredHit
	for rows.Next() {
		var sh StoredHit
		var entry, annotation string
		if err := rows.Scan(&sh.AnalysisID, &sh.PatientID, &sh.GeneratedAt, &sh.Gene,
			&sh.Hit.LowConfidence, &entry, &annotation); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		sh.GeneratedAt = sh.GeneratedAt.UTC()

		var e catalog.Entry
		if err := json.Unmarshal([]byte(entry), &e); err != nil {
			return nil, fmt.Errorf("decode catalog entry: %w", err)
		}
		sh.Hit.Entry = e
		if annotation != "" {
			var ann annotate.ClinicalAnnotation
			if err := json.Unmarshal([]byte(annotation), &ann); err != nil {
				return nil, fmt.Errorf("decode annotation: %w", err)
			}
			sh.Hit.Annotation = &ann
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return out, nil
}

// DeleteAnalysis removes an analysis and everything stored with it.
func (s *Store) DeleteAnalysis(ctx context.Context, id string) error {
	for _, table := range []string{"variant_calls", "catalog_hits", "gene_analyses"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE analysis_id = ?", id); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	return nil
}
