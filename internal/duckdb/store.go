// Package duckdb persists analysis results in DuckDB.
// Each analysis is stored as one row plus per-gene rows, variant calls
// (bulk-loaded with the Appender API) and catalog hits, so past results
// can be listed, reloaded and searched by gene.
package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// ErrNotFound is returned when an analysis ID is unknown.
var ErrNotFound = errors.New("analysis not found")

// Store manages a DuckDB connection holding analysis results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id VARCHAR PRIMARY KEY,
			patient_id VARCHAR,
			generated_at TIMESTAMP,
			created_at TIMESTAMP,
			summary VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS gene_analyses (
			analysis_id VARCHAR,
			gene VARCHAR,
			reference_header VARCHAR,
			reference_length BIGINT,
			sample_header VARCHAR,
			sample_length BIGINT,
			snv_count BIGINT,
			warnings VARCHAR,
			error VARCHAR,
			PRIMARY KEY (analysis_id, gene)
		)`,
		`CREATE TABLE IF NOT EXISTS variant_calls (
			analysis_id VARCHAR,
			gene VARCHAR,
			position BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			kind VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_hits (
			analysis_id VARCHAR,
			gene VARCHAR,
			seq INTEGER,
			code VARCHAR,
			identifier VARCHAR,
			clinical_significance VARCHAR,
			origin VARCHAR,
			low_confidence BOOLEAN,
			entry VARCHAR,
			annotation VARCHAR
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
