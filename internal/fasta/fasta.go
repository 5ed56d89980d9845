// Package fasta reads single-record nucleotide FASTA input.
package fasta

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sequence is an upper-case nucleotide sequence.
type Sequence string

// NewSequence normalizes raw sequence text: ASCII whitespace is dropped and
// letters are upper-cased. Other bytes are kept as they are so that the
// length and digest match the input byte for byte.
func NewSequence(raw string) Sequence {
	b := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == ' ', c == '\t', c == '\n', c == '\r', c == '\v', c == '\f':
			continue
		case 'a' <= c && c <= 'z':
			c -= 'a' - 'A'
		}
		b = append(b, c)
	}
	return Sequence(b)
}

// Len returns the number of symbols in the sequence.
func (s Sequence) Len() int {
	return len(s)
}

// IsEmpty reports whether the sequence has no symbols.
func (s Sequence) IsEmpty() bool {
	return len(s) == 0
}

// String returns the sequence as a string.
func (s Sequence) String() string {
	return string(s)
}

// Record is a parsed FASTA record.
type Record struct {
	Header string   // first header line without the leading '>'
	Seq    Sequence // concatenated, normalized sequence lines
}

// EmptyInputError reports that a required sequence has no symbols.
type EmptyInputError struct {
	Source string // file name, gene or other label for the input
}

func (e *EmptyInputError) Error() string {
	if e.Source == "" {
		return "empty sequence"
	}
	return fmt.Sprintf("empty sequence in %s", e.Source)
}

// RequireSequence returns an *EmptyInputError when the record has no
// sequence symbols.
func (r Record) RequireSequence(source string) error {
	if r.Seq.IsEmpty() {
		return &EmptyInputError{Source: source}
	}
	return nil
}

// Parse reads a FASTA record from r.
// Only the first header line is kept; later header lines are ignored and
// their sequence lines are appended to the same record.
func Parse(r io.Reader) (Record, error) {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for unwrapped sequences
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var rec Record
	var seen bool
	var seq strings.Builder

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if !seen {
				rec.Header = strings.TrimSpace(line[1:])
				seen = true
			}
			continue
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("scan FASTA: %w", err)
	}

	rec.Seq = NewSequence(seq.String())
	return rec, nil
}

// ParseString parses FASTA text held in memory.
func ParseString(text string) (Record, error) {
	return Parse(strings.NewReader(text))
}

// ReadFile reads a FASTA record from disk. Gzipped files are detected by
// their magic bytes.
func ReadFile(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var reader io.Reader = br

	// Check for gzip magic number (0x1f, 0x8b)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return Record{}, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	rec, err := Parse(reader)
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", path, err)
	}
	return rec, nil
}
