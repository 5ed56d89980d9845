// Package catalog recognizes curated pathogenic founder variants by the
// content fingerprint of a sample sequence.
package catalog

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/oncoatlas/brcascan/internal/fasta"
)

// Fingerprint identifies a sequence by its length and content digest.
type Fingerprint struct {
	Length int    `json:"length" yaml:"length"`
	Hash   string `json:"hash" yaml:"md5"` // lower-case hex MD5 of the upper-cased sequence
}

// Compute returns the fingerprint of a sequence.
func Compute(seq fasta.Sequence) Fingerprint {
	sum := md5.Sum([]byte(strings.ToUpper(string(seq))))
	return Fingerprint{
		Length: seq.Len(),
		Hash:   hex.EncodeToString(sum[:]),
	}
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%d:%s", f.Length, f.Hash)
}

// Entry is a known pathogenic variant and the fingerprint of the sample
// sequence that carries it.
type Entry struct {
	Gene          string      `json:"gene" yaml:"gene"`
	Code          string      `json:"code" yaml:"code"`             // e.g. "BRCA1_185delAG"
	ShortName     string      `json:"short_name" yaml:"short_name"` // legacy name, e.g. "185delAG"
	Transcript    string      `json:"transcript" yaml:"transcript"` // e.g. "NM_007294.4"
	HGVSc         string      `json:"hgvs_c" yaml:"hgvs_c"`
	HGVSp         string      `json:"hgvs_p" yaml:"hgvs_p"`
	VariantType   string      `json:"variant_type" yaml:"variant_type"`
	Pathogenicity string      `json:"pathogenicity" yaml:"pathogenicity"`
	Conditions    []string    `json:"associated_conditions" yaml:"conditions"`
	URL           string      `json:"external_reference_url" yaml:"url"`
	Fingerprint   Fingerprint `json:"fingerprint" yaml:"fingerprint"`
}

// Identifier returns the transcript-qualified HGVS c. change used to query
// the clinical registry, e.g. "NM_007294.4:c.68_69delAG".
func (e Entry) Identifier() string {
	if e.Transcript == "" {
		return e.HGVSc
	}
	return e.Transcript + ":" + e.HGVSc
}

// IntegrityWarning reports that more than one entry shares a fingerprint
// for the same gene. It is diagnostic only.
type IntegrityWarning struct {
	Gene  string
	Codes []string
}

func (w *IntegrityWarning) Error() string {
	return fmt.Sprintf("catalog integrity: %d entries for %s share one fingerprint (%s)",
		len(w.Codes), w.Gene, strings.Join(w.Codes, ", "))
}

// CheckIntegrity returns an *IntegrityWarning when hits holds more than one
// entry, nil otherwise.
func CheckIntegrity(gene string, hits []Entry) error {
	if len(hits) < 2 {
		return nil
	}
	codes := make([]string, len(hits))
	for i, h := range hits {
		codes[i] = h.Code
	}
	return &IntegrityWarning{Gene: gene, Codes: codes}
}

type indexKey struct {
	gene string
	fp   Fingerprint
}

// Catalog is an immutable, fingerprint-indexed set of entries. It is safe
// for concurrent use.
type Catalog struct {
	entries []Entry
	index   map[indexKey][]Entry
	logger  *zap.Logger
}

// New builds a catalog from entries. The slice is copied.
func New(entries []Entry) *Catalog {
	c := &Catalog{
		entries: make([]Entry, len(entries)),
		index:   make(map[indexKey][]Entry, len(entries)),
		logger:  zap.NewNop(),
	}
	copy(c.entries, entries)
	for _, e := range c.entries {
		k := indexKey{gene: strings.ToUpper(e.Gene), fp: normalizeFingerprint(e.Fingerprint)}
		c.index[k] = append(c.index[k], e)
	}
	return c
}

// SetLogger sets the logger for integrity warnings.
func (c *Catalog) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of all entries ordered by gene and code.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Gene != out[j].Gene {
			return out[i].Gene < out[j].Gene
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Match returns every entry for gene whose fingerprint equals the sample's.
// An empty sample never matches. No match is not an error.
func (c *Catalog) Match(sample fasta.Sequence, gene string) []Entry {
	if sample.IsEmpty() {
		return nil
	}
	fp := Compute(sample)
	hits := c.index[indexKey{gene: strings.ToUpper(gene), fp: fp}]
	if len(hits) == 0 {
		return nil
	}
	if err := CheckIntegrity(gene, hits); err != nil {
		c.logger.Warn("duplicate catalog fingerprint",
			zap.String("gene", gene),
			zap.Stringer("fingerprint", fp),
			zap.Error(err))
	}
	out := make([]Entry, len(hits))
	copy(out, hits)
	return out
}

// MatchHeader is a low-confidence fallback that looks for an entry's code,
// legacy name or HGVS change in a FASTA header. Callers must label its hits
// as low confidence.
func (c *Catalog) MatchHeader(header, gene string) []Entry {
	h := strings.ToLower(header)
	if h == "" {
		return nil
	}
	var out []Entry
	for _, e := range c.Entries() {
		if !strings.EqualFold(e.Gene, gene) {
			continue
		}
		for _, kw := range headerKeywords(e) {
			if strings.Contains(h, kw) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func headerKeywords(e Entry) []string {
	var kws []string
	for _, s := range []string{e.Code, e.ShortName, e.HGVSc, strings.TrimPrefix(e.HGVSc, "c.")} {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			kws = append(kws, s)
		}
	}
	return kws
}

func normalizeFingerprint(fp Fingerprint) Fingerprint {
	return Fingerprint{Length: fp.Length, Hash: strings.ToLower(strings.TrimSpace(fp.Hash))}
}
