package catalog

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var md5Pattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// file is the on-disk layout of a catalog:
//
//	variants:
//	  - gene: BRCA1
//	    code: BRCA1_185delAG
//	    hgvs_c: c.68_69delAG
//	    fingerprint: {length: 7086, md5: 798d0464293e369cd14b7da34754efc9}
type file struct {
	Variants []Entry `yaml:"variants"`
}

// Load reads a YAML catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(f.Variants) == 0 {
		return nil, fmt.Errorf("catalog %s: no variants", path)
	}

	for i := range f.Variants {
		e := &f.Variants[i]
		e.Gene = strings.ToUpper(strings.TrimSpace(e.Gene))
		e.Fingerprint = normalizeFingerprint(e.Fingerprint)
		if err := validate(*e); err != nil {
			return nil, fmt.Errorf("catalog %s: variant %d: %w", path, i+1, err)
		}
	}

	return New(f.Variants), nil
}

// WriteYAML writes entries in the layout read by Load.
func WriteYAML(w io.Writer, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file{Variants: entries}); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}

func validate(e Entry) error {
	switch {
	case e.Gene == "":
		return fmt.Errorf("missing gene")
	case e.Code == "":
		return fmt.Errorf("missing code")
	case e.HGVSc == "":
		return fmt.Errorf("%s: missing hgvs_c", e.Code)
	case e.Fingerprint.Length <= 0:
		return fmt.Errorf("%s: fingerprint length must be positive", e.Code)
	case !md5Pattern.MatchString(e.Fingerprint.Hash):
		return fmt.Errorf("%s: fingerprint md5 %q is not a 32-character hex digest", e.Code, e.Fingerprint.Hash)
	}
	return nil
}
