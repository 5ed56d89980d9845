package annotate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Override is a curated clinical interpretation used to fill fields the
// registry left empty.
type Override struct {
	ClinicalSignificance string   `yaml:"clinical_significance"`
	Conditions           []string `yaml:"conditions"`
}

// OverrideTable maps HGVS identifiers to curated overrides. It is read-only
// after construction.
type OverrideTable map[string]Override

// Lookup returns the override for an identifier.
func (t OverrideTable) Lookup(identifier string) (Override, bool) {
	o, ok := t[strings.TrimSpace(identifier)]
	return o, ok
}

// DefaultOverrides returns the classic BRCA founder variants, which must
// always be reported as pathogenic.
func DefaultOverrides() OverrideTable {
	const (
		hboc1 = "Hereditary breast-ovarian cancer syndrome (BRCA1)"
		hboc2 = "Hereditary breast-ovarian cancer syndrome (BRCA2)"
	)
	return OverrideTable{
		"NM_007294.4:c.68_69delAG": {
			ClinicalSignificance: "Pathogenic",
			Conditions:           []string{hboc1},
		},
		"NM_007294.4:c.5266dupC": {
			ClinicalSignificance: "Pathogenic",
			Conditions:           []string{hboc1},
		},
		"NM_000059.4:c.5946delT": {
			ClinicalSignificance: "Pathogenic",
			Conditions:           []string{hboc2},
		},
		"NM_000059.3:c.2808_2811delACAA": {
			ClinicalSignificance: "Pathogenic",
			Conditions:           []string{hboc2},
		},
	}
}

// LoadOverrides reads an override table from a YAML mapping of identifier
// to override.
func LoadOverrides(path string) (OverrideTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open override table: %w", err)
	}

	var t OverrideTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse override table %s: %w", path, err)
	}
	for id, o := range t {
		if o.ClinicalSignificance == "" && len(o.Conditions) == 0 {
			return nil, fmt.Errorf("override table %s: %s has no fields", path, id)
		}
	}
	return t, nil
}
