package clinvar

import (
	"encoding/json"
	"strings"
)

// summaryDoc is one entry of an ESummary "result" object. ClinVar has
// changed the shape of these documents several times, so classification
// and trait fields are decoded leniently.
type summaryDoc struct {
	Title                  string          `json:"title"`
	ClinicalSignificance   json.RawMessage `json:"clinical_significance"`
	GermlineClassification json.RawMessage `json:"germline_classification"`
	TraitSet               json.RawMessage `json:"trait_set"`
}

type classification struct {
	Description  string          `json:"description"`
	ReviewStatus string          `json:"review_status"`
	TraitSet     json.RawMessage `json:"trait_set"`
}

type trait struct {
	TraitName json.RawMessage `json:"trait_name"`
	Name      json.RawMessage `json:"name"`
}

func (d summaryDoc) record() Record {
	rec := Record{Title: strings.TrimSpace(d.Title)}

	traits := decodeTraits(d.TraitSet)
	for _, raw := range []json.RawMessage{d.ClinicalSignificance, d.GermlineClassification} {
		cls, ok := decodeClassification(raw)
		if !ok {
			continue
		}
		if rec.ClinicalSignificance == "" {
			rec.ClinicalSignificance = strings.TrimSpace(cls.Description)
		}
		if rec.ReviewStatus == "" {
			rec.ReviewStatus = strings.TrimSpace(cls.ReviewStatus)
		}
		if len(traits) == 0 {
			traits = decodeTraits(cls.TraitSet)
		}
	}

	seen := make(map[string]bool)
	for _, t := range traits {
		name := t.name()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		rec.Conditions = append(rec.Conditions, name)
	}
	return rec
}

// decodeClassification accepts either an object with description and
// review_status or a bare string.
func decodeClassification(raw json.RawMessage) (classification, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return classification{}, false
	}
	var cls classification
	if err := json.Unmarshal(raw, &cls); err == nil {
		return cls, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return classification{Description: s}, true
	}
	return classification{}, false
}

// decodeTraits returns the entries of a trait_set list. Any other shape
// yields no traits.
func decodeTraits(raw json.RawMessage) []trait {
	if len(raw) == 0 {
		return nil
	}
	var traits []trait
	if err := json.Unmarshal(raw, &traits); err != nil {
		return nil
	}
	return traits
}

// name returns the first usable trait name. Names are either a string or
// a list of strings.
func (t trait) name() string {
	for _, raw := range []json.RawMessage{t.TraitName, t.Name} {
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
			return strings.TrimSpace(list[0])
		}
	}
	return ""
}
