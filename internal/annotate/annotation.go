// Package annotate enriches catalogued variants with clinical annotation
// from an external registry and a local override table.
package annotate

// Annotation origins.
const (
	OriginExternal      = "external"
	OriginLocalOverride = "local_override"
	OriginMerged        = "merged"
)

// ReviewStatusLocalOverride marks a review status filled from the local
// override table.
const ReviewStatusLocalOverride = "local_override"

// ClinicalAnnotation is the clinical interpretation of one HGVS identifier.
type ClinicalAnnotation struct {
	Identifier           string   `json:"identifier"`             // HGVS c. change, e.g. "NM_007294.4:c.68_69delAG"
	RegistryID           string   `json:"registry_id,omitempty"`  // ClinVar UID
	Title                string   `json:"title,omitempty"`        // registry record title
	ClinicalSignificance string   `json:"clinical_significance"`  // e.g. "Pathogenic", empty if unknown
	ReviewStatus         string   `json:"review_status"`          // registry review status or "local_override"
	Conditions           []string `json:"conditions"`             // associated condition names
	Origin               string   `json:"origin"`                 // external, local_override or merged
	Error                string   `json:"error,omitempty"`        // registry failure, for operators only
}

// Degraded reports whether the registry lookup failed.
func (a *ClinicalAnnotation) Degraded() bool {
	return a.Error != ""
}

// hasExternalData reports whether the registry supplied any field.
func (a *ClinicalAnnotation) hasExternalData() bool {
	return a.RegistryID != "" || a.Title != "" || a.ClinicalSignificance != "" ||
		a.ReviewStatus != "" || len(a.Conditions) > 0
}
