package annotate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/oncoatlas/brcascan/internal/catalog"
	"github.com/oncoatlas/brcascan/internal/clinvar"
)

// Registry looks up clinical records by HGVS identifier.
type Registry interface {
	Lookup(ctx context.Context, identifier string) (clinvar.Record, error)
}

// Resolver combines registry records with local overrides.
type Resolver struct {
	registry  Registry
	overrides OverrideTable
	logger    *zap.Logger
}

// NewResolver creates a resolver. A nil registry resolves from local data
// only.
func NewResolver(registry Registry, overrides OverrideTable) *Resolver {
	if overrides == nil {
		overrides = OverrideTable{}
	}
	return &Resolver{
		registry:  registry,
		overrides: overrides,
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and debug messages.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Offline reports whether the resolver has no registry.
func (r *Resolver) Offline() bool {
	return r.registry == nil
}

// Resolve returns the clinical annotation for an identifier. It never
// fails: registry errors are recorded on the annotation and local data
// fills whatever the registry left empty. Candidates are catalog entries
// whose curated interpretation is used when the override table has no
// row for the identifier.
func (r *Resolver) Resolve(ctx context.Context, identifier string, candidates []catalog.Entry) ClinicalAnnotation {
	identifier = strings.TrimSpace(identifier)
	ann := ClinicalAnnotation{
		Identifier: identifier,
		Conditions: []string{},
	}

	if r.registry == nil {
		ann.Error = "registry lookup disabled"
	} else {
		rec, err := r.registry.Lookup(ctx, identifier)
		if err != nil {
			ann.Error = err.Error()
			r.logger.Warn("registry lookup failed",
				zap.String("identifier", identifier),
				zap.Error(err))
		} else {
			ann.RegistryID = rec.UID
			ann.Title = rec.Title
			ann.ClinicalSignificance = rec.ClinicalSignificance
			ann.ReviewStatus = rec.ReviewStatus
			if len(rec.Conditions) > 0 {
				ann.Conditions = append(ann.Conditions, rec.Conditions...)
			}
		}
	}

	external := ann.hasExternalData()
	ann.Origin = OriginExternal

	o, ok := r.override(identifier, candidates)
	if !ok {
		return ann
	}

	supplied := false
	if ann.ClinicalSignificance == "" && o.ClinicalSignificance != "" {
		ann.ClinicalSignificance = o.ClinicalSignificance
		supplied = true
	}
	if len(ann.Conditions) == 0 && len(o.Conditions) > 0 {
		ann.Conditions = append(ann.Conditions, o.Conditions...)
		supplied = true
	}
	if ann.ReviewStatus == "" {
		ann.ReviewStatus = ReviewStatusLocalOverride
		supplied = true
	}

	switch {
	case supplied && external:
		ann.Origin = OriginMerged
	case supplied:
		ann.Origin = OriginLocalOverride
	}

	r.logger.Debug("applied local override",
		zap.String("identifier", identifier),
		zap.String("origin", ann.Origin))
	return ann
}

// override returns the local interpretation for an identifier, preferring
// the override table over curated catalog entries.
func (r *Resolver) override(identifier string, candidates []catalog.Entry) (Override, bool) {
	if o, ok := r.overrides.Lookup(identifier); ok {
		return o, true
	}
	for _, e := range candidates {
		if e.Identifier() != identifier {
			continue
		}
		if e.Pathogenicity == "" && len(e.Conditions) == 0 {
			continue
		}
		return Override{
			ClinicalSignificance: e.Pathogenicity,
			Conditions:           e.Conditions,
		}, true
	}
	return Override{}, false
}
