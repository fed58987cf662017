package registry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Document fields that expand through a registry, mapped to the backing
// dataset's format and the fields fetched on refresh.
var registrySpecs = []struct {
	field  string
	format string
	fields []string
}{
	{"organisations", "organisation", []string{
		"slug", "link", "title", "acronym", "organisation_type", "organisation_state", "logo_formatted_title",
	}},
	{"specialist_sectors", "specialist_sector", []string{"slug", "link", "title"}},
	{"world_locations", "world_location", []string{"slug", "link", "title"}},
	{"document_collections", "document_collection", []string{"slug", "link", "title"}},
	{"people", "person", []string{"slug", "link", "title"}},
}

// Registries is the full set of reference caches, keyed by the document
// field they expand.
type Registries struct {
	byField map[string]*Registry
}

// NewRegistries wires one registry per expandable document field.
func NewRegistries(fetcher Fetcher, clock Clock, lifetime time.Duration, logger *zap.Logger) *Registries {
	byField := make(map[string]*Registry, len(registrySpecs))
	for _, spec := range registrySpecs {
		byField[spec.field] = New(fetcher, spec.format, spec.fields).
			WithClock(clock).
			WithLifetime(lifetime).
			WithLogger(logger.With(zap.String("registry", spec.field)))
	}
	return &Registries{byField: byField}
}

// ForField returns the registry expanding the named document field.
func (r *Registries) ForField(field string) (*Registry, bool) {
	reg, ok := r.byField[field]
	return reg, ok
}

// Lookup expands one slug through the registry for the named field.
func (r *Registries) Lookup(ctx context.Context, field, slug string) (Entry, bool) {
	reg, ok := r.byField[field]
	if !ok {
		return nil, false
	}
	return reg.Lookup(ctx, slug)
}

// OrganisationAcronyms returns the acronyms of every known organisation.
// Used by the spelling-suggestion blacklist.
func (r *Registries) OrganisationAcronyms(ctx context.Context) []string {
	orgs, ok := r.byField["organisations"]
	if !ok {
		return nil
	}
	var acronyms []string
	for _, entry := range orgs.All(ctx) {
		if acronym, ok := entry["acronym"].(string); ok && acronym != "" {
			acronyms = append(acronyms, acronym)
		}
	}
	return acronyms
}
