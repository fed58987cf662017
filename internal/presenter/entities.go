package presenter

import (
	"context"

	"github.com/alphagov/rummager/internal/registry"
)

// expandEntities replaces registry-expandable references (organisation,
// taxon/topic, world-location slugs and the like) in a result with full
// registry entries. References that do not resolve stay as bare
// identifiers.
func expandEntities(ctx context.Context, result map[string]any, registries *registry.Registries) map[string]any {
	if registries == nil {
		return result
	}

	for field, value := range result {
		reg, ok := registries.ForField(field)
		if !ok {
			continue
		}
		slugs, ok := value.([]any)
		if !ok {
			continue
		}

		expanded := make([]any, 0, len(slugs))
		for _, raw := range slugs {
			slug, ok := raw.(string)
			if !ok {
				expanded = append(expanded, raw)
				continue
			}
			if entry, found := reg.Lookup(ctx, slug); found {
				expanded = append(expanded, map[string]any(entry))
			} else {
				expanded = append(expanded, slug)
			}
		}
		result[field] = expanded
	}
	return result
}
