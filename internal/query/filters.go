package query

import (
	"github.com/alphagov/rummager/internal/domain/search/params"
)

// filtersClause translates the active filters into engine filter clauses.
// All filters are conjunctive. Returns nil when no filters are active.
func filtersClause(filters []params.Filter) map[string]any {
	if len(filters) == 0 {
		return nil
	}

	clauses := make([]map[string]any, 0, len(filters))
	for _, f := range filters {
		clauses = append(clauses, filterClause(f))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return map[string]any{
		"bool": map[string]any{"must": clauses},
	}
}

func filterClause(f params.Filter) map[string]any {
	switch {
	case f.Boolean != nil:
		return map[string]any{"term": map[string]any{f.Field: *f.Boolean}}
	case f.IsRange():
		bounds := map[string]any{}
		if f.After != "" {
			bounds["from"] = f.After
		}
		if f.Before != "" {
			bounds["to"] = f.Before
		}
		return map[string]any{"range": map[string]any{f.Field: bounds}}
	case len(f.Values) == 1:
		return map[string]any{"term": map[string]any{f.Field: f.Values[0]}}
	default:
		return map[string]any{"terms": map[string]any{f.Field: f.Values}}
	}
}
