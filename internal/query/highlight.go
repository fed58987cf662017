package query

import (
	"strings"

	"github.com/alphagov/rummager/internal/domain/search/params"
)

const highlightingSuffix = "_with_highlighting"

// highlightClause requests highlighted fragments only for fields whose
// "_with_highlighting" variant was explicitly requested in return fields.
// Returns nil when no highlighting was requested.
func highlightClause(p params.QueryParameters) map[string]any {
	fields := map[string]any{}
	for _, requested := range p.ReturnFields() {
		if name, found := strings.CutSuffix(requested, highlightingSuffix); found {
			fields[name] = map[string]any{}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return map[string]any{
		"pre_tags":  []string{"<em>"},
		"post_tags": []string{"</em>"},
		"fields":    fields,
	}
}
