package query

import (
	"github.com/alphagov/rummager/internal/domain/search/params"
)

// maxAggregateOptions caps the option count requested from the engine for
// any one aggregate.
const maxAggregateOptions = 1000

// aggregatesClause emits one terms-aggregation request per requested
// aggregate field, bounded by the maximum option count. Returns nil when
// no aggregates were requested. Example documents per bucket are fetched
// separately (see the aggregate example fetcher).
func aggregatesClause(aggregates []params.Aggregate) map[string]any {
	if len(aggregates) == 0 {
		return nil
	}

	clauses := make(map[string]any, len(aggregates))
	for _, agg := range aggregates {
		size := agg.Limit
		if size > maxAggregateOptions {
			size = maxAggregateOptions
		}
		clauses[agg.Field] = map[string]any{
			"terms": map[string]any{
				"field": agg.Field,
				"order": map[string]any{"_count": "desc"},
				"size":  size,
			},
		}
	}
	return clauses
}
