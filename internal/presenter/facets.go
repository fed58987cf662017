package presenter

import (
	"context"

	"github.com/alphagov/rummager/internal/domain/search/params"
	"github.com/alphagov/rummager/internal/engine"
	"github.com/alphagov/rummager/internal/registry"
)

// ExampleInfo carries the example documents fetched for one aggregate
// option, plus the total number of documents the option's own query
// matched.
type ExampleInfo struct {
	Total    int
	Examples []map[string]any
}

// AggregateExamples maps aggregate field -> option value -> examples.
type AggregateExamples map[string]map[string]ExampleInfo

// facetSummaries builds the per-field aggregate summaries. Each
// requested field yields its top options (capped at the requested
// limit), the number of options beyond that cap, and optional example
// documents per option.
func facetSummaries(ctx context.Context, resp *engine.RawResponse, p params.QueryParameters, registries *registry.Registries, examples AggregateExamples) map[string]any {
	if len(p.Aggregates()) == 0 {
		return nil
	}

	summaries := make(map[string]any, len(p.Aggregates()))
	for _, agg := range p.Aggregates() {
		result, ok := resp.Aggregations[agg.Field]
		if !ok {
			continue
		}

		options := make([]map[string]any, 0, min(len(result.Buckets), agg.Limit))
		missing := 0
		for i, bucket := range result.Buckets {
			if i >= agg.Limit {
				missing = len(result.Buckets) - agg.Limit
				break
			}
			options = append(options, map[string]any{
				"value":     optionValue(ctx, agg, bucket.Key, registries, examples),
				"documents": bucket.DocCount,
			})
		}

		summaries[agg.Field] = map[string]any{
			"options":         options,
			"total_options":   len(result.Buckets),
			"missing_options": missing,
		}
	}
	return summaries
}

// optionValue resolves an aggregate bucket key into its display value.
// Registry-backed fields expand into the full registry entry; everything
// else keeps the bare slug. Example documents are attached under
// example_info when they were fetched for this option.
func optionValue(ctx context.Context, agg params.Aggregate, key string, registries *registry.Registries, examples AggregateExamples) map[string]any {
	value := map[string]any{"slug": key}
	if registries != nil {
		if reg, ok := registries.ForField(agg.Field); ok {
			if entry, found := reg.Lookup(ctx, key); found {
				for k, v := range entry {
					value[k] = v
				}
				value["slug"] = key
			}
		}
	}

	if agg.ExampleCount > 0 {
		if byValue, ok := examples[agg.Field]; ok {
			if info, ok := byValue[key]; ok {
				value["example_info"] = map[string]any{
					"total":    info.Total,
					"examples": info.Examples,
				}
			}
		}
	}
	return value
}
