package presenter

import (
	"context"
	"strings"

	"github.com/alphagov/rummager/internal/domain/search/params"
	"github.com/alphagov/rummager/internal/engine"
	"github.com/alphagov/rummager/internal/registry"
)

const highlightingSuffix = "_with_highlighting"

// Present converts a raw engine response into the gateway's response
// body. The payload that produced the response is echoed back only when
// the show_query debug flag was set.
func Present(ctx context.Context, resp *engine.RawResponse, p params.QueryParameters, registries *registry.Registries, examples AggregateExamples, payload map[string]any) map[string]any {
	results := make([]map[string]any, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		results = append(results, presentHit(ctx, hit, p, registries))
	}

	body := map[string]any{
		"results": results,
		"total":   resp.Hits.Total,
		"start":   p.Start(),
	}
	if facets := facetSummaries(ctx, resp, p, registries, examples); facets != nil {
		body["facets"] = facets
	}
	if p.SuggestSpelling() {
		body["suggested_queries"] = suggestedQueries(resp.Suggest)
	}
	if warnings := p.Warnings(); len(warnings) > 0 {
		body["warnings"] = warnings
	}
	if p.Debug().ShowQuery {
		body["elasticsearch_query"] = payload
	}
	return body
}

// presentHit extracts one result: requested fields from the hit, with
// highlight fragments substituted where asked for, display formats
// attached, and registry references expanded.
func presentHit(ctx context.Context, hit engine.Hit, p params.QueryParameters, registries *registry.Registries) map[string]any {
	result := make(map[string]any)
	for field, value := range hit.FieldData() {
		result[field] = value
	}

	for _, requested := range p.ReturnFields() {
		if !strings.HasSuffix(requested, highlightingSuffix) {
			continue
		}
		base := strings.TrimSuffix(requested, highlightingSuffix)
		if base == "title" {
			result[requested] = highlightedTitle(hit)
		} else {
			result[requested] = highlightedField(hit, base)
		}
	}

	if format, set := result["format"]; set {
		name := stringValue(format)
		result["document_type"] = presentationFormat(name)
		result["humanized_format"] = humanizedFormat(name)
	}

	result["index"] = hit.Index
	result["es_score"] = hit.Score
	result["_id"] = hit.ID

	return expandEntities(ctx, result, registries)
}
