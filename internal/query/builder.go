// Package query assembles structured query payloads for the external
// search engine from parsed search parameters. Each concern (core text
// match, boosting, filters, highlighting, aggregation, suggestion) is an
// independent fragment builder; Builder merges the fragments.
package query

import (
	"strings"
	"time"

	"github.com/alphagov/rummager/internal/bets"
	"github.com/alphagov/rummager/internal/domain/search/params"
)

// bestBetBoost, divided by the configured position, pins best-bet links
// ahead of any organically scoring match.
const bestBetBoost = 1000000.0

// Clock supplies the current time for the time-decay boost.
// Substitutable in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Builder produces one structured query payload per search request.
type Builder struct {
	boosts BoostConfig
	clock  Clock
}

// NewBuilder creates a payload builder with the given format boost table.
func NewBuilder(boosts BoostConfig) *Builder {
	return &Builder{boosts: boosts, clock: systemClock{}}
}

// WithClock substitutes the time source.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// Payload merges the fragment builders into the query document sent to
// the engine. overrides carries any best/worst bets already resolved for
// this query.
func (b *Builder) Payload(p params.QueryParameters, overrides bets.Result) map[string]any {
	q := coreQuery(p)
	if !p.Debug().DisableBoosting {
		q = b.boosted(q, p)
	}
	if !p.Debug().DisableBestBets {
		q = withBets(q, overrides)
	}
	if filter := filtersClause(p.Filters()); filter != nil {
		q = map[string]any{
			"filtered": map[string]any{
				"query":  q,
				"filter": filter,
			},
		}
	}

	payload := map[string]any{
		"from":  p.Start(),
		"size":  p.Count(),
		"query": q,
	}
	if fields := returnFieldNames(p); len(fields) > 0 {
		payload["fields"] = fields
	}
	if sortOrder := sortClause(p.Order()); sortOrder != nil {
		payload["sort"] = sortOrder
	}
	if aggs := aggregatesClause(p.Aggregates()); aggs != nil {
		payload["aggregations"] = aggs
	}
	if highlight := highlightClause(p); highlight != nil {
		payload["highlight"] = highlight
	}
	return payload
}

// ExampleQuery builds the secondary fetch illustrating one aggregate
// bucket: documents carrying the bucket value, optionally restricted to
// the current query's matches.
func (b *Builder) ExampleQuery(p params.QueryParameters, agg params.Aggregate, value string) map[string]any {
	filter := filterClause(params.Filter{Field: agg.Field, Values: []string{value}})

	var q map[string]any
	if agg.ExampleScope == params.ExampleScopeQuery && p.Query() != "" {
		q = map[string]any{
			"filtered": map[string]any{
				"query":  coreQuery(p),
				"filter": filter,
			},
		}
	} else {
		q = map[string]any{"constant_score": map[string]any{"filter": filter}}
	}

	payload := map[string]any{
		"query": q,
		"size":  agg.ExampleCount,
	}
	if len(agg.ExampleFields) > 0 {
		payload["fields"] = agg.ExampleFields
	}
	return payload
}

// withBets injects best bets as pinned top-of-results entries and
// excludes worst bets from the candidate set entirely.
func withBets(q map[string]any, overrides bets.Result) map[string]any {
	if overrides.IsZero() {
		return q
	}

	should := []map[string]any{q}
	for _, bet := range overrides.Best {
		position := bet.Position
		if position < 1 {
			position = 1
		}
		should = append(should, map[string]any{
			"term": map[string]any{
				"link": map[string]any{
					"value": bet.Link,
					"boost": bestBetBoost / float64(position),
				},
			},
		})
	}

	clause := map[string]any{"should": should}
	if len(overrides.Worst) > 0 {
		clause["must_not"] = map[string]any{
			"terms": map[string]any{"link": overrides.Worst},
		}
	}
	return map[string]any{"bool": clause}
}

// returnFieldNames strips highlighting variants down to the engine field
// names, deduplicated in request order.
func returnFieldNames(p params.QueryParameters) []string {
	seen := map[string]bool{}
	var fields []string
	for _, requested := range p.ReturnFields() {
		name := strings.TrimSuffix(requested, highlightingSuffix)
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	return fields
}

// sortClause translates an order parameter ("field" ascending,
// "-field" descending) into an engine sort. Nil means relevance order.
func sortClause(order string) []map[string]any {
	if order == "" {
		return nil
	}
	direction := "asc"
	field := order
	if strings.HasPrefix(order, "-") {
		direction = "desc"
		field = order[1:]
	}
	return []map[string]any{
		{field: map[string]any{"order": direction}},
	}
}
