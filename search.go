package rummager

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SearchResults is the decoded response to one search query.
type SearchResults struct {
	Total            int              `json:"total"`
	Start            int              `json:"start"`
	Results          []map[string]any `json:"results"`
	SuggestedQueries []string         `json:"suggested_queries,omitempty"`
	Facets           map[string]Facet `json:"facets,omitempty"`
	Warnings         []string         `json:"warnings,omitempty"`
}

// Facet is a count-per-value breakdown over one field.
type Facet struct {
	Options        []FacetOption `json:"options"`
	TotalOptions   int           `json:"total_options"`
	MissingOptions int           `json:"missing_options"`
}

// FacetOption is one distinct field value with its document count.
type FacetOption struct {
	Value     map[string]any `json:"value"`
	Documents int            `json:"documents"`
}

// SearchBuilder is a fluent builder for search queries.
type SearchBuilder struct {
	client *Client

	query   string
	order   string
	start   int
	count   int
	fields  []string
	filters url.Values
	aggs    url.Values
	suggest bool
	debug   []string
}

// Search starts building a query for the given text.
func (c *Client) Search(query string) *SearchBuilder {
	return &SearchBuilder{
		client:  c,
		query:   query,
		filters: url.Values{},
		aggs:    url.Values{},
	}
}

// Order sets the sort field. Prefix with "-" for descending.
func (b *SearchBuilder) Order(field string) *SearchBuilder {
	b.order = field
	return b
}

// Start sets the pagination offset.
func (b *SearchBuilder) Start(n int) *SearchBuilder {
	b.start = n
	return b
}

// Count sets the page size.
func (b *SearchBuilder) Count(n int) *SearchBuilder {
	b.count = n
	return b
}

// Fields selects the result fields to return.
func (b *SearchBuilder) Fields(names ...string) *SearchBuilder {
	b.fields = append(b.fields, names...)
	return b
}

// Filter restricts results to documents whose field matches one of the
// given values. Date fields take "before:<date>" and "after:<date>"
// bounds instead.
func (b *SearchBuilder) Filter(field string, values ...string) *SearchBuilder {
	for _, v := range values {
		b.filters.Add("filter_"+field, v)
	}
	return b
}

// Aggregate requests a count-per-value breakdown over a field, returning
// up to limit options.
func (b *SearchBuilder) Aggregate(field string, limit int) *SearchBuilder {
	b.aggs.Set("aggregate_"+field, strconv.Itoa(limit))
	return b
}

// AggregateWithExamples requests an aggregate where each option carries
// up to examples illustrative documents with the given fields.
func (b *SearchBuilder) AggregateWithExamples(field string, limit, examples int, exampleFields ...string) *SearchBuilder {
	spec := fmt.Sprintf("%d,examples:%d", limit, examples)
	if len(exampleFields) > 0 {
		spec += ",example_fields:" + strings.Join(exampleFields, ":")
	}
	b.aggs.Set("aggregate_"+field, spec)
	return b
}

// SuggestSpelling requests spelling suggestions for the query.
func (b *SearchBuilder) SuggestSpelling() *SearchBuilder {
	b.suggest = true
	return b
}

// Debug adds debug flags, for example "disable_best_bets" or "show_query".
func (b *SearchBuilder) Debug(flags ...string) *SearchBuilder {
	b.debug = append(b.debug, flags...)
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (*SearchResults, error) {
	query := url.Values{}
	if b.query != "" {
		query.Set("q", b.query)
	}
	if b.order != "" {
		query.Set("order", b.order)
	}
	if b.start > 0 {
		query.Set("start", strconv.Itoa(b.start))
	}
	if b.count > 0 {
		query.Set("count", strconv.Itoa(b.count))
	}
	if len(b.fields) > 0 {
		query.Set("fields", strings.Join(b.fields, ","))
	}
	if b.suggest {
		query.Set("suggest", "spelling")
	}
	if len(b.debug) > 0 {
		query.Set("debug", strings.Join(b.debug, ","))
	}
	for key, values := range b.filters {
		query[key] = values
	}
	for key, values := range b.aggs {
		query[key] = values
	}

	var results SearchResults
	if err := b.client.get(ctx, "/search", query, &results); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return &results, nil
}
