// Package searchparams validates and normalizes raw request parameters
// into a typed query-parameter value object. It is a pure transform: all
// invalid parameters are reported together, not just the first.
package searchparams

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/alphagov/rummager/internal/domain/schema"
	"github.com/alphagov/rummager/internal/domain/search/params"
)

const (
	filterPrefix    = "filter_"
	aggregatePrefix = "aggregate_"

	defaultExampleScope = params.ExampleScopeGlobal
)

// Parser validates raw search parameters against the index schema.
type Parser struct {
	schema          schema.Schema
	maxCount        int
	maxExampleCount int
}

// NewParser creates a parser with default limits.
func NewParser(s schema.Schema) *Parser {
	return &Parser{schema: s, maxCount: params.MaxCount, maxExampleCount: 10}
}

// WithLimits overrides the pagination and aggregate-example maxima.
func (p *Parser) WithLimits(maxCount, maxExampleCount int) *Parser {
	if maxCount > 0 {
		p.maxCount = maxCount
	}
	if maxExampleCount > 0 {
		p.maxExampleCount = maxExampleCount
	}
	return p
}

// Parse converts raw request parameters into a QueryParameters value, or a
// *ValidationError enumerating every invalid parameter.
func (p *Parser) Parse(raw url.Values) (params.QueryParameters, error) {
	v := &validator{}

	debug, warnings := parseDebug(raw.Get("debug"))
	opts := params.Options{
		Query:     strings.TrimSpace(raw.Get("q")),
		SimilarTo: raw.Get("similar_to"),
		Order:     raw.Get("order"),
		Start:     v.nonNegativeInt(raw, "start", 0),
		Count:     v.count(raw, p.maxCount),
		Debug:     debug,
		Warnings:  warnings,
		Suggest:   splitCSV(raw.Get("suggest")),
		ABTests:   parseABTests(raw.Get("ab_tests")),
	}
	opts.ReturnFields = p.parseReturnFields(raw.Get("fields"), v)
	opts.Filters = p.parseFilters(raw, v)
	opts.Aggregates = p.parseAggregates(raw, v)

	if err := v.err(); err != nil {
		return params.QueryParameters{}, err
	}
	return params.New(opts), nil
}

func (p *Parser) parseReturnFields(value string, v *validator) []string {
	fields := splitCSV(value)
	for _, f := range fields {
		name := strings.TrimSuffix(f, "_with_highlighting")
		if !p.schema.HasField(name) {
			v.add("fields", "unknown field "+strconv.Quote(f))
		}
	}
	return fields
}

func (p *Parser) parseFilters(raw url.Values, v *validator) []params.Filter {
	var filters []params.Filter
	for key, values := range raw {
		if !strings.HasPrefix(key, filterPrefix) {
			continue
		}
		field := strings.TrimPrefix(key, filterPrefix)
		def, ok := p.schema.Field(field)
		if !ok {
			v.add(key, "unknown field "+strconv.Quote(field))
			continue
		}
		if f, ok := p.parseFilter(key, field, def, values, v); ok {
			filters = append(filters, f)
		}
	}
	return filters
}

func (p *Parser) parseFilter(
	key, field string, def schema.Field, values []string, v *validator,
) (params.Filter, bool) {
	switch def.Kind() {
	case schema.Date:
		f := params.Filter{Field: field}
		for _, value := range values {
			bound, date, found := strings.Cut(value, ":")
			if !found {
				v.add(key, "date filter values must be before:<date> or after:<date>")
				return params.Filter{}, false
			}
			switch bound {
			case "before":
				f.Before = date
			case "after":
				f.After = date
			default:
				v.add(key, "unknown date bound "+strconv.Quote(bound))
				return params.Filter{}, false
			}
		}
		return f, true
	case schema.Boolean:
		if len(values) != 1 {
			v.add(key, "boolean filters take exactly one value")
			return params.Filter{}, false
		}
		b, ok := ParseBool(values[0])
		if !ok {
			v.add(key, strconv.Quote(values[0])+" is not a valid boolean value")
			return params.Filter{}, false
		}
		return params.Filter{Field: field, Boolean: &b}, true
	default:
		return params.Filter{Field: field, Values: values}, true
	}
}

func (p *Parser) parseAggregates(raw url.Values, v *validator) []params.Aggregate {
	var aggs []params.Aggregate
	for key, values := range raw {
		if !strings.HasPrefix(key, aggregatePrefix) {
			continue
		}
		field := strings.TrimPrefix(key, aggregatePrefix)
		if !p.schema.HasField(field) {
			v.add(key, "unknown field "+strconv.Quote(field))
			continue
		}
		if len(values) != 1 {
			v.add(key, "aggregates take exactly one specification")
			continue
		}
		if a, ok := p.parseAggregate(key, field, values[0], v); ok {
			aggs = append(aggs, a)
		}
	}
	return aggs
}

// parseAggregate parses "<limit>[,examples:<n>][,example_scope:<scope>][,example_fields:<f1:f2>]".
func (p *Parser) parseAggregate(key, field, spec string, v *validator) (params.Aggregate, bool) {
	parts := strings.Split(spec, ",")

	limit, err := strconv.Atoi(parts[0])
	if err != nil || limit < 1 {
		v.add(key, "aggregate option count must be a positive integer")
		return params.Aggregate{}, false
	}

	agg := params.Aggregate{Field: field, Limit: limit, ExampleScope: defaultExampleScope}
	for _, part := range parts[1:] {
		name, value, found := strings.Cut(part, ":")
		if !found {
			v.add(key, "malformed aggregate option "+strconv.Quote(part))
			return params.Aggregate{}, false
		}
		switch name {
		case "examples":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || n > p.maxExampleCount {
				v.add(key, "example count must be an integer between 0 and "+strconv.Itoa(p.maxExampleCount))
				return params.Aggregate{}, false
			}
			agg.ExampleCount = n
		case "example_scope":
			scope := params.ExampleScope(value)
			if scope != params.ExampleScopeGlobal && scope != params.ExampleScopeQuery {
				v.add(key, "example scope must be global or query")
				return params.Aggregate{}, false
			}
			agg.ExampleScope = scope
		case "example_fields":
			fields := strings.Split(value, ":")
			for _, f := range fields {
				if !p.schema.HasField(f) {
					v.add(key, "unknown example field "+strconv.Quote(f))
					return params.Aggregate{}, false
				}
			}
			agg.ExampleFields = fields
		default:
			v.add(key, "unknown aggregate option "+strconv.Quote(name))
			return params.Aggregate{}, false
		}
	}
	return agg, true
}

// ParseBool recognizes the accepted truthy and falsy tokens,
// case-insensitively. The second return value is false for anything else.
func ParseBool(token string) (value, ok bool) {
	switch strings.ToLower(token) {
	case "true", "yes", "1", "t", "y":
		return true, true
	case "false", "no", "0", "f", "n":
		return false, true
	}
	return false, false
}

// parseDebug parses the comma-separated debug flag list. Unknown flags
// never fail the request; they come back as warnings instead.
func parseDebug(value string) (params.Debug, []string) {
	var d params.Debug
	var warnings []string
	for _, flag := range splitCSV(value) {
		switch flag {
		case "disable_popularity":
			d.DisablePopularity = true
		case "disable_synonyms":
			d.DisableSynonyms = true
		case "disable_best_bets":
			d.DisableBestBets = true
		case "disable_boosting":
			d.DisableBoosting = true
		case "use_id_codes":
			d.UseIDCodes = true
		case "show_query":
			d.ShowQuery = true
		default:
			warnings = append(warnings, "unknown debug option "+strconv.Quote(flag))
		}
	}
	return d, warnings
}

// parseABTests parses "test:variant" pairs from a comma-separated list.
func parseABTests(value string) map[string]string {
	tests := map[string]string{}
	for _, pair := range splitCSV(value) {
		if name, variant, found := strings.Cut(pair, ":"); found {
			tests[name] = variant
		}
	}
	return tests
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
