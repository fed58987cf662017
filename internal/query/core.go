package query

import (
	"github.com/alphagov/rummager/internal/domain/search/params"
)

// Analyzers for the combined full-text field.
const (
	defaultQueryAnalyzer                = "query_with_old_synonyms"
	defaultQueryAnalyzerWithoutSynonyms = "default"
	shingledQueryAnalyzer               = "shingled_query_analyzer"
)

// matchField is one weighted text field for the core clause.
type matchField struct {
	name  string
	boost float64
}

// Weighted fields for text matching. Acronym weighting keeps
// organisations ranking well for their abbreviation.
var matchFields = []matchField{
	{"title", 5},
	{"acronym", 5},
	{"description", 2},
	{"indexable_content", 1},
}

// The minimum-should-match specification produces these requirements:
//
//	optional clauses | required
//	1-2              | all
//	3                | 2
//	4-7              | 3
//	8+               | 50%
//
// A clause of the form "N<M" means when there are MORE than N clauses
// then M clauses should match.
const (
	minimumShouldMatch         = "2<2 3<3 7<50%"
	minimumShouldMatchVariantB = "2<2"
)

// coreQuery builds the text-match clause for the query string.
func coreQuery(p params.QueryParameters) map[string]any {
	if p.QuotedSearchPhrase() {
		return quotedPhraseQuery(p)
	}
	return unquotedQuery(p)
}

// quotedPhraseQuery takes the highest weight found by looking for a
// phrase match in the individual fields.
func quotedPhraseQuery(p params.QueryParameters) map[string]any {
	queries := make([]map[string]any, 0, len(matchFields))
	for _, f := range matchFields {
		queries = append(queries, matchQuery(f.name+".no_stop", p.PhraseText(), matchOpts{
			matchType: "phrase",
			boost:     f.boost,
		}))
	}
	return disMax(queries, 0, 1)
}

func unquotedQuery(p params.QueryParameters) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"must":   mustConditions(p),
			"should": shouldConditions(p),
		},
	}
}

func mustConditions(p params.QueryParameters) []map[string]any {
	if p.Debug().UseIDCodes {
		return []map[string]any{allSearchableTextQuery(p)}
	}
	return []map[string]any{queryStringQuery(p)}
}

// allSearchableTextQuery returns the highest weight obtained by searching
// for the text when analyzed in different ways (with a small bonus if it
// matches in multiple of these ways).
func allSearchableTextQuery(p params.QueryParameters) map[string]any {
	queries := []map[string]any{
		queryStringQuery(p),
		matchQuery("all_searchable_text.id_codes", p.PhraseText(), matchOpts{
			minimumShouldMatch: "1",
		}),
	}
	return disMax(queries, 0.1, 1)
}

func queryStringQuery(p params.QueryParameters) map[string]any {
	return map[string]any{
		"match": map[string]any{
			"_all": map[string]any{
				"query":                escape(p.PhraseText()),
				"analyzer":             queryAnalyzer(p),
				"minimum_should_match": minimumShouldMatchFor(p),
			},
		},
	}
}

func minimumShouldMatchFor(p params.QueryParameters) string {
	if p.ABVariant("search_match_length") == "B" {
		return minimumShouldMatchVariantB
	}
	return minimumShouldMatch
}

func shouldConditions(p params.QueryParameters) []map[string]any {
	conditions := exactFieldBoosts(p)
	return append(conditions, exactMatchBoost(p), shingleTokenFilterBoost(p))
}

func exactFieldBoosts(p params.QueryParameters) []map[string]any {
	boosts := make([]map[string]any, 0, len(matchFields))
	for _, f := range matchFields {
		boosts = append(boosts, map[string]any{
			"match_phrase": map[string]any{
				f.name: map[string]any{
					"query":    escape(p.PhraseText()),
					"analyzer": queryAnalyzer(p),
				},
			},
		})
	}
	return boosts
}

func exactMatchBoost(p params.QueryParameters) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":    escape(p.PhraseText()),
			"operator": "and",
			"fields":   matchFieldNames(),
			"analyzer": queryAnalyzer(p),
		},
	}
}

// shingleTokenFilterBoost gives partial-phrase credit for adjacent
// bigrams from the query.
func shingleTokenFilterBoost(p params.QueryParameters) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":    escape(p.PhraseText()),
			"operator": "or",
			"fields":   matchFieldNames(),
			"analyzer": shingledQueryAnalyzer,
		},
	}
}

func queryAnalyzer(p params.QueryParameters) string {
	if p.Debug().DisableSynonyms {
		return defaultQueryAnalyzerWithoutSynonyms
	}
	return defaultQueryAnalyzer
}

func matchFieldNames() []string {
	names := make([]string, len(matchFields))
	for i, f := range matchFields {
		names[i] = f.name
	}
	return names
}

type matchOpts struct {
	matchType          string
	boost              float64
	minimumShouldMatch string
	operator           string
}

func matchQuery(field, query string, opts matchOpts) map[string]any {
	if opts.matchType == "" {
		opts.matchType = "boolean"
	}
	if opts.boost == 0 {
		opts.boost = 1
	}
	if opts.minimumShouldMatch == "" {
		opts.minimumShouldMatch = minimumShouldMatch
	}
	if opts.operator == "" {
		opts.operator = "or"
	}
	return map[string]any{
		"match": map[string]any{
			field: map[string]any{
				"type":                 opts.matchType,
				"boost":                opts.boost,
				"query":                query,
				"minimum_should_match": opts.minimumShouldMatch,
				"operator":             opts.operator,
			},
		},
	}
}

// disMax scores by running all the queries and taking the maximum,
// adding in the other scores multiplied by tieBreaker.
func disMax(queries []map[string]any, tieBreaker, boost float64) map[string]any {
	if len(queries) == 1 {
		return queries[0]
	}
	return map[string]any{
		"dis_max": map[string]any{
			"queries":     queries,
			"tie_breaker": tieBreaker,
			"boost":       boost,
		},
	}
}
