package params

import (
	"regexp"
	"strings"
)

// Pagination limits.
const (
	DefaultCount = 10
	MaxCount     = 1000
)

// ExampleScope controls which result universe illustrates an aggregate bucket.
type ExampleScope string

// Example scopes.
const (
	// ExampleScopeGlobal fetches bucket examples from the whole index.
	ExampleScopeGlobal ExampleScope = "global"
	// ExampleScopeQuery fetches bucket examples restricted to the current query.
	ExampleScopeQuery ExampleScope = "query"
)

// Aggregate is a request for a count-per-value breakdown over a field.
type Aggregate struct {
	Field         string
	Limit         int
	ExampleCount  int
	ExampleScope  ExampleScope
	ExampleFields []string
}

// Filter restricts results on one field. Exactly one of Values,
// (Before, After) or Boolean is populated, depending on the field type.
type Filter struct {
	Field   string
	Values  []string
	Before  string
	After   string
	Boolean *bool
}

// IsRange reports whether the filter carries date bounds.
func (f Filter) IsRange() bool { return f.Before != "" || f.After != "" }

// Debug holds the per-request debug switches.
type Debug struct {
	DisablePopularity bool
	DisableSynonyms   bool
	DisableBestBets   bool
	DisableBoosting   bool
	UseIDCodes        bool
	ShowQuery         bool
}

// Options carries the already-validated inputs for a QueryParameters value.
type Options struct {
	Query        string
	SimilarTo    string
	Order        string
	Start        int
	Count        int
	ReturnFields []string
	Aggregates   []Aggregate
	Filters      []Filter
	Debug        Debug
	Warnings     []string
	Suggest      []string
	ABTests      map[string]string
}

// starts and ends with quotes with no quotes in between, with or without
// leading or trailing whitespace
var quotedStringRegex = regexp.MustCompile(`^\s*"[^"]+"\s*$`)

// QueryParameters is a value object holding one parsed search request.
// Read-only for the remainder of the request.
type QueryParameters struct {
	opts         Options
	quotedPhrase bool
}

// New builds a QueryParameters from validated input. The quoted-phrase
// flag is computed once here. An explicit zero count is preserved (a
// hits-free query); only a negative count falls back to the default.
func New(opts Options) QueryParameters {
	if opts.Count < 0 {
		opts.Count = DefaultCount
	}
	if opts.ABTests == nil {
		opts.ABTests = map[string]string{}
	}
	return QueryParameters{
		opts:         opts,
		quotedPhrase: quotedStringRegex.MatchString(opts.Query),
	}
}

// Query returns the free-text query string.
func (p QueryParameters) Query() string { return p.opts.Query }

// SimilarTo returns the "similar to" document reference, if any.
func (p QueryParameters) SimilarTo() string { return p.opts.SimilarTo }

// Order returns the requested sort order ("" means relevance).
func (p QueryParameters) Order() string { return p.opts.Order }

// Start returns the pagination offset.
func (p QueryParameters) Start() int { return p.opts.Start }

// Count returns the page size.
func (p QueryParameters) Count() int { return p.opts.Count }

// ReturnFields returns the requested result fields.
func (p QueryParameters) ReturnFields() []string { return p.opts.ReturnFields }

// Aggregates returns the requested aggregates.
func (p QueryParameters) Aggregates() []Aggregate { return p.opts.Aggregates }

// Filters returns the active filters.
func (p QueryParameters) Filters() []Filter { return p.opts.Filters }

// Debug returns the debug switches.
func (p QueryParameters) Debug() Debug { return p.opts.Debug }

// Warnings returns non-fatal notes collected while parsing the request.
func (p QueryParameters) Warnings() []string { return p.opts.Warnings }

// QuotedSearchPhrase reports whether the trimmed query is wrapped in a
// single pair of double quotes with no embedded quotes.
func (p QueryParameters) QuotedSearchPhrase() bool { return p.quotedPhrase }

// FieldRequested reports whether the named return field was requested.
func (p QueryParameters) FieldRequested(name string) bool {
	for _, f := range p.opts.ReturnFields {
		if f == name {
			return true
		}
	}
	return false
}

// SuggestSpelling reports whether spelling suggestions were requested.
func (p QueryParameters) SuggestSpelling() bool {
	if p.opts.Query == "" {
		return false
	}
	for _, s := range p.opts.Suggest {
		if s == "spelling" {
			return true
		}
	}
	return false
}

// ABVariant returns the active variant for the named A/B test.
func (p QueryParameters) ABVariant(test string) string {
	return p.opts.ABTests[test]
}

// PhraseText returns the query with surrounding quotes and whitespace
// stripped, for use in phrase matches.
func (p QueryParameters) PhraseText() string {
	q := strings.TrimSpace(p.opts.Query)
	if p.quotedPhrase {
		q = strings.Trim(q, `"`)
	}
	return q
}
