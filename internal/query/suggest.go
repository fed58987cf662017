package query

// SpellingSuggestionsKey names the suggester in the engine payload and
// response.
const SpellingSuggestionsKey = "spelling_suggestions"

// SuggestClause builds a spelling-suggestion sub-request for the query.
func SuggestClause(queryText string) map[string]any {
	return map[string]any{
		"text": queryText,
		SpellingSuggestionsKey: map[string]any{
			"phrase": map[string]any{
				"field":      "spelling_text",
				"size":       1,
				"max_errors": 3,
				"direct_generator": []map[string]any{{
					"field":        "spelling_text",
					"suggest_mode": "missing",
					"sort":         "frequency",
				}},
			},
		},
	}
}
