package presenter

import (
	"sort"

	"github.com/alphagov/rummager/internal/engine"
	"github.com/alphagov/rummager/internal/query"
)

// suggestedQueries extracts the top spelling corrections: the
// best-scoring option per suggested term, ordered by descending
// engine-assigned score.
func suggestedQueries(suggest map[string][]engine.SuggestedTerm) []string {
	terms := suggest[query.SpellingSuggestionsKey]
	if len(terms) == 0 {
		return []string{}
	}

	type scored struct {
		text  string
		score float64
	}
	best := make([]scored, 0, len(terms))
	for _, term := range terms {
		var top *engine.SuggestOption
		for i := range term.Options {
			if top == nil || term.Options[i].Score > top.Score {
				top = &term.Options[i]
			}
		}
		if top != nil {
			best = append(best, scored{text: top.Text, score: top.Score})
		}
	}

	sort.SliceStable(best, func(i, j int) bool { return best[i].score > best[j].score })

	texts := make([]string, len(best))
	for i, s := range best {
		texts[i] = s.text
	}
	return texts
}
