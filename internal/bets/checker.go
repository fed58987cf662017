// Package bets resolves editorial result overrides: best bets pin links
// to the top of results for a query, worst bets suppress links entirely.
// Bet records live in the metasearch index as ordinary documents keyed by
// literal query string and match mode.
package bets

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/alphagov/rummager/internal/engine"
)

// betDocumentType is the engine document type holding bet records.
const betDocumentType = "best_bet"

// betFetchSize bounds how many bet records one query can match.
const betFetchSize = 1000

// Bet pins one link at a position.
type Bet struct {
	Link     string
	Position int
}

// Result is the set of overrides applying to one query.
type Result struct {
	Best  []Bet
	Worst []string
}

// IsZero reports whether no overrides apply.
func (r Result) IsZero() bool { return len(r.Best) == 0 && len(r.Worst) == 0 }

// Searcher is the metasearch-index dependency.
type Searcher interface {
	RawSearch(ctx context.Context, payload map[string]any, docType string) (*engine.RawResponse, error)
}

// Checker looks up bets for a query string.
type Checker struct {
	metasearch Searcher
}

// NewChecker creates a bet checker over the metasearch index.
func NewChecker(metasearch Searcher) *Checker {
	return &Checker{metasearch: metasearch}
}

// Fetch returns the overrides for a query. Exact-match bets take
// precedence over stemmed bets; a stemmed bet applies only when its
// stemmed token sequence occurs contiguously and in order within the
// query's stemmed tokens.
func (c *Checker) Fetch(ctx context.Context, queryText string) (Result, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return Result{}, nil
	}

	resp, err := c.metasearch.RawSearch(ctx, c.lookupPayload(queryText), betDocumentType)
	if err != nil {
		return Result{}, fmt.Errorf("fetch bets: %w", err)
	}

	queryStems := stemPhrase(queryText)

	var exact, stemmed []betRecord
	for _, hit := range resp.Hits.Hits {
		record, err := parseBetRecord(hit)
		if err != nil {
			return Result{}, err
		}
		switch {
		case record.exactQuery == queryText:
			exact = append(exact, record)
		case record.exactQuery != "":
			// An exact bet for a different literal query; the engine
			// matched it loosely, skip it.
		case containsPhrase(queryStems, stemPhrase(record.stemmedQuery)):
			stemmed = append(stemmed, record)
		}
	}

	if len(exact) > 0 {
		return combine(exact), nil
	}
	return combine(stemmed), nil
}

func (c *Checker) lookupPayload(queryText string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should": []map[string]any{
					{"term": map[string]any{"exact_query": queryText}},
					{"match": map[string]any{"stemmed_query": queryText}},
				},
			},
		},
		"size":   betFetchSize,
		"fields": []string{"exact_query", "stemmed_query", "details"},
	}
}

type betRecord struct {
	exactQuery   string
	stemmedQuery string
	details      betDetails
}

type betDetails struct {
	BestBets []struct {
		Link     string `json:"link"`
		Position int    `json:"position"`
	} `json:"best_bets"`
	WorstBets []struct {
		Link string `json:"link"`
	} `json:"worst_bets"`
}

func parseBetRecord(hit engine.Hit) (betRecord, error) {
	data := hit.FieldData()

	record := betRecord{
		exactQuery:   stringField(data, "exact_query"),
		stemmedQuery: stringField(data, "stemmed_query"),
	}

	raw := stringField(data, "details")
	if raw == "" {
		return record, nil
	}
	if err := json.Unmarshal([]byte(raw), &record.details); err != nil {
		return betRecord{}, fmt.Errorf("parse bet details for %q: %w", hit.ID, err)
	}
	return record, nil
}

// combine merges overrides from several bet records: best bets dedupe by
// link keeping the best (lowest) position, worst bets union.
func combine(records []betRecord) Result {
	bestByLink := map[string]int{}
	worst := map[string]bool{}
	for _, r := range records {
		for _, b := range r.details.BestBets {
			if pos, seen := bestByLink[b.Link]; !seen || b.Position < pos {
				bestByLink[b.Link] = b.Position
			}
		}
		for _, w := range r.details.WorstBets {
			worst[w.Link] = true
		}
	}

	result := Result{}
	for link, pos := range bestByLink {
		result.Best = append(result.Best, Bet{Link: link, Position: pos})
	}
	sort.Slice(result.Best, func(i, j int) bool {
		if result.Best[i].Position != result.Best[j].Position {
			return result.Best[i].Position < result.Best[j].Position
		}
		return result.Best[i].Link < result.Best[j].Link
	})
	for link := range worst {
		result.Worst = append(result.Worst, link)
	}
	sort.Strings(result.Worst)
	return result
}

// stringField unwraps a possibly sequence-encoded field value.
func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
