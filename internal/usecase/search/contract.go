package search

import (
	"context"

	"github.com/alphagov/rummager/internal/bets"
	"github.com/alphagov/rummager/internal/engine"
)

// Engine is the query surface of the content index.
type Engine interface {
	RawSearch(ctx context.Context, payload map[string]any, docType string) (*engine.RawResponse, error)
	MultiSearch(ctx context.Context, payloads []map[string]any) ([]engine.RawResponse, error)
}

// SpellChecker runs suggestion-only queries against the spelling index.
type SpellChecker interface {
	RawSearch(ctx context.Context, payload map[string]any, docType string) (*engine.RawResponse, error)
}

// BetFetcher resolves curated best/worst bets for a query.
type BetFetcher interface {
	Fetch(ctx context.Context, queryText string) (bets.Result, error)
}
