package search

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/alphagov/rummager/internal/bets"
	"github.com/alphagov/rummager/internal/domain/search/params"
	"github.com/alphagov/rummager/internal/engine"
	"github.com/alphagov/rummager/internal/logger"
	"github.com/alphagov/rummager/internal/presenter"
	"github.com/alphagov/rummager/internal/query"
	"github.com/alphagov/rummager/internal/registry"
)

// Service runs one search request end to end: payload construction,
// engine query, aggregate example fetch, spell check, presentation.
type Service struct {
	content     Engine
	spelling    SpellChecker
	bets        BetFetcher
	builder     *query.Builder
	registries  *registry.Registries
	ignoreTerms map[string]struct{}
}

// New creates a search service. ignoreTerms lists queries that never
// receive spelling suggestions, in addition to organisation acronyms.
func New(content Engine, spelling SpellChecker, betFetcher BetFetcher, builder *query.Builder, registries *registry.Registries, ignoreTerms []string) *Service {
	ignore := make(map[string]struct{}, len(ignoreTerms))
	for _, term := range ignoreTerms {
		ignore[strings.ToLower(term)] = struct{}{}
	}
	return &Service{
		content:     content,
		spelling:    spelling,
		bets:        betFetcher,
		builder:     builder,
		registries:  registries,
		ignoreTerms: ignore,
	}
}

// Run executes a parsed search request and returns the response body.
func (s *Service) Run(ctx context.Context, p params.QueryParameters) (map[string]any, error) {
	var overrides bets.Result
	if !p.Debug().DisableBestBets && p.PhraseText() != "" {
		var err error
		overrides, err = s.bets.Fetch(ctx, p.PhraseText())
		if err != nil {
			return nil, fmt.Errorf("fetch bets: %w", err)
		}
	}

	payload := s.builder.Payload(p, overrides)

	resp, err := s.content.RawSearch(ctx, payload, "")
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	examples, err := s.fetchExamples(ctx, resp, p)
	if err != nil {
		return nil, fmt.Errorf("fetch aggregate examples: %w", err)
	}

	if p.SuggestSpelling() && s.shouldSpellCheck(ctx, p.Query()) {
		suggest, err := s.spellCheck(ctx, p.Query())
		if err != nil {
			// A broken spelling index degrades the response, it
			// must not fail the search.
			logger.FromContext(ctx).Warn("spell check failed", zap.Error(err))
		} else {
			resp.Suggest = suggest
		}
	}

	return presenter.Present(ctx, resp, p, s.registries, examples, payload), nil
}

// fetchExamples batches one example query per displayed aggregate bucket
// into a single multi-search round trip.
func (s *Service) fetchExamples(ctx context.Context, resp *engine.RawResponse, p params.QueryParameters) (presenter.AggregateExamples, error) {
	type slot struct {
		field string
		value string
	}

	var payloads []map[string]any
	var slots []slot
	for _, agg := range p.Aggregates() {
		if agg.ExampleCount <= 0 {
			continue
		}
		result, ok := resp.Aggregations[agg.Field]
		if !ok {
			continue
		}
		for i, bucket := range result.Buckets {
			if i >= agg.Limit {
				break
			}
			payloads = append(payloads, s.builder.ExampleQuery(p, agg, bucket.Key))
			slots = append(slots, slot{field: agg.Field, value: bucket.Key})
		}
	}
	if len(payloads) == 0 {
		return nil, nil
	}

	responses, err := s.content.MultiSearch(ctx, payloads)
	if err != nil {
		return nil, err
	}

	examples := make(presenter.AggregateExamples)
	for i, r := range responses {
		docs := make([]map[string]any, 0, len(r.Hits.Hits))
		for _, hit := range r.Hits.Hits {
			docs = append(docs, hit.FieldData())
		}
		byValue, ok := examples[slots[i].field]
		if !ok {
			byValue = make(map[string]presenter.ExampleInfo)
			examples[slots[i].field] = byValue
		}
		byValue[slots[i].value] = presenter.ExampleInfo{
			Total:    r.Hits.Total,
			Examples: docs,
		}
	}
	return examples, nil
}

// shouldSpellCheck reports whether a query is eligible for spelling
// suggestions. Organisation acronyms, configured ignore terms, and
// queries containing digits are never corrected.
func (s *Service) shouldSpellCheck(ctx context.Context, queryText string) bool {
	if queryText == "" {
		return false
	}
	for _, r := range queryText {
		if unicode.IsDigit(r) {
			return false
		}
	}
	lowered := strings.ToLower(queryText)
	if _, ignored := s.ignoreTerms[lowered]; ignored {
		return false
	}
	for _, acronym := range s.registries.OrganisationAcronyms(ctx) {
		if strings.EqualFold(acronym, queryText) {
			return false
		}
	}
	return true
}

// spellCheck runs a hits-free suggestion query against the spelling index.
func (s *Service) spellCheck(ctx context.Context, queryText string) (map[string][]engine.SuggestedTerm, error) {
	payload := map[string]any{
		"size":    0,
		"suggest": query.SuggestClause(queryText),
	}
	resp, err := s.spelling.RawSearch(ctx, payload, "")
	if err != nil {
		return nil, err
	}
	return resp.Suggest, nil
}
