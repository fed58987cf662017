package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alphagov/rummager/internal/bets"
	"github.com/alphagov/rummager/internal/domain"
	"github.com/alphagov/rummager/internal/domain/search/params"
	"github.com/alphagov/rummager/internal/engine"
	"github.com/alphagov/rummager/internal/query"
	"github.com/alphagov/rummager/internal/registry"
)

// --- Mocks ---

type mockEngine struct {
	searchResp   *engine.RawResponse
	searchErr    error
	multiResp    []engine.RawResponse
	multiErr     error
	lastPayload  map[string]any
	lastDocType  string
	lastPayloads []map[string]any
}

func (m *mockEngine) RawSearch(_ context.Context, payload map[string]any, docType string) (*engine.RawResponse, error) {
	m.lastPayload = payload
	m.lastDocType = docType
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResp == nil {
		return &engine.RawResponse{}, nil
	}
	return m.searchResp, nil
}

func (m *mockEngine) MultiSearch(_ context.Context, payloads []map[string]any) ([]engine.RawResponse, error) {
	m.lastPayloads = payloads
	return m.multiResp, m.multiErr
}

type mockBets struct {
	result    bets.Result
	err       error
	called    bool
	lastQuery string
}

func (m *mockBets) Fetch(_ context.Context, queryText string) (bets.Result, error) {
	m.called = true
	m.lastQuery = queryText
	return m.result, m.err
}

type mockFetcher struct{}

func (mockFetcher) DocumentsByFormat(_ context.Context, _ string, _ []string) ([]map[string]any, error) {
	return nil, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestService(content *mockEngine, spelling *mockEngine, betFetcher *mockBets) *Service {
	registries := registry.NewRegistries(mockFetcher{}, fixedClock{now: time.Unix(0, 0)}, time.Hour, zap.NewNop())
	builder := query.NewBuilder(query.BoostConfig{}).WithClock(fixedClock{now: time.Unix(0, 0)})
	return New(content, spelling, betFetcher, builder, registries, []string{"sorn"})
}

func emptyResponse() *engine.RawResponse {
	return &engine.RawResponse{Hits: engine.HitsEnvelope{Total: 0, Hits: []engine.Hit{}}}
}

// --- Tests ---

func TestRunBasicSearch(t *testing.T) {
	content := &mockEngine{searchResp: emptyResponse()}
	betFetcher := &mockBets{}
	svc := newTestService(content, &mockEngine{}, betFetcher)

	body, err := svc.Run(context.Background(), params.New(params.Options{Query: "vat"}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if body["total"] != 0 {
		t.Errorf("total = %v", body["total"])
	}
	if !betFetcher.called {
		t.Error("bets should be fetched by default")
	}
	if betFetcher.lastQuery != "vat" {
		t.Errorf("bet query = %q", betFetcher.lastQuery)
	}
	if content.lastPayload == nil {
		t.Fatal("content engine should be queried")
	}
}

func TestRunDisableBestBetsSkipsFetch(t *testing.T) {
	content := &mockEngine{searchResp: emptyResponse()}
	betFetcher := &mockBets{}
	svc := newTestService(content, &mockEngine{}, betFetcher)

	_, err := svc.Run(context.Background(), params.New(params.Options{
		Query: "vat",
		Debug: params.Debug{DisableBestBets: true},
	}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if betFetcher.called {
		t.Error("bets fetch should be skipped when disabled")
	}
}

func TestRunBetsErrorPropagates(t *testing.T) {
	content := &mockEngine{searchResp: emptyResponse()}
	betFetcher := &mockBets{err: errors.New("metasearch down")}
	svc := newTestService(content, &mockEngine{}, betFetcher)

	if _, err := svc.Run(context.Background(), params.New(params.Options{Query: "vat"})); err == nil {
		t.Error("bet fetch failure should fail the search")
	}
}

func TestRunSearchErrorPropagates(t *testing.T) {
	content := &mockEngine{searchErr: domain.ErrEngineUnavailable}
	svc := newTestService(content, &mockEngine{}, &mockBets{})

	_, err := svc.Run(context.Background(), params.New(params.Options{Query: "vat"}))
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestRunFetchesAggregateExamples(t *testing.T) {
	resp := emptyResponse()
	resp.Aggregations = map[string]engine.AggregationResult{
		"organisations": {Buckets: []engine.Bucket{
			{Key: "hm-treasury", DocCount: 5},
			{Key: "cabinet-office", DocCount: 3},
		}},
	}
	content := &mockEngine{
		searchResp: resp,
		multiResp: []engine.RawResponse{
			{Hits: engine.HitsEnvelope{Total: 5, Hits: []engine.Hit{{Fields: map[string]any{"link": "/vat"}}}}},
			{Hits: engine.HitsEnvelope{Total: 3, Hits: []engine.Hit{}}},
		},
	}
	svc := newTestService(content, &mockEngine{}, &mockBets{})

	body, err := svc.Run(context.Background(), params.New(params.Options{
		Query: "vat",
		Aggregates: []params.Aggregate{{
			Field: "organisations", Limit: 10, ExampleCount: 1,
			ExampleScope: params.ExampleScopeGlobal,
		}},
	}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(content.lastPayloads) != 2 {
		t.Fatalf("expected one example query per bucket, got %d", len(content.lastPayloads))
	}

	facets := body["facets"].(map[string]any)
	options := facets["organisations"].(map[string]any)["options"].([]map[string]any)
	value := options[0]["value"].(map[string]any)
	if _, ok := value["example_info"]; !ok {
		t.Errorf("example_info missing: %#v", value)
	}
}

func TestRunNoExamplesRequested(t *testing.T) {
	resp := emptyResponse()
	resp.Aggregations = map[string]engine.AggregationResult{
		"organisations": {Buckets: []engine.Bucket{{Key: "hm-treasury", DocCount: 5}}},
	}
	content := &mockEngine{searchResp: resp}
	svc := newTestService(content, &mockEngine{}, &mockBets{})

	_, err := svc.Run(context.Background(), params.New(params.Options{
		Query:      "vat",
		Aggregates: []params.Aggregate{{Field: "organisations", Limit: 10}},
	}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if content.lastPayloads != nil {
		t.Error("no example queries should be issued without an example count")
	}
}

func TestRunSpellCheck(t *testing.T) {
	content := &mockEngine{searchResp: emptyResponse()}
	spelling := &mockEngine{searchResp: &engine.RawResponse{
		Suggest: map[string][]engine.SuggestedTerm{
			query.SpellingSuggestionsKey: {
				{Text: "chancelor", Options: []engine.SuggestOption{{Text: "chancellor", Score: 0.9}}},
			},
		},
	}}
	svc := newTestService(content, spelling, &mockBets{})

	body, err := svc.Run(context.Background(), params.New(params.Options{
		Query:   "chancelor",
		Suggest: []string{"spelling"},
	}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	suggested, ok := body["suggested_queries"].([]string)
	if !ok || len(suggested) != 1 || suggested[0] != "chancellor" {
		t.Errorf("suggested_queries = %v", body["suggested_queries"])
	}
	if spelling.lastPayload["size"] != 0 {
		t.Errorf("spell check should request no hits, size = %v", spelling.lastPayload["size"])
	}
}

func TestRunSpellCheckBlacklist(t *testing.T) {
	cases := []string{"sorn", "SORN", "form p45"}
	for _, queryText := range cases {
		content := &mockEngine{searchResp: emptyResponse()}
		spelling := &mockEngine{}
		svc := newTestService(content, spelling, &mockBets{})

		_, err := svc.Run(context.Background(), params.New(params.Options{
			Query:   queryText,
			Suggest: []string{"spelling"},
		}))
		if err != nil {
			t.Fatalf("Run(%q): %v", queryText, err)
		}
		if spelling.lastPayload != nil {
			t.Errorf("query %q should not be spell checked", queryText)
		}
	}
}

func TestRunSpellCheckFailureDegrades(t *testing.T) {
	content := &mockEngine{searchResp: emptyResponse()}
	spelling := &mockEngine{searchErr: errors.New("spelling index down")}
	svc := newTestService(content, spelling, &mockBets{})

	body, err := svc.Run(context.Background(), params.New(params.Options{
		Query:   "chancelor",
		Suggest: []string{"spelling"},
	}))
	if err != nil {
		t.Fatalf("spell check failure must not fail the search: %v", err)
	}
	if suggested, ok := body["suggested_queries"].([]string); ok && len(suggested) > 0 {
		t.Errorf("no suggestions expected, got %v", suggested)
	}
}

func TestRunShowQueryEchoesPayload(t *testing.T) {
	content := &mockEngine{searchResp: emptyResponse()}
	svc := newTestService(content, &mockEngine{}, &mockBets{})

	body, err := svc.Run(context.Background(), params.New(params.Options{
		Query: "vat",
		Debug: params.Debug{ShowQuery: true},
	}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if body["elasticsearch_query"] == nil {
		t.Error("show_query should echo the payload")
	}
}
