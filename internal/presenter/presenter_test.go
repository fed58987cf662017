package presenter

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alphagov/rummager/internal/domain/search/params"
	"github.com/alphagov/rummager/internal/engine"
	"github.com/alphagov/rummager/internal/registry"
)

type fakeFetcher struct {
	docs map[string][]map[string]any
}

func (f *fakeFetcher) DocumentsByFormat(_ context.Context, format string, _ []string) ([]map[string]any, error) {
	return f.docs[format], nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func testRegistries() *registry.Registries {
	fetcher := &fakeFetcher{docs: map[string][]map[string]any{
		"organisation": {
			{"slug": "hm-treasury", "link": "/government/organisations/hm-treasury", "title": "HM Treasury", "acronym": "HMT"},
		},
	}}
	return registry.NewRegistries(fetcher, fixedClock{now: time.Unix(0, 0)}, time.Hour, zap.NewNop())
}

func hit(fields map[string]any) engine.Hit {
	return engine.Hit{Index: "mainstream", ID: "/a", Score: 1.5, Fields: fields}
}

func response(hits ...engine.Hit) *engine.RawResponse {
	return &engine.RawResponse{Hits: engine.HitsEnvelope{Total: len(hits), Hits: hits}}
}

func TestPresentBasicShape(t *testing.T) {
	p := params.New(params.Options{Query: "vat", Start: 10})
	body := Present(context.Background(), response(hit(map[string]any{"title": "VAT"})), p, testRegistries(), nil, nil)

	if body["total"] != 1 {
		t.Errorf("total = %v", body["total"])
	}
	if body["start"] != 10 {
		t.Errorf("start = %v", body["start"])
	}
	results := body["results"].([]map[string]any)
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0]["title"] != "VAT" {
		t.Errorf("title = %v", results[0]["title"])
	}
	if _, ok := body["elasticsearch_query"]; ok {
		t.Error("payload should not be echoed without show_query")
	}
}

func TestPresentShowQueryEchoesPayload(t *testing.T) {
	p := params.New(params.Options{Query: "vat", Debug: params.Debug{ShowQuery: true}})
	payload := map[string]any{"query": "x"}
	body := Present(context.Background(), response(), p, testRegistries(), nil, payload)

	if body["elasticsearch_query"] == nil {
		t.Error("show_query should echo the payload")
	}
}

func TestPresentWarnings(t *testing.T) {
	p := params.New(params.Options{Query: "vat", Warnings: []string{"unknown debug option \"turbo\""}})
	body := Present(context.Background(), response(), p, testRegistries(), nil, nil)

	warnings, ok := body["warnings"].([]string)
	if !ok || len(warnings) != 1 {
		t.Errorf("warnings = %v", body["warnings"])
	}
}

func TestPresentHighlightedTitleFragment(t *testing.T) {
	h := hit(map[string]any{"title": "VAT rates"})
	h.Highlight = map[string][]string{"title": {"<em>VAT</em> rates"}}

	p := params.New(params.Options{Query: "vat", ReturnFields: []string{"title_with_highlighting"}})
	body := Present(context.Background(), response(h), p, testRegistries(), nil, nil)

	results := body["results"].([]map[string]any)
	if results[0]["title_with_highlighting"] != "<em>VAT</em> rates" {
		t.Errorf("highlighted title = %v", results[0]["title_with_highlighting"])
	}
}

func TestPresentHighlightedTitleEscapesRawFallback(t *testing.T) {
	h := hit(map[string]any{"title": `Fish & "chips"`})

	p := params.New(params.Options{Query: "fish", ReturnFields: []string{"title_with_highlighting"}})
	body := Present(context.Background(), response(h), p, testRegistries(), nil, nil)

	results := body["results"].([]map[string]any)
	got, _ := results[0]["title_with_highlighting"].(string)
	if strings.ContainsAny(got, `<>`) || strings.Contains(got, `"`) {
		t.Errorf("fallback title should be escaped, got %q", got)
	}
	if !strings.Contains(got, "&amp;") {
		t.Errorf("ampersand should be escaped, got %q", got)
	}
}

func TestPresentFormats(t *testing.T) {
	h := hit(map[string]any{"title": "X", "format": "smart_answer"})

	p := params.New(params.Options{Query: "x"})
	body := Present(context.Background(), response(h), p, testRegistries(), nil, nil)

	result := body["results"].([]map[string]any)[0]
	if result["document_type"] != "answer" {
		t.Errorf("document_type = %v", result["document_type"])
	}
	if result["humanized_format"] != "Quick answers" {
		t.Errorf("humanized_format = %v", result["humanized_format"])
	}
}

func TestPresentExpandsEntities(t *testing.T) {
	h := hit(map[string]any{
		"title":         "X",
		"organisations": []any{"hm-treasury", "unknown-org"},
	})

	p := params.New(params.Options{Query: "x"})
	body := Present(context.Background(), response(h), p, testRegistries(), nil, nil)

	orgs := body["results"].([]map[string]any)[0]["organisations"].([]any)
	expanded, ok := orgs[0].(map[string]any)
	if !ok {
		t.Fatalf("known slug should expand, got %#v", orgs[0])
	}
	if expanded["acronym"] != "HMT" {
		t.Errorf("acronym = %v", expanded["acronym"])
	}
	if orgs[1] != "unknown-org" {
		t.Errorf("unknown slug should stay bare, got %#v", orgs[1])
	}
}

func TestPresentFacets(t *testing.T) {
	resp := response()
	resp.Aggregations = map[string]engine.AggregationResult{
		"organisations": {Buckets: []engine.Bucket{
			{Key: "hm-treasury", DocCount: 5},
			{Key: "cabinet-office", DocCount: 3},
			{Key: "home-office", DocCount: 1},
		}},
	}

	p := params.New(params.Options{
		Query:      "x",
		Aggregates: []params.Aggregate{{Field: "organisations", Limit: 2, ExampleCount: 1}},
	})
	examples := AggregateExamples{
		"organisations": {
			"hm-treasury": {Total: 5, Examples: []map[string]any{{"link": "/vat"}}},
		},
	}
	body := Present(context.Background(), resp, p, testRegistries(), examples, nil)

	facets := body["facets"].(map[string]any)
	org := facets["organisations"].(map[string]any)
	options := org["options"].([]map[string]any)
	if len(options) != 2 {
		t.Fatalf("options = %d, want 2", len(options))
	}
	if org["total_options"] != 3 || org["missing_options"] != 1 {
		t.Errorf("total/missing = %v/%v", org["total_options"], org["missing_options"])
	}

	value := options[0]["value"].(map[string]any)
	if value["title"] != "HM Treasury" {
		t.Errorf("registry expansion missing: %#v", value)
	}
	info, ok := value["example_info"].(map[string]any)
	if !ok || info["total"] != 5 {
		t.Errorf("example_info = %#v", value["example_info"])
	}
	if options[0]["documents"] != 5 {
		t.Errorf("documents = %v", options[0]["documents"])
	}
}

func TestSuggestedQueries(t *testing.T) {
	suggest := map[string][]engine.SuggestedTerm{
		"spelling_suggestions": {
			{Text: "chancelor", Options: []engine.SuggestOption{
				{Text: "chancellor", Score: 0.9},
				{Text: "cancel", Score: 0.3},
			}},
		},
	}

	got := suggestedQueries(suggest)
	if len(got) != 1 || got[0] != "chancellor" {
		t.Errorf("suggestedQueries = %v", got)
	}
}

func TestSuggestedQueriesOrderedByScore(t *testing.T) {
	suggest := map[string][]engine.SuggestedTerm{
		"spelling_suggestions": {
			{Text: "a", Options: []engine.SuggestOption{{Text: "low", Score: 0.2}}},
			{Text: "b", Options: []engine.SuggestOption{{Text: "high", Score: 0.8}}},
		},
	}

	got := suggestedQueries(suggest)
	if len(got) != 2 || got[0] != "high" || got[1] != "low" {
		t.Errorf("suggestedQueries = %v", got)
	}
}

func TestSuggestedQueriesEmpty(t *testing.T) {
	if got := suggestedQueries(nil); len(got) != 0 {
		t.Errorf("suggestedQueries(nil) = %v", got)
	}
}
