package engine

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alphagov/rummager/internal/domain"
)

type recordedRequest struct {
	method      string
	path        string
	rawQuery    string
	contentType string
	body        string
}

func newTestClient(t *testing.T, status int, response string) (*Client, *recordedRequest) {
	t.Helper()
	last := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*last = recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			rawQuery:    r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, Index: "mainstream"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, last
}

func TestRawSearchPath(t *testing.T) {
	client, last := newTestClient(t, http.StatusOK, `{"hits":{"total":1,"hits":[{"_id":"/a"}]}}`)

	resp, err := client.RawSearch(context.Background(), map[string]any{"query": "x"}, "")
	if err != nil {
		t.Fatalf("RawSearch: %v", err)
	}
	if last.path != "/mainstream/_search" {
		t.Errorf("path = %q", last.path)
	}
	if resp.Hits.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Hits.Total)
	}
}

func TestRawSearchWithDocType(t *testing.T) {
	client, last := newTestClient(t, http.StatusOK, `{"hits":{"total":0,"hits":[]}}`)

	if _, err := client.RawSearch(context.Background(), map[string]any{}, "best_bet"); err != nil {
		t.Fatalf("RawSearch: %v", err)
	}
	if last.path != "/mainstream/best_bet/_search" {
		t.Errorf("path = %q", last.path)
	}
}

func TestMultiSearchNDJSON(t *testing.T) {
	client, last := newTestClient(t, http.StatusOK,
		`{"responses":[{"hits":{"total":0,"hits":[]}},{"hits":{"total":2,"hits":[]}}]}`)

	responses, err := client.MultiSearch(context.Background(), []map[string]any{
		{"size": 1}, {"size": 2},
	})
	if err != nil {
		t.Fatalf("MultiSearch: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(responses))
	}
	if last.contentType != "application/x-ndjson" {
		t.Errorf("content type = %q", last.contentType)
	}
	lines := strings.Split(strings.TrimSuffix(last.body, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 ndjson lines, got %d: %q", len(lines), last.body)
	}
	if lines[0] != "{}" || lines[2] != "{}" {
		t.Errorf("header lines should be empty objects: %q", last.body)
	}
	if !strings.HasSuffix(last.body, "\n") {
		t.Error("ndjson body must end with a newline")
	}
}

func TestMultiSearchResponseCountMismatch(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `{"responses":[{"hits":{"total":0,"hits":[]}}]}`)

	if _, err := client.MultiSearch(context.Background(), []map[string]any{{}, {}}); err == nil {
		t.Error("mismatched response count should fail")
	}
}

func TestBulkIndexPayloadShape(t *testing.T) {
	client, last := newTestClient(t, http.StatusOK, `{"items":[{"index":{"_id":"/a"}}]}`)

	err := client.BulkIndex(context.Background(), []map[string]any{
		{"_type": "edition", "link": "/a", "title": "A"},
	})
	if err != nil {
		t.Fatalf("BulkIndex: %v", err)
	}
	if last.path != "/mainstream/_bulk" {
		t.Errorf("path = %q", last.path)
	}
	if !strings.HasSuffix(last.body, "\n") {
		t.Error("bulk body must end with a newline")
	}
	lines := strings.Split(strings.TrimSuffix(last.body, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected action+source lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"_id":"/a"`) {
		t.Errorf("action line = %q", lines[0])
	}
	if strings.Contains(lines[1], "_type") {
		t.Errorf("source line should not carry _type: %q", lines[1])
	}
}

func TestBulkIndexCollectsFailures(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK,
		`{"items":[{"index":{"_id":"/a"}},{"index":{"_id":"/b","error":"boom"}}]}`)

	err := client.BulkIndex(context.Background(), []map[string]any{
		{"_type": "edition", "link": "/a"},
		{"_type": "edition", "link": "/b"},
	})
	var bulkErr *domain.BulkIndexError
	if !errors.As(err, &bulkErr) {
		t.Fatalf("expected BulkIndexError, got %v", err)
	}
	if len(bulkErr.FailedIDs) != 1 || bulkErr.FailedIDs[0] != "/b" {
		t.Errorf("FailedIDs = %v", bulkErr.FailedIDs)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `{"hits":{"total":0,"hits":[]}}`)

	_, err := client.GetDocument(context.Background(), "/missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestGetDocumentInjectsType(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK,
		`{"hits":{"total":1,"hits":[{"_type":"edition","_source":{"link":"/a"}}]}}`)

	doc, err := client.GetDocument(context.Background(), "/a")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc["_type"] != "edition" {
		t.Errorf("_type = %v", doc["_type"])
	}
}

func TestDeleteByLinkEscapesQuery(t *testing.T) {
	client, last := newTestClient(t, http.StatusOK, `{}`)

	if err := client.DeleteByLink(context.Background(), "/a-page"); err != nil {
		t.Fatalf("DeleteByLink: %v", err)
	}
	if last.method != http.MethodDelete {
		t.Errorf("method = %q", last.method)
	}
	if last.path != "/mainstream/_query" {
		t.Errorf("path = %q", last.path)
	}
	if !strings.Contains(last.rawQuery, "q=") {
		t.Errorf("query = %q", last.rawQuery)
	}
}

func TestErrorMappingNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.StatusNotFound, `{"error":"missing"}`)

	_, err := client.RawSearch(context.Background(), map[string]any{}, "")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestErrorMappingIndexLocked(t *testing.T) {
	client, _ := newTestClient(t, http.StatusInternalServerError, `{"error":"index is locked"}`)

	_, err := client.RawSearch(context.Background(), map[string]any{}, "")
	if !errors.Is(err, domain.ErrIndexLocked) {
		t.Errorf("expected ErrIndexLocked, got %v", err)
	}
}

func TestErrorMappingNumberOutOfRange(t *testing.T) {
	client, _ := newTestClient(t, http.StatusInternalServerError,
		`{"error":"NumberFormatException[Numeric value (10000000000000) out of range of int]"}`)

	_, err := client.RawSearch(context.Background(), map[string]any{}, "")
	var oor *domain.NumberOutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected NumberOutOfRangeError, got %v", err)
	}
	if oor.Value != "10000000000000" {
		t.Errorf("Value = %q", oor.Value)
	}
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Error("should unwrap to ErrInvalidQuery")
	}
}

func TestErrorMappingMaxClauseCount(t *testing.T) {
	client, _ := newTestClient(t, http.StatusInternalServerError,
		`{"error":"TooManyClauses[maxClauseCount is set to 1024]"}`)

	_, err := client.RawSearch(context.Background(), map[string]any{}, "")
	var tooLong *domain.QueryTooLongError
	if !errors.As(err, &tooLong) {
		t.Fatalf("expected QueryTooLongError, got %v", err)
	}
	if tooLong.MaxClauses != 1024 {
		t.Errorf("MaxClauses = %d", tooLong.MaxClauses)
	}
}

func TestErrorMappingOtherStatus(t *testing.T) {
	client, _ := newTestClient(t, http.StatusBadGateway, `{"error":"oops"}`)

	_, err := client.RawSearch(context.Background(), map[string]any{}, "")
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestTransportFailure(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://127.0.0.1:1", Index: "mainstream"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.RawSearch(context.Background(), map[string]any{}, "")
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}
