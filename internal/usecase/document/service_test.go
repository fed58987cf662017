package document

import (
	"context"
	"errors"
	"testing"

	"github.com/alphagov/rummager/internal/domain"
	"github.com/alphagov/rummager/internal/domain/schema"
	"github.com/alphagov/rummager/internal/engine"
)

type mockStore struct {
	doc        map[string]any
	getErr     error
	indexErr   error
	deleteErr  error
	lastLink   string
	indexed    []map[string]any
	indexCalls int
}

func (m *mockStore) GetDocument(_ context.Context, link string) (map[string]any, error) {
	m.lastLink = link
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.doc, nil
}

func (m *mockStore) BulkIndex(_ context.Context, docs []map[string]any) error {
	m.indexCalls++
	m.indexed = docs
	return m.indexErr
}

func (m *mockStore) DeleteByLink(_ context.Context, link string) error {
	m.lastLink = link
	return m.deleteErr
}

func testSchema(t *testing.T) schema.Schema {
	t.Helper()
	var fields []schema.Field
	for _, spec := range []struct {
		name string
		kind schema.Kind
	}{
		{"link", schema.String},
		{"title", schema.String},
		{"format", schema.String},
		{"promoted_for", schema.String},
	} {
		f, err := schema.NewField(spec.name, spec.kind, false)
		if err != nil {
			t.Fatalf("NewField(%q): %v", spec.name, err)
		}
		fields = append(fields, f)
	}
	s, err := schema.New(fields)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}

func promoter() *engine.Promoter {
	return engine.NewPromoter([]engine.PromotedResult{
		{Link: "/jobsearch", Terms: []string{"job", "jobs"}},
	})
}

func TestGet(t *testing.T) {
	store := &mockStore{doc: map[string]any{"link": "/vat", "title": "VAT"}}
	svc := New(store, testSchema(t), promoter())

	doc, err := svc.Get(context.Background(), "/vat")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if store.lastLink != "/vat" {
		t.Errorf("fetched link = %q", store.lastLink)
	}
	wire := doc.ToWire()
	if wire["title"] != "VAT" {
		t.Errorf("title = %v", wire["title"])
	}
}

func TestGetNotFound(t *testing.T) {
	store := &mockStore{getErr: domain.ErrDocumentNotFound}
	svc := New(store, testSchema(t), promoter())

	_, err := svc.Get(context.Background(), "/missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestAddAppliesPromotion(t *testing.T) {
	store := &mockStore{}
	svc := New(store, testSchema(t), promoter())

	err := svc.Add(context.Background(), []map[string]any{
		{"link": "/jobsearch", "title": "Job search"},
		{"link": "/vat", "title": "VAT"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(store.indexed) != 2 {
		t.Fatalf("indexed %d documents", len(store.indexed))
	}
	if store.indexed[0]["promoted_for"] != "job jobs" {
		t.Errorf("promoted_for = %v", store.indexed[0]["promoted_for"])
	}
	if _, ok := store.indexed[1]["promoted_for"]; ok {
		t.Error("unpromoted document gained promoted_for")
	}
}

func TestAddDropsUnknownFields(t *testing.T) {
	store := &mockStore{}
	svc := New(store, testSchema(t), promoter())

	err := svc.Add(context.Background(), []map[string]any{
		{"link": "/vat", "bogus": "x"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, ok := store.indexed[0]["bogus"]; ok {
		t.Error("unknown field survived indexing")
	}
}

func TestAmend(t *testing.T) {
	store := &mockStore{doc: map[string]any{"link": "/vat", "title": "VAT"}}
	svc := New(store, testSchema(t), promoter())

	err := svc.Amend(context.Background(), "/vat", map[string]string{"title": "VAT rates"})
	if err != nil {
		t.Fatalf("Amend: %v", err)
	}
	if store.indexCalls != 1 || len(store.indexed) != 1 {
		t.Fatalf("expected a single index call with one document")
	}
	if store.indexed[0]["title"] != "VAT rates" {
		t.Errorf("title = %v", store.indexed[0]["title"])
	}
}

func TestAmendUnknownFieldAborts(t *testing.T) {
	store := &mockStore{doc: map[string]any{"link": "/vat", "title": "VAT"}}
	svc := New(store, testSchema(t), promoter())

	err := svc.Amend(context.Background(), "/vat", map[string]string{"bogus": "x"})
	var unknownErr *domain.UnknownFieldError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
	if store.indexCalls != 0 {
		t.Error("invalid amendment must not reach the index")
	}
}

func TestAmendLinkAborts(t *testing.T) {
	store := &mockStore{doc: map[string]any{"link": "/vat"}}
	svc := New(store, testSchema(t), promoter())

	err := svc.Amend(context.Background(), "/vat", map[string]string{"link": "/other"})
	var immutableErr *domain.ImmutableFieldError
	if !errors.As(err, &immutableErr) {
		t.Fatalf("expected ImmutableFieldError, got %v", err)
	}
	if store.indexCalls != 0 {
		t.Error("invalid amendment must not reach the index")
	}
}

func TestAmendRefreshesPromotion(t *testing.T) {
	store := &mockStore{doc: map[string]any{
		"link":         "/vat",
		"promoted_for": "stale terms",
	}}
	svc := New(store, testSchema(t), promoter())

	if err := svc.Amend(context.Background(), "/vat", map[string]string{"title": "VAT"}); err != nil {
		t.Fatalf("Amend: %v", err)
	}
	if _, ok := store.indexed[0]["promoted_for"]; ok {
		t.Error("stale promotion should be cleared on reindex")
	}
}

func TestDelete(t *testing.T) {
	store := &mockStore{}
	svc := New(store, testSchema(t), promoter())

	if err := svc.Delete(context.Background(), "/vat"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.lastLink != "/vat" {
		t.Errorf("deleted link = %q", store.lastLink)
	}
}

func TestDeleteError(t *testing.T) {
	store := &mockStore{deleteErr: domain.ErrIndexLocked}
	svc := New(store, testSchema(t), promoter())

	if err := svc.Delete(context.Background(), "/vat"); !errors.Is(err, domain.ErrIndexLocked) {
		t.Errorf("expected ErrIndexLocked, got %v", err)
	}
}
