package document

import (
	"context"
	"fmt"

	"github.com/alphagov/rummager/internal/domain/document"
	"github.com/alphagov/rummager/internal/domain/schema"
	"github.com/alphagov/rummager/internal/engine"
)

// Service handles document retrieval and mutation against the content
// index.
type Service struct {
	store    Store
	schema   schema.Schema
	promoter *engine.Promoter
}

// New creates a document service.
func New(store Store, s schema.Schema, promoter *engine.Promoter) *Service {
	return &Service{store: store, schema: s, promoter: promoter}
}

// Get fetches one document by link.
func (s *Service) Get(ctx context.Context, link string) (document.Document, error) {
	raw, err := s.store.GetDocument(ctx, link)
	if err != nil {
		return document.Document{}, fmt.Errorf("get document: %w", err)
	}
	return document.FromWire(raw, s.schema), nil
}

// Add validates incoming documents against the schema and bulk indexes
// them, applying any configured result promotion.
func (s *Service) Add(ctx context.Context, wireDocs []map[string]any) error {
	payloads := make([]map[string]any, 0, len(wireDocs))
	for _, raw := range wireDocs {
		doc := document.FromWire(raw, s.schema)
		payloads = append(payloads, s.promoter.WithPromotion(doc.ExportForIndex()))
	}
	if err := s.store.BulkIndex(ctx, payloads); err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	return nil
}

// Amend fetches a document, applies the field updates, and re-indexes
// it. Any invalid update aborts the whole amendment; the stored document
// is left untouched.
func (s *Service) Amend(ctx context.Context, link string, updates map[string]string) error {
	raw, err := s.store.GetDocument(ctx, link)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	doc := document.FromWire(raw, s.schema)

	for field, value := range updates {
		if err := doc.Set(field, value); err != nil {
			return err
		}
	}

	payload := s.promoter.WithPromotion(doc.ExportForIndex())
	if err := s.store.BulkIndex(ctx, []map[string]any{payload}); err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	return nil
}

// Delete removes a document by link. Deleting an absent document is not
// an error.
func (s *Service) Delete(ctx context.Context, link string) error {
	if err := s.store.DeleteByLink(ctx, link); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
