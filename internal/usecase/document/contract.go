package document

import "context"

// Store is the mutation surface of the content index.
type Store interface {
	GetDocument(ctx context.Context, link string) (map[string]any, error)
	BulkIndex(ctx context.Context, docs []map[string]any) error
	DeleteByLink(ctx context.Context, link string) error
}
