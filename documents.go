package rummager

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Document is one indexed document as sent over the wire.
type Document map[string]any

// GetDocument fetches one document by link.
func (c *Client) GetDocument(ctx context.Context, link string) (Document, error) {
	var doc Document
	if err := c.get(ctx, "/documents"+documentPath(link), nil, &doc); err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// AddDocuments indexes one or more documents.
func (c *Client) AddDocuments(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}
	var payload any = docs
	if len(docs) == 1 {
		payload = docs[0]
	}
	if err := c.postJSON(ctx, "/documents", payload, nil); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// AmendDocument applies field updates to an existing document.
func (c *Client) AmendDocument(ctx context.Context, link string, updates map[string]string) error {
	form := url.Values{}
	for field, value := range updates {
		form.Set(field, value)
	}
	err := c.do(ctx, http.MethodPost, "/documents"+documentPath(link), nil,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), nil)
	if err != nil {
		return fmt.Errorf("amend document: %w", err)
	}
	return nil
}

// DeleteDocument removes a document by link.
func (c *Client) DeleteDocument(ctx context.Context, link string) error {
	if err := c.do(ctx, http.MethodDelete, "/documents"+documentPath(link), nil, "", nil, nil); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// documentPath keeps the link's leading slash in the request path, so
// "/jobsearch" becomes "/documents//jobsearch".
func documentPath(link string) string {
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return "/" + link
}
