// Package engine is the transport adapter for the external search
// cluster. It issues raw search and bulk operations; the cluster owns
// storage, scoring and index lifecycle.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alphagov/rummager/internal/domain"
	"github.com/alphagov/rummager/internal/metrics"
)

// Default timeouts for talking to the engine. The open timeout covers
// connection establishment; the read timeout covers waiting for response
// headers. They are independent configuration values.
const (
	DefaultOpenTimeout = 5 * time.Second
	DefaultReadTimeout = 5 * time.Second
)

// registryFetchSize bounds a full registry refresh fetch.
const registryFetchSize = 1500

// Config holds the connection settings for one engine index (or a
// comma-joined index group resolved through the cluster's alias scheme).
type Config struct {
	BaseURL     string
	Index       string
	OpenTimeout time.Duration
	ReadTimeout time.Duration
	Logger      *zap.Logger
}

// Client issues raw operations against the engine. No operation retries;
// failures propagate to the caller.
type Client struct {
	base   *url.URL
	index  string
	client *http.Client
	logger *zap.Logger
}

// NewClient creates an engine client with explicit open and read timeouts.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse engine base URL: %w", err)
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("engine index name is required")
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = DefaultOpenTimeout
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:  base,
		index: cfg.Index,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: openTimeout}).DialContext,
				ResponseHeaderTimeout: readTimeout,
			},
		},
		logger: logger,
	}, nil
}

// IndexName returns the index (or index group) this client addresses.
func (c *Client) IndexName() string { return c.index }

// RawSearch runs a single structured query. docType, when non-empty,
// restricts the search to one document type.
func (c *Client) RawSearch(ctx context.Context, payload map[string]any, docType string) (*RawResponse, error) {
	path := c.index + "/_search"
	if docType != "" {
		path = c.index + "/" + docType + "/_search"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode query payload: %w", err)
	}
	c.logger.Debug("engine search", zap.String("index", c.index), zap.ByteString("payload", body))

	var resp RawResponse
	if err := c.do(ctx, http.MethodPost, path, body, "application/json", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MultiSearch runs independent queries in one batched request.
// Responses come back in payload order.
func (c *Client) MultiSearch(ctx context.Context, payloads []map[string]any) ([]RawResponse, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	for _, payload := range payloads {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode msearch payload: %w", err)
		}
		buf.WriteString("{}\n")
		buf.Write(body)
		buf.WriteByte('\n')
	}

	var resp multiSearchResponse
	if err := c.do(ctx, http.MethodPost, c.index+"/_msearch", buf.Bytes(), "application/x-ndjson", &resp); err != nil {
		return nil, err
	}
	if len(resp.Responses) != len(payloads) {
		return nil, fmt.Errorf("engine returned %d responses for %d queries", len(resp.Responses), len(payloads))
	}
	return resp.Responses, nil
}

// BulkIndex writes documents through the bulk mutation endpoint as
// newline-delimited action/source pairs. Per-item failures are collected
// into a BulkIndexError.
func (c *Client) BulkIndex(ctx context.Context, docs []map[string]any) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		docType, _ := doc["_type"].(string)
		link, _ := doc["link"].(string)
		source := make(map[string]any, len(doc))
		for k, v := range doc {
			if k != "_type" {
				source[k] = v
			}
		}

		action, err := json.Marshal(map[string]any{
			"index": map[string]any{"_type": docType, "_id": link},
		})
		if err != nil {
			return fmt.Errorf("encode bulk action: %w", err)
		}
		body, err := json.Marshal(source)
		if err != nil {
			return fmt.Errorf("encode bulk document: %w", err)
		}
		buf.Write(action)
		buf.WriteByte('\n')
		buf.Write(body)
		buf.WriteByte('\n')
	}

	var resp bulkResponse
	if err := c.do(ctx, http.MethodPost, c.index+"/_bulk", buf.Bytes(), "application/x-ndjson", &resp); err != nil {
		return err
	}

	var failed []string
	for _, item := range resp.Items {
		for _, status := range item {
			if status.Error != "" {
				failed = append(failed, status.ID)
			}
		}
	}
	if len(failed) > 0 {
		return &domain.BulkIndexError{FailedIDs: failed}
	}
	return nil
}

// GetDocument retrieves one document's source by link.
func (c *Client) GetDocument(ctx context.Context, link string) (map[string]any, error) {
	resp, err := c.RawSearch(ctx, map[string]any{
		"query": map[string]any{"term": map[string]any{"link": link}},
		"size":  1,
	}, "")
	if err != nil {
		return nil, err
	}
	if len(resp.Hits.Hits) == 0 {
		return nil, domain.ErrDocumentNotFound
	}
	hit := resp.Hits.Hits[0]
	source := hit.Source
	if source == nil {
		source = map[string]any{}
	}
	if hit.Type != "" {
		source["_type"] = hit.Type
	}
	return source, nil
}

// DeleteByLink removes a document through the deletion-by-query endpoint.
// The type is unknown at this layer, so deletion goes by the link term.
func (c *Client) DeleteByLink(ctx context.Context, link string) error {
	q := url.Values{"q": []string{"link:" + escapeQueryString(link)}}
	return c.do(ctx, http.MethodDelete, c.index+"/_query?"+q.Encode(), nil, "", nil)
}

// DocumentsByFormat fetches the named fields of every document of one
// format. Used for registry refreshes.
func (c *Client) DocumentsByFormat(ctx context.Context, format string, fields []string) ([]map[string]any, error) {
	resp, err := c.RawSearch(ctx, map[string]any{
		"query":  map[string]any{"term": map[string]any{"format": format}},
		"fields": fields,
		"size":   registryFetchSize,
	}, "")
	if err != nil {
		return nil, err
	}

	docs := make([]map[string]any, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		if data := hit.FieldData(); data != nil {
			docs = append(docs, data)
		}
	}
	return docs, nil
}

var (
	numberOutOfRangeRegex = regexp.MustCompile(`Numeric value \(([0-9]*)\) out of range`)
	maxClauseCountRegex   = regexp.MustCompile(`maxClauseCount is set to ([0-9]+)`)
)

// do performs one HTTP exchange with the engine and maps failures onto
// the gateway error taxonomy. Never retries.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	target := c.base.JoinPath(path).String()
	// JoinPath escapes the query part of delete-by-query paths; keep it raw.
	if i := strings.IndexByte(path, '?'); i >= 0 {
		target = c.base.JoinPath(path[:i]).String() + path[i:]
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build engine request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.EngineRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EngineErrorsTotal.WithLabelValues("transport").Inc()
		return fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.EngineErrorsTotal.WithLabelValues("transport").Inc()
		return fmt.Errorf("%w: read response: %v", domain.ErrEngineUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		return c.mapErrorResponse(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode engine response: %w", err)
		}
	}
	return nil
}

// mapErrorResponse distinguishes malformed queries from lock conflicts
// from plain engine failures, so callers can present a targeted message.
func (c *Client) mapErrorResponse(status int, body []byte) error {
	text := string(body)

	switch {
	case status == http.StatusNotFound:
		return domain.ErrDocumentNotFound
	case status == http.StatusLocked || strings.Contains(text, "index is locked"):
		return domain.ErrIndexLocked
	}

	if m := numberOutOfRangeRegex.FindStringSubmatch(text); m != nil {
		return &domain.NumberOutOfRangeError{Value: m[1]}
	}
	if m := maxClauseCountRegex.FindStringSubmatch(text); m != nil {
		max, _ := strconv.Atoi(m[1])
		return &domain.QueryTooLongError{MaxClauses: max}
	}

	metrics.EngineErrorsTotal.WithLabelValues("status_" + strconv.Itoa(status)).Inc()
	c.logger.Error("engine request failed",
		zap.Int("status", status),
		zap.String("index", c.index),
		zap.String("body", truncate(text, 512)),
	)
	return fmt.Errorf("%w: engine returned status %d", domain.ErrEngineUnavailable, status)
}

// escapeQueryString escapes Lucene query-string metacharacters in a term.
func escapeQueryString(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`+-&|!(){}[]^"~*?:\/`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
