package engine

// RawResponse is the engine's search response. Only the parts of the
// shape this gateway consumes are declared; hit sources stay dynamic.
type RawResponse struct {
	Hits         HitsEnvelope                  `json:"hits"`
	Aggregations map[string]AggregationResult  `json:"aggregations,omitempty"`
	Suggest      map[string][]SuggestedTerm    `json:"suggest,omitempty"`
}

// HitsEnvelope holds the ranked hits and the total match count.
type HitsEnvelope struct {
	Total int   `json:"total"`
	Hits  []Hit `json:"hits"`
}

// Hit is a single ranked document from the engine.
type Hit struct {
	Index     string              `json:"_index,omitempty"`
	Type      string              `json:"_type,omitempty"`
	ID        string              `json:"_id,omitempty"`
	Score     float64             `json:"_score,omitempty"`
	Source    map[string]any      `json:"_source,omitempty"`
	Fields    map[string]any      `json:"fields,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// FieldData returns the per-field source data, preferring the explicit
// fields payload over _source.
func (h Hit) FieldData() map[string]any {
	if h.Fields != nil {
		return h.Fields
	}
	return h.Source
}

// AggregationResult is one terms-aggregation response.
type AggregationResult struct {
	Buckets []Bucket `json:"buckets"`
}

// Bucket is a single aggregation bucket: distinct value plus count.
type Bucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}

// SuggestedTerm is the engine's suggestion payload for one input term.
type SuggestedTerm struct {
	Text    string          `json:"text"`
	Options []SuggestOption `json:"options"`
}

// SuggestOption is one candidate correction with its engine-assigned score.
type SuggestOption struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// bulkResponse is the engine's reply to a bulk mutation.
type bulkResponse struct {
	Items []map[string]bulkItemStatus `json:"items"`
}

type bulkItemStatus struct {
	ID    string `json:"_id"`
	Error string `json:"error,omitempty"`
}

// multiSearchResponse is the engine's reply to a batched search.
type multiSearchResponse struct {
	Responses []RawResponse `json:"responses"`
}
