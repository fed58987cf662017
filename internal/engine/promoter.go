package engine

import "strings"

// PromotedResult pins a link to a set of query terms at ingestion time.
type PromotedResult struct {
	Link  string   `yaml:"link"`
	Terms []string `yaml:"terms"`
}

// Promoter stamps documents headed for the index with the queries they
// are promoted for.
type Promoter struct {
	termsByLink map[string]string
}

// NewPromoter builds a promoter from the configured promoted results.
func NewPromoter(promoted []PromotedResult) *Promoter {
	terms := make(map[string]string, len(promoted))
	for _, p := range promoted {
		terms[p.Link] = strings.Join(p.Terms, " ")
	}
	return &Promoter{termsByLink: terms}
}

// WithPromotion sets promoted_for on a promoted document and clears any
// stale value on documents no longer promoted.
func (p *Promoter) WithPromotion(doc map[string]any) map[string]any {
	link, _ := doc["link"].(string)
	if terms, ok := p.termsByLink[link]; ok {
		doc["promoted_for"] = terms
	} else {
		delete(doc, "promoted_for")
	}
	return doc
}
