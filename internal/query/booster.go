package query

import (
	"sort"
	"time"

	"github.com/alphagov/rummager/internal/domain/search/params"
)

// Multiplicative penalty and boost factors applied around the core clause.
const (
	defaultBoost        = 1.0
	closedOrgBoost      = 0.2
	devolvedOrgBoost    = 0.3
	historicEditionBoost = 0.5
	guidanceBoost       = 2.5
)

// timeBoostScript is a reciprocal decay curve favouring recent
// announcement documents. `now` is passed truncated to the minute so that
// payloads stay cacheable.
const timeBoostScript = "((0.05 / ((3.16*pow(10,-11)) * abs(now - doc['public_timestamp'].date.getMillis()) + 0.05)) + 0.12)"

// popularityBoostScript folds the ingestion-time popularity rank into the
// score as a gentle multiplier.
const popularityBoostScript = "doc['popularity'].value + 0.001"

// BoostConfig is the configuration-driven format boost table.
type BoostConfig struct {
	// FormatBoosts maps individual formats to boost factors.
	FormatBoosts map[string]float64 `yaml:"format_boosts"`
	// GovernmentIndexBoost re-weights every format of the government
	// index as one group.
	GovernmentIndexBoost float64 `yaml:"government_index_boost"`
	// GovernmentFormats lists the formats belonging to that group.
	GovernmentFormats []string `yaml:"government_formats"`
}

// boosted wraps the core clause in a multiplicative score-function
// envelope. Skipped entirely under the disable-boosting debug flag.
func (b *Builder) boosted(core map[string]any, p params.QueryParameters) map[string]any {
	return map[string]any{
		"function_score": map[string]any{
			"boost_mode": "multiply",
			"score_mode": "multiply",
			"query": map[string]any{
				"bool": map[string]any{
					"should": []map[string]any{core},
				},
			},
			"functions": b.boostFunctions(p),
		},
	}
}

func (b *Builder) boostFunctions(p params.QueryParameters) []map[string]any {
	boosts := b.formatBoosts(p)
	boosts = append(boosts,
		b.timeBoost(),
		termBoost("organisation_state", "closed", closedOrgBoost),
		termBoost("organisation_state", "devolved", devolvedOrgBoost),
		filterBoost(map[string]any{"term": map[string]any{"is_historic": true}}, historicEditionBoost),
	)
	if !p.Debug().DisablePopularity {
		boosts = append(boosts, popularityBoost())
	}
	if formatBoostBVariant(p) {
		boosts = append(boosts, termBoost("navigation_document_supertype", "guidance", guidanceBoost))
	}
	return boosts
}

func formatBoostBVariant(p params.QueryParameters) bool {
	return p.ABVariant("format_boosting") == "B"
}

func (b *Builder) formatBoosts(p params.QueryParameters) []map[string]any {
	table := b.boostedFormats(p)

	formats := make([]string, 0, len(table))
	for format := range table {
		formats = append(formats, format)
	}
	sort.Strings(formats)

	boosts := make([]map[string]any, 0, len(formats))
	for _, format := range formats {
		boosts = append(boosts, termBoost("format", format, table[format]))
	}
	return boosts
}

// boostedFormats resolves the effective boost per format. The default
// variant combines the government-index group boost with the individual
// format table; the B variant uses the individual table alone.
func (b *Builder) boostedFormats(p params.QueryParameters) map[string]float64 {
	if formatBoostBVariant(p) {
		return b.boosts.FormatBoosts
	}

	table := make(map[string]float64, len(b.boosts.FormatBoosts)+len(b.boosts.GovernmentFormats))
	inGovernment := make(map[string]bool, len(b.boosts.GovernmentFormats))
	for _, format := range b.boosts.GovernmentFormats {
		inGovernment[format] = true
		table[format] = b.boosts.GovernmentIndexBoost
	}
	for format, boost := range b.boosts.FormatBoosts {
		if inGovernment[format] {
			table[format] = b.boosts.GovernmentIndexBoost * boost
		} else {
			table[format] = boost
		}
	}
	return table
}

func (b *Builder) timeBoost() map[string]any {
	return map[string]any{
		"filter": map[string]any{
			"term": map[string]any{"search_format_types": "announcement"},
		},
		"script_score": map[string]any{
			"script": timeBoostScript,
			"params": map[string]any{
				"now": timeInMillisToNearestMinute(b.clock.Now()),
			},
		},
	}
}

func popularityBoost() map[string]any {
	return map[string]any{
		"script_score": map[string]any{
			"script": popularityBoostScript,
		},
	}
}

func termBoost(field, value string, boost float64) map[string]any {
	return filterBoost(map[string]any{"term": map[string]any{field: value}}, boost)
}

func filterBoost(filter map[string]any, boost float64) map[string]any {
	return map[string]any{
		"filter":       filter,
		"boost_factor": boost,
	}
}

func timeInMillisToNearestMinute(now time.Time) int64 {
	return now.Unix() / 60 * 60000
}
