package presenter

import (
	"html"

	"github.com/alphagov/rummager/internal/engine"
)

// highlightedTitle returns the display title for a hit. A highlight
// fragment is used as-is: the engine supplies pre-escaped markup. With no
// fragment, the raw title is HTML-escaped and used verbatim.
func highlightedTitle(hit engine.Hit) string {
	if fragments := hit.Highlight["title"]; len(fragments) > 0 {
		return fragments[0]
	}
	title := stringValue(hit.FieldData()["title"])
	return html.EscapeString(title)
}

// highlightedField returns the first highlight fragment for a field, or
// the escaped raw value when the engine produced none.
func highlightedField(hit engine.Hit, field string) string {
	if fragments := hit.Highlight[field]; len(fragments) > 0 {
		return fragments[0]
	}
	return html.EscapeString(stringValue(hit.FieldData()[field]))
}

// stringValue unwraps a possibly sequence-encoded field into a string.
func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case []any:
		if len(value) > 0 {
			if s, ok := value[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
