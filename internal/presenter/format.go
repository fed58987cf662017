package presenter

import "strings"

// presentationFormatTranslation collapses several interactive subtypes
// into one presentation format.
var presentationFormatTranslation = map[string]string{
	"planner":            "answer",
	"smart_answer":       "answer",
	"calculator":         "answer",
	"licence_finder":     "answer",
	"custom_application": "answer",
	"calendar":           "answer",
}

// formatNameAlternatives supplies the human-readable plural label for
// select presentation formats.
var formatNameAlternatives = map[string]string{
	"programme":           "Benefits & credits",
	"transaction":         "Services",
	"local_transaction":   "Services",
	"place":               "Services",
	"answer":              "Quick answers",
	"specialist_guidance": "Specialist guidance",
}

// presentationFormat normalizes a document format and maps it into the
// smaller presentation-format set.
func presentationFormat(format string) string {
	normalized := normalizedFormat(format)
	if translated, ok := presentationFormatTranslation[normalized]; ok {
		return translated
	}
	return normalized
}

// humanizedFormat returns the display label for a document format.
func humanizedFormat(format string) string {
	presentation := presentationFormat(format)
	if label, ok := formatNameAlternatives[presentation]; ok {
		return label
	}
	return pluralize(humanize(presentation))
}

func normalizedFormat(format string) string {
	if format == "" {
		return "unknown"
	}
	return strings.ReplaceAll(format, "-", "_")
}

// humanize turns an underscored identifier into a capitalized phrase.
func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// pluralize applies basic English pluralization to the final word.
func pluralize(s string) string {
	switch {
	case s == "":
		return s
	case strings.HasSuffix(s, "y") && !strings.HasSuffix(s, "ay") &&
		!strings.HasSuffix(s, "ey") && !strings.HasSuffix(s, "oy") && !strings.HasSuffix(s, "uy"):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(s, "s") || strings.HasSuffix(s, "x") ||
		strings.HasSuffix(s, "z") || strings.HasSuffix(s, "ch") || strings.HasSuffix(s, "sh"):
		return s + "es"
	default:
		return s + "s"
	}
}
