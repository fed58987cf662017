package query

import (
	"regexp"
	"strings"
)

// Characters the engine's query parser treats specially.
const luceneSpecialCharacters = `+-&|!(){}[]^"~*?:\`

var bareBooleanRegex = regexp.MustCompile(`\b(AND|OR|NOT)\b`)

// escape neutralizes query-parser syntax in user input: special
// characters are backslash-escaped and bare boolean operators are
// lowercased so they match as ordinary words.
func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(luceneSpecialCharacters, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return bareBooleanRegex.ReplaceAllStringFunc(b.String(), strings.ToLower)
}
