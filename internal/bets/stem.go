package bets

import "strings"

// stemToken reduces an English token to a comparable stem (plural
// stripping, Porter step 1a). Both the configured bet phrase and the
// incoming query go through the same reduction, so the exact stemming
// scheme only has to be internally consistent.
func stemToken(token string) string {
	t := strings.ToLower(token)
	switch {
	case strings.HasSuffix(t, "sses"):
		return t[:len(t)-2]
	case strings.HasSuffix(t, "ies") && len(t) > 3:
		return t[:len(t)-2]
	case strings.HasSuffix(t, "ss"):
		return t
	case strings.HasSuffix(t, "s") && len(t) > 1:
		return t[:len(t)-1]
	}
	return t
}

// stemPhrase tokenizes a phrase on whitespace and stems every token.
func stemPhrase(phrase string) []string {
	fields := strings.Fields(phrase)
	stems := make([]string, len(fields))
	for i, f := range fields {
		stems[i] = stemToken(f)
	}
	return stems
}

// containsPhrase reports whether want occurs as a contiguous, in-order
// run inside have. Word order matters: a token multiset match is not
// sufficient for a stemmed bet to apply.
func containsPhrase(have, want []string) bool {
	if len(want) == 0 || len(want) > len(have) {
		return false
	}
	for i := 0; i+len(want) <= len(have); i++ {
		matched := true
		for j := range want {
			if have[i+j] != want[j] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}
