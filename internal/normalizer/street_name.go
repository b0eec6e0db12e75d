package normalizer

import (
	"regexp"
	"strings"
)

// Stopwords are street-type and title prefixes that never carry the name
// of the person a street honors.
var Stopwords = []string{"avenida", "av", "calle", "pje", "dr", "dra", "grl", "pasaje", "general"}

// word boundaries are ASCII-only, so "avenidá" is not a stopword hit
var stopwordRe = regexp.MustCompile(`\b(` + strings.Join(Stopwords, "|") + `)\b`)

// NormalizeStreetName produces the canonical matching key for a street name:
// lowercase, accents stripped, stopwords removed and whitespace collapsed.
//
// The function is deterministic and idempotent. Empty or stopword-only input
// yields "".
func NormalizeStreetName(text string) string {
	if text == "" {
		return ""
	}
	s := FoldAccents(text)
	s = stopwordRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
