package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks is the Combining Diacritical Marks block (U+0300..U+036F).
// Only this block is removed; other Mn runes survive normalization.
var combiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// StripCombiningMarks decomposes s (NFD) and drops the combining marks.
// The result is left decomposed; no NFC pass is applied afterwards.
// If the transform fails, s is returned unchanged.
func StripCombiningMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningMarks)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldAccents lowercases s and strips its accents.
// Used for municipality slugs, where stopwords must stay.
func FoldAccents(s string) string {
	return StripCombiningMarks(strings.ToLower(s))
}
