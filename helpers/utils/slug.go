package utils

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Slugify transliterates s to ASCII and keeps [a-z0-9], joining the
// remaining runs with sep.
func Slugify(s string, sep string) string {
	ascii := strings.ToLower(unidecode.Unidecode(s))

	var b strings.Builder
	pending := false
	for _, r := range ascii {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteString(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
