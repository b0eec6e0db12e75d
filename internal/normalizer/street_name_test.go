package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStreetName(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain", input: "Maria Curie", expected: "maria curie"},
		{name: "accents", input: "José Hernández", expected: "jose hernandez"},
		{name: "pasaje abbreviation", input: "Pje. Maria Curie", expected: ". maria curie"},
		{name: "avenida", input: "Avenida de los Fresnos", expected: "de los fresnos"},
		{name: "title", input: "Dra. Cecilia Grierson", expected: ". cecilia grierson"},
		{name: "general", input: "General  José de San Martín", expected: "jose de san martin"},
		{name: "stopword only", input: "Calle", expected: ""},
		{name: "several stopwords", input: "Av Calle Pasaje", expected: ""},
		{name: "stopword inside word kept", input: "Calleja Avellaneda", expected: "calleja avellaneda"},
		{name: "whitespace", input: "  Juana   Azurduy \t ", expected: "juana azurduy"},
		{name: "enie decomposed", input: "Peña", expected: "pena"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeStreetName(tc.input))
		})
	}
}

func TestNormalizeStreetName_Idempotent(t *testing.T) {
	inputs := []string{
		"Avenida de los Fresnos",
		"Pje. Maria Curie",
		"Gral. Dr. Ramón Carrillo",
		"CALLE  Ñandú",
		"Av-Dr-Grl",
	}
	for _, in := range inputs {
		once := NormalizeStreetName(in)
		assert.Equal(t, once, NormalizeStreetName(once), "input %q", in)
	}
}

func TestNormalizeStreetName_NoStopwordsOrAccents(t *testing.T) {
	out := NormalizeStreetName("Avenida de los Fresnos")

	assert.Equal(t, strings.TrimSpace(out), out)
	assert.NotContains(t, strings.Fields(out), "avenida")
	for _, r := range out {
		assert.False(t, r >= 0x0300 && r <= 0x036f, "combining mark %U left in %q", r, out)
	}
}

func TestFoldAccents(t *testing.T) {
	assert.Equal(t, "tigre", FoldAccents("Tigre"))
	assert.Equal(t, "san fernando", FoldAccents("San Fernando"))
	assert.Equal(t, "vicente lopez", FoldAccents("Vicente López"))
	// stopwords are not removed from slugs
	assert.Equal(t, "general pacheco", FoldAccents("General Pacheco"))
}

func TestStripCombiningMarks(t *testing.T) {
	assert.Equal(t, "Aeiou", StripCombiningMarks("Áéíóú"))
	assert.Equal(t, "", StripCombiningMarks(""))
}
