package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/calles-genero/app/models"
	"github.com/calles-genero/internal/normalizer"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultMunicipio is used when no municipality is given.
	DefaultMunicipio = "tigre"
	// DefaultMemoSize bounds the normalized-name memo.
	DefaultMemoSize = 4096
)

// NameMatcher matches street names against the registry rows of one
// municipality. The first row in registry order whose normalized name
// contains, or is contained in, the normalized query wins.
//
// A NameMatcher is safe for concurrent use.
type NameMatcher struct {
	municipio string
	entries   []models.NormalizedCalle
	memo      *lru.Cache[string, int] // normalized query -> index into entries, -1 for no match
}

// NewNameMatcher prepares the registry rows whose municipality folds to the
// same slug as municipio. Rows whose normalized name is shorter than two
// runes are dropped. memoSize <= 0 disables the memo.
func NewNameMatcher(registry []models.Calle, municipio string, memoSize int) *NameMatcher {
	if municipio == "" {
		municipio = DefaultMunicipio
	}
	slug := normalizer.FoldAccents(municipio)

	m := &NameMatcher{
		municipio: slug,
		entries:   FilterRegistry(registry, slug),
	}
	if memoSize > 0 {
		// only fails on a non-positive size
		m.memo, _ = lru.New[string, int](memoSize)
	}
	return m
}

// FilterRegistry keeps the rows of municipality slug, normalized, in
// registry order. Seq records each row's position in registry.
func FilterRegistry(registry []models.Calle, slug string) []models.NormalizedCalle {
	out := make([]models.NormalizedCalle, 0)
	for i, c := range registry {
		if normalizer.FoldAccents(c.Municipio) != slug {
			continue
		}
		norm := normalizer.NormalizeStreetName(c.Nombre)
		if utf8.RuneCountInString(norm) <= 1 {
			continue
		}
		out = append(out, models.NormalizedCalle{Calle: c, NombreNorm: norm, Seq: i})
	}
	return out
}

// Municipio returns the folded municipality slug.
func (m *NameMatcher) Municipio() string { return m.municipio }

// Entries returns the prepared registry rows. Callers must not modify them.
func (m *NameMatcher) Entries() []models.NormalizedCalle { return m.entries }

// Match normalizes name and looks it up.
func (m *NameMatcher) Match(name string) (models.NormalizedCalle, bool) {
	return m.MatchNormalized(normalizer.NormalizeStreetName(name))
}

// MatchNormalized looks up an already normalized name. An empty name never
// matches.
func (m *NameMatcher) MatchNormalized(norm string) (models.NormalizedCalle, bool) {
	if norm == "" {
		return models.NormalizedCalle{}, false
	}
	if m.memo != nil {
		if idx, ok := m.memo.Get(norm); ok {
			return m.at(idx)
		}
	}

	idx := m.scan(norm)
	if m.memo != nil {
		m.memo.Add(norm, idx)
	}
	return m.at(idx)
}

func (m *NameMatcher) scan(norm string) int {
	for i := range m.entries {
		reg := m.entries[i].NombreNorm
		if strings.Contains(norm, reg) || strings.Contains(reg, norm) {
			return i
		}
	}
	return -1
}

func (m *NameMatcher) at(idx int) (models.NormalizedCalle, bool) {
	if idx < 0 {
		return models.NormalizedCalle{}, false
	}
	return m.entries[idx], true
}
