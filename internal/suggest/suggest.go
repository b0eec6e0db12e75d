package suggest

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/calles-genero/app/models"
	"github.com/calles-genero/internal/matcher"
	"github.com/calles-genero/internal/normalizer"
	"github.com/xrash/smetrics"
)

// Config tunes the suggestion ranking.
type Config struct {
	MinSimilarity float64 // Jaro-Winkler floor, 0..1
	TopK          int     // candidates per unmatched name
	Limit         int     // unmatched names returned, 0 for all
}

func DefaultConfig() Config {
	return Config{MinSimilarity: 0.85, TopK: 3, Limit: 50}
}

type unmatched struct {
	nombre   string
	norm     string
	segments int
}

// Suggest proposes registry rows for named segments that did not match.
// It never changes an annotation; results are for manual curation.
// Names with more segments come first.
func Suggest(features []models.EnrichedFeature, m *matcher.NameMatcher, cfg Config) []models.Suggestion {
	out := make([]models.Suggestion, 0)
	if m == nil || len(m.Entries()) == 0 {
		return out
	}

	names := collectUnmatched(features)
	if cfg.Limit > 0 && len(names) > cfg.Limit {
		names = names[:cfg.Limit]
	}

	for _, u := range names {
		out = append(out, rank(u, m.Entries(), cfg)...)
	}
	return out
}

func collectUnmatched(features []models.EnrichedFeature) []unmatched {
	index := make(map[string]int)
	names := make([]unmatched, 0)
	for i := range features {
		p := &features[i].Properties
		if p.Matched || !p.HasName {
			continue
		}
		nombre := strings.TrimSpace(p.NameOrEmpty())
		norm := normalizer.NormalizeStreetName(nombre)
		if norm == "" {
			continue
		}
		if j, ok := index[norm]; ok {
			names[j].segments++
			continue
		}
		index[norm] = len(names)
		names = append(names, unmatched{nombre: nombre, norm: norm, segments: 1})
	}

	sort.SliceStable(names, func(i, j int) bool { return names[i].segments > names[j].segments })
	return names
}

func rank(u unmatched, entries []models.NormalizedCalle, cfg Config) []models.Suggestion {
	cands := make([]models.Suggestion, 0)
	seen := make(map[string]struct{})
	for _, e := range entries {
		if _, ok := seen[e.NombreNorm]; ok {
			continue
		}
		seen[e.NombreNorm] = struct{}{}

		sim := smetrics.JaroWinkler(u.norm, e.NombreNorm, 0.7, 4)
		if sim < cfg.MinSimilarity {
			continue
		}
		cands = append(cands, models.Suggestion{
			Nombre:    u.nombre,
			Candidato: e.Nombre,
			Genero:    e.Genero,
			Similitud: sim,
			Distancia: levenshtein.ComputeDistance(u.norm, e.NombreNorm),
			Segmentos: u.segments,
		})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Similitud != cands[j].Similitud {
			return cands[i].Similitud > cands[j].Similitud
		}
		return cands[i].Distancia < cands[j].Distancia
	})
	if cfg.TopK > 0 && len(cands) > cfg.TopK {
		cands = cands[:cfg.TopK]
	}
	return cands
}
