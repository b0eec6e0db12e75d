package annotator

import (
	"encoding/json"

	"github.com/calles-genero/app/models"
	"github.com/calles-genero/internal/matcher"
	"github.com/calles-genero/internal/normalizer"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Annotate attributes a genero to every segment of geo using the registry
// rows of municipio ("tigre" when empty). It returns nil when geo or
// registry is nil. The input collection is not modified.
func Annotate(geo *models.GeoCollection, registry []models.Calle, municipio string) *models.EnrichedCollection {
	if geo == nil || registry == nil {
		return nil
	}
	return AnnotateWith(geo, matcher.NewNameMatcher(registry, municipio, matcher.DefaultMemoSize))
}

// AnnotateWith annotates geo with a prepared matcher.
func AnnotateWith(geo *models.GeoCollection, m *matcher.NameMatcher) *models.EnrichedCollection {
	if geo == nil || m == nil {
		return nil
	}

	features := make([]models.EnrichedFeature, len(geo.Features))
	for i, f := range geo.Features {
		features[i] = annotateFeature(f, m)
	}

	typ := geo.Type
	if typ == "" {
		typ = models.FeatureCollectionType
	}
	return &models.EnrichedCollection{
		Type:     typ,
		Name:     geo.Name,
		CRS:      geo.CRS,
		BBox:     geo.BBox,
		Features: features,
	}
}

func annotateFeature(f models.GeoFeature, m *matcher.NameMatcher) models.EnrichedFeature {
	props := models.EnrichedProperties{Genero: models.GeneroOtro}
	if f.Properties != nil {
		props.RawProperties = copyProperties(*f.Properties)
	}

	name := props.NameOrEmpty()
	props.HasName = props.Named()
	if match, ok := m.MatchNormalized(normalizer.NormalizeStreetName(name)); ok {
		props.Matched = true
		if match.Genero != "" {
			props.Genero = match.Genero
		}
	}

	return models.EnrichedFeature{
		Type:       f.Type,
		ID:         f.ID,
		BBox:       f.BBox,
		Properties: props,
		Geometry:   f.Geometry,
	}
}

// copyProperties detaches the extra members so the output never shares
// a map with the input.
func copyProperties(p models.RawProperties) models.RawProperties {
	out := models.RawProperties{}
	if p.Name != nil {
		name := *p.Name
		out.Name = &name
	}
	if p.Extra != nil {
		out.Extra = orderedmap.New[string, json.RawMessage](p.Extra.Len())
		for pair := p.Extra.Oldest(); pair != nil; pair = pair.Next() {
			out.Extra.Set(pair.Key, pair.Value)
		}
	}
	return out
}
