package story

import (
	"fmt"

	"github.com/calles-genero/app/models"
)

// NarrativeStep selects what the counter and the highlight show.
type NarrativeStep int

const (
	StepTotal NarrativeStep = iota
	StepPersons
	StepMen
	StepWomen
)

func (s NarrativeStep) String() string {
	switch s {
	case StepTotal:
		return "total"
	case StepPersons:
		return "personas"
	case StepMen:
		return "hombres"
	default:
		return "mujeres"
	}
}

// StepFromIndex maps a scroll step index to a NarrativeStep. Indices past
// the last variant, and negative ones, resolve to StepWomen.
func StepFromIndex(i int) NarrativeStep {
	switch i {
	case 0:
		return StepTotal
	case 1:
		return StepPersons
	case 2:
		return StepMen
	default:
		return StepWomen
	}
}

// CounterFor builds the headline figure for step.
func CounterFor(stats models.Stats, step NarrativeStep) models.Counter {
	switch step {
	case StepTotal:
		return models.Counter{
			Texto:   fmt.Sprintf("%s calles y pasajes", FormatCount(stats.TotalCalles)),
			Detalle: "trazado total del municipio",
		}
	case StepPersons:
		return models.Counter{
			Texto:   fmt.Sprintf("%s dedicadas a personas", FormatCount(stats.CallesPersona)),
			Detalle: fmt.Sprintf("%s%% del total", Pct(stats.CallesPersona, stats.TotalCalles)),
		}
	case StepMen:
		return models.Counter{
			Texto:   fmt.Sprintf("%s dedicadas a hombres", FormatCount(stats.CallesMasculinas)),
			Detalle: fmt.Sprintf("%s%% de las calles de personas", Pct(stats.CallesMasculinas, stats.CallesPersona)),
		}
	default:
		return models.Counter{
			Texto:   fmt.Sprintf("%s dedicadas a mujeres", FormatCount(stats.CallesFemeninas)),
			Detalle: fmt.Sprintf("%s%% de las calles de personas", Pct(stats.CallesFemeninas, stats.CallesPersona)),
		}
	}
}

// HighlightFor returns the segments emphasized at step, in input order.
// StepTotal returns features itself.
func HighlightFor(features []models.EnrichedFeature, step NarrativeStep) []models.EnrichedFeature {
	var keep func(p *models.EnrichedProperties) bool
	switch step {
	case StepTotal:
		return features
	case StepPersons:
		keep = func(p *models.EnrichedProperties) bool { return p.Matched }
	case StepMen:
		keep = func(p *models.EnrichedProperties) bool { return p.Genero == models.GeneroMasculino }
	default:
		keep = func(p *models.EnrichedProperties) bool { return p.Genero == models.GeneroFemenino }
	}

	out := make([]models.EnrichedFeature, 0)
	for i := range features {
		if keep(&features[i].Properties) {
			out = append(out, features[i])
		}
	}
	return out
}
