package story

import (
	"strings"

	"github.com/calles-genero/app/models"
)

// Report lists each distinct matched segment name once, with the genero of
// its first occurrence, and counts them by genero.
func Report(features []models.EnrichedFeature) models.MatchReport {
	report := models.MatchReport{Calles: make([]models.MatchedName, 0)}
	seen := make(map[string]struct{})

	for i := range features {
		p := &features[i].Properties
		if !p.Matched {
			continue
		}
		name := strings.TrimSpace(p.NameOrEmpty())
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		report.Calles = append(report.Calles, models.MatchedName{Nombre: name, Genero: p.Genero})

		switch p.Genero {
		case models.GeneroFemenino:
			report.Summary.Femeninas++
		case models.GeneroMasculino:
			report.Summary.Masculinas++
		}
	}
	report.Summary.TotalUnicas = len(report.Calles)
	return report
}
