package story

import (
	"math"
	"math/big"
	"strconv"

	"github.com/calles-genero/app/models"
	"github.com/dustin/go-humanize"
)

// Aggregate counts the annotated segments in a single pass.
func Aggregate(features []models.EnrichedFeature) models.Stats {
	stats := models.Stats{TotalCalles: len(features)}
	for i := range features {
		p := &features[i].Properties
		if p.HasName {
			stats.CallesConNombre++
		}
		if p.Matched {
			stats.CallesPersona++
		}
		switch p.Genero {
		case models.GeneroMasculino:
			stats.CallesMasculinas++
		case models.GeneroFemenino:
			stats.CallesFemeninas++
		}
	}
	return stats
}

// Pct renders part/total as a percentage with one decimal. A zero total
// yields "0.0". Ties round away from zero on the exact binary value of the
// ratio, so 12.25 renders as "12.3".
func Pct(part, total int) string {
	if total == 0 {
		return "0.0"
	}
	return toFixed1(float64(part) / float64(total) * 100)
}

func toFixed1(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	r := new(big.Rat).SetFloat64(v)
	r.Mul(r, big.NewRat(10, 1))
	r.Add(r, big.NewRat(1, 2))
	tenths := new(big.Int).Quo(r.Num(), r.Denom())

	whole, frac := new(big.Int).QuoRem(tenths, big.NewInt(10), new(big.Int))
	return sign + whole.String() + "." + frac.String()
}

// FormatCount renders n with "." as the thousands separator (es-AR).
func FormatCount(n int) string {
	return humanize.FormatInteger("#.###,", n)
}
