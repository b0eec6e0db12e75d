package story

import (
	"testing"

	"github.com/calles-genero/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feature(name, genero string, matched bool) models.EnrichedFeature {
	f := models.EnrichedFeature{Type: "Feature"}
	if name != "" {
		f.Properties.Name = &name
	}
	f.Properties.Genero = genero
	f.Properties.Matched = matched
	f.Properties.HasName = name != ""
	return f
}

// ten segments: four matched (three M, one F), two unnamed
func scenario() []models.EnrichedFeature {
	return []models.EnrichedFeature{
		feature("San Martín", "M", true),
		feature("Belgrano", "M", true),
		feature("Sarmiento", "M", true),
		feature("Maria Curie", "F", true),
		feature("Los Fresnos", "otro", false),
		feature("Las Acacias", "otro", false),
		feature("El Ceibo", "otro", false),
		feature("Ruta 27", "otro", false),
		feature("", "otro", false),
		feature("", "otro", false),
	}
}

func TestAggregate(t *testing.T) {
	stats := Aggregate(scenario())

	assert.Equal(t, models.Stats{
		TotalCalles:      10,
		CallesConNombre:  8,
		CallesPersona:    4,
		CallesMasculinas: 3,
		CallesFemeninas:  1,
	}, stats)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, models.Stats{}, Aggregate(nil))
}

func TestPct(t *testing.T) {
	testCases := []struct {
		part, total int
		expected    string
	}{
		{0, 0, "0.0"},
		{5, 0, "0.0"},
		{50, 200, "25.0"},
		{3, 4, "75.0"},
		{1, 3, "33.3"},
		{2, 3, "66.7"},
		{1, 8, "12.5"},
		{1, 16, "6.3"},
		{3, 16, "18.8"},
		{7, 7, "100.0"},
		{0, 9, "0.0"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Pct(tc.part, tc.total), "pct(%d, %d)", tc.part, tc.total)
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1.234", FormatCount(1234))
	assert.Equal(t, "1.234.567", FormatCount(1234567))
}

func TestStepFromIndex(t *testing.T) {
	assert.Equal(t, StepTotal, StepFromIndex(0))
	assert.Equal(t, StepPersons, StepFromIndex(1))
	assert.Equal(t, StepMen, StepFromIndex(2))
	assert.Equal(t, StepWomen, StepFromIndex(3))
	assert.Equal(t, StepWomen, StepFromIndex(4))
	assert.Equal(t, StepWomen, StepFromIndex(99))
	assert.Equal(t, StepWomen, StepFromIndex(-1))
}

func TestCounterFor(t *testing.T) {
	stats := Aggregate(scenario())

	testCases := []struct {
		step     int
		expected models.Counter
	}{
		{0, models.Counter{Texto: "10 calles y pasajes", Detalle: "trazado total del municipio"}},
		{1, models.Counter{Texto: "4 dedicadas a personas", Detalle: "40.0% del total"}},
		{2, models.Counter{Texto: "3 dedicadas a hombres", Detalle: "75.0% de las calles de personas"}},
		{3, models.Counter{Texto: "1 dedicadas a mujeres", Detalle: "25.0% de las calles de personas"}},
		{4, models.Counter{Texto: "1 dedicadas a mujeres", Detalle: "25.0% de las calles de personas"}},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, CounterFor(stats, StepFromIndex(tc.step)), "step %d", tc.step)
	}
}

func TestCounterFor_ZeroStats(t *testing.T) {
	c := CounterFor(models.Stats{}, StepWomen)
	assert.Equal(t, "0 dedicadas a mujeres", c.Texto)
	assert.Equal(t, "0.0% de las calles de personas", c.Detalle)

	c = CounterFor(models.Stats{TotalCalles: 12500}, StepTotal)
	assert.Equal(t, "12.500 calles y pasajes", c.Texto)
}

func TestHighlightFor(t *testing.T) {
	features := scenario()

	all := HighlightFor(features, StepTotal)
	require.Len(t, all, len(features))
	assert.Same(t, &features[0], &all[0])

	persons := HighlightFor(features, StepPersons)
	assert.Len(t, persons, 4)

	men := HighlightFor(features, StepMen)
	require.Len(t, men, 3)
	assert.Equal(t, "San Martín", men[0].Properties.NameOrEmpty())
	assert.Equal(t, "Sarmiento", men[2].Properties.NameOrEmpty())

	women := HighlightFor(features, StepWomen)
	require.Len(t, women, 1)
	assert.Equal(t, "Maria Curie", women[0].Properties.NameOrEmpty())
	assert.Empty(t, HighlightFor(nil, StepWomen))
}

func TestReport(t *testing.T) {
	features := append(scenario(), feature("San Martín", "M", true), feature(" Maria Curie ", "F", true))

	report := Report(features)

	assert.Equal(t, []models.MatchedName{
		{Nombre: "San Martín", Genero: "M"},
		{Nombre: "Belgrano", Genero: "M"},
		{Nombre: "Sarmiento", Genero: "M"},
		{Nombre: "Maria Curie", Genero: "F"},
	}, report.Calles)
	assert.Equal(t, models.MatchReportSummary{Femeninas: 1, Masculinas: 3, TotalUnicas: 4}, report.Summary)
}

func TestDefaultSteps(t *testing.T) {
	steps, err := DefaultSteps()
	require.NoError(t, err)
	require.Len(t, steps, 5)
	assert.Equal(t, "En zona norte hay muchas calles", steps[0].Title)
	assert.Equal(t, "Muy pocas: mujeres", steps[3].Title)
	assert.Equal(t, "Quienes fueron?", steps[4].Message)
}

func TestParseSteps(t *testing.T) {
	steps, err := ParseSteps([]byte("steps:\n  - title: uno\n    message: primero\n"))
	require.NoError(t, err)
	assert.Equal(t, []models.StoryStep{{Title: "uno", Message: "primero"}}, steps)

	_, err = ParseSteps([]byte("steps: []\n"))
	assert.Error(t, err)

	_, err = LoadSteps("/nonexistent/steps.yaml")
	assert.Error(t, err)
}
