package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/calles-genero/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryJSON = `[
  {"distrito": "Tigre", "nombre": "Maria Curie", "genero": "F", "categoria": "ciencia", "municipio": "Tigre", "fuente": "osm"},
  {"distrito": "Don Torcuato", "nombre": "San Martín", "genero": "M", "categoria": "próceres", "municipio": "Tigre", "id": 7},
  {"distrito": "Victoria", "nombre": "Belgrano", "genero": "M", "categoria": null, "municipio": "San Fernando"},
  {"distrito": "", "nombre": "Sin municipio", "genero": "M", "categoria": "", "municipio": ""}
]`

const geoJSON = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"name": "Pje. Maria Curie"}, "geometry": null}
]}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestParseRegistry(t *testing.T) {
	calles, err := ParseRegistry([]byte(registryJSON))
	require.NoError(t, err)
	require.Len(t, calles, 4)

	assert.Equal(t, "Maria Curie", calles[0].Nombre)
	assert.Equal(t, map[string]string{"fuente": "osm"}, calles[0].Extra)
	assert.Equal(t, map[string]string{"id": "7"}, calles[1].Extra)
	assert.Equal(t, "", calles[2].Categoria)
}

func TestParseRegistry_Invalid(t *testing.T) {
	for _, in := range []string{`{}`, `null`, `not json`} {
		_, err := ParseRegistry([]byte(in))
		assert.ErrorIs(t, err, ErrLoad, in)
	}
}

func TestParseGeoJSON(t *testing.T) {
	geo, err := ParseGeoJSON([]byte(geoJSON))
	require.NoError(t, err)
	require.Len(t, geo.Features, 1)
	assert.Equal(t, "Pje. Maria Curie", geo.Features[0].Properties.NameOrEmpty())

	_, err = ParseGeoJSON([]byte(`{"type": "Feature"}`))
	assert.ErrorIs(t, err, ErrLoad)

	geo, err = ParseGeoJSON([]byte(`{"type": "FeatureCollection"}`))
	require.NoError(t, err)
	assert.NotNil(t, geo.Features)
}

func TestLoadDataset_Files(t *testing.T) {
	reg := writeFile(t, "calles.json", registryJSON)
	geo := writeFile(t, "tigre.geojson", geoJSON)

	ds, err := LoadDataset(context.Background(), reg, geo)
	require.NoError(t, err)
	assert.Len(t, ds.Registry, 4)
	assert.Len(t, ds.Geo.Features, 1)
	assert.Equal(t, Fingerprint([]byte(registryJSON), []byte(geoJSON)), ds.Version)
	assert.Contains(t, ds.Version, "sha256:")
}

func TestLoadDataset_MissingFile(t *testing.T) {
	_, err := LoadDataset(context.Background(), "/nonexistent/calles.json", "/nonexistent/tigre.geojson")
	assert.ErrorIs(t, err, ErrLoad)

	_, err = Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadRegistry_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/csvjson.json":
			_, _ = w.Write([]byte(registryJSON))
		case "/tigre.geojson":
			_, _ = w.Write([]byte(geoJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	calles, err := LoadRegistry(context.Background(), srv.URL+"/csvjson.json")
	require.NoError(t, err)
	assert.Len(t, calles, 4)

	geo, err := LoadGeoJSON(context.Background(), srv.URL+"/tigre.geojson")
	require.NoError(t, err)
	assert.Len(t, geo.Features, 1)

	_, err = LoadRegistry(context.Background(), srv.URL+"/missing.json")
	assert.ErrorIs(t, err, ErrLoad)
}

func TestFingerprint_DistinguishesBoundaries(t *testing.T) {
	assert.NotEqual(t, Fingerprint([]byte("ab"), []byte("c")), Fingerprint([]byte("a"), []byte("bc")))
}

func TestMunicipios(t *testing.T) {
	calles, err := ParseRegistry([]byte(registryJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"San Fernando", "Tigre"}, Municipios(calles))
	assert.Empty(t, Municipios(nil))
}

func TestHasMunicipio(t *testing.T) {
	calles := []models.Calle{{Municipio: "Vicente López"}}
	assert.True(t, HasMunicipio(calles, "vicente lopez"))
	assert.False(t, HasMunicipio(calles, "tigre"))
}
