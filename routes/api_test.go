package routes

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/calles-genero/app/config"
	"github.com/calles-genero/app/controllers"
	"github.com/calles-genero/app/models"
	"github.com/calles-genero/app/responses"
	"github.com/calles-genero/app/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const registryJSON = `[
  {"distrito": "Tigre", "nombre": "Maria Curie", "genero": "F", "categoria": "ciencia", "municipio": "Tigre"},
  {"distrito": "Tigre", "nombre": "San Martín", "genero": "M", "categoria": "próceres", "municipio": "Tigre"},
  {"distrito": "Don Torcuato", "nombre": "Juana Azurduy", "genero": "F", "categoria": "próceres", "municipio": "Tigre"},
  {"distrito": "Martínez", "nombre": "Rivadavia", "genero": "M", "categoria": "políticos", "municipio": "San Isidro"}
]`

const networkJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"osm_id": 10, "name": "Pje. Maria Curie"}, "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}},
    {"type": "Feature", "properties": {"osm_id": 11, "name": "Avenida San Martín"}, "geometry": null},
    {"type": "Feature", "properties": {"osm_id": 12, "name": "Rivadavia"}, "geometry": null},
    {"type": "Feature", "properties": {"osm_id": 13}, "geometry": null}
  ]
}`

type testServer struct {
	router *gin.Engine
	story  *services.StoryService
}

func newTestServer(t *testing.T, load bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	reg := filepath.Join(dir, "calles.json")
	geo := filepath.Join(dir, "red.geojson")
	require.NoError(t, os.WriteFile(reg, []byte(registryJSON), 0o644))
	require.NoError(t, os.WriteFile(geo, []byte(networkJSON), 0o644))

	logger := zap.NewNop()
	story, err := services.NewStoryService(reg, geo, config.Defaults(), nil, services.NewCacheService(time.Hour), logger)
	require.NoError(t, err)
	if load {
		_, err = story.Reload(context.Background())
		require.NoError(t, err)
	}

	admin := services.NewAdminService(story, nil, nil, logger)
	router := gin.New()
	SetupAllRoutes(router,
		controllers.NewStoryController(story, admin, "test", logger),
		controllers.NewAdminController(admin, logger))
	return &testServer{router: router, story: story}
}

func (ts *testServer) do(method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRoutes_NotLoaded(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodGet, "/v1/story/tigre/stats", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode[responses.ErrorResponse](t, w)
	assert.Equal(t, "DATASET_NOT_LOADED", body.Error)
	assert.NotEmpty(t, body.RequestID)

	assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/live", nil).Code)

	health := decode[responses.HealthCheckResponse](t, ts.do(http.MethodGet, "/health", nil))
	assert.Equal(t, "not_loaded", health.Services["dataset"])

	w = ts.do(http.MethodPost, "/v1/admin/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ts.story.Loaded())
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/ready", nil).Code)
}

func TestRoutes_Municipios(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(http.MethodGet, "/v1/story/municipios", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[responses.MunicipiosResponse](t, w)
	assert.Equal(t, []string{"San Isidro", "Tigre"}, body.Municipios)
	assert.Equal(t, "tigre", body.Default)
}

func TestRoutes_Steps(t *testing.T) {
	ts := newTestServer(t, true)

	body := decode[responses.StepsResponse](t, ts.do(http.MethodGet, "/v1/story/steps", nil))
	assert.Len(t, body.Steps, 5)
}

func TestRoutes_Stats(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(http.MethodGet, "/v1/story/tigre/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[responses.StatsResponse](t, w)
	assert.Equal(t, "tigre", body.Municipio)
	assert.Equal(t, models.Stats{
		TotalCalles:      4,
		CallesConNombre:  3,
		CallesPersona:    2,
		CallesMasculinas: 1,
		CallesFemeninas:  1,
	}, body.Stats)

	w = ts.do(http.MethodGet, "/v1/story/pilar/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNKNOWN_MUNICIPIO", decode[responses.ErrorResponse](t, w).Error)
}

func TestRoutes_Step(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(http.MethodGet, "/v1/story/tigre/steps/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[models.StepView](t, w)
	assert.Equal(t, "mujeres", view.Name)
	assert.Equal(t, "1 dedicadas a mujeres", view.Counter.Texto)
	assert.Equal(t, "50.0% de las calles de personas", view.Counter.Detalle)
	assert.Equal(t, 1, view.HighlightCount)

	w = ts.do(http.MethodGet, "/v1/story/tigre/steps/dos", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STEP", decode[responses.ErrorResponse](t, w).Error)
}

func TestRoutes_GeoJSON(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(http.MethodGet, "/v1/story/tigre/geojson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	var geo struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &geo))
	require.Len(t, geo.Features, 4)
	assert.Equal(t, "F", geo.Features[0].Properties["genero"])
	assert.Equal(t, true, geo.Features[0].Properties["matched"])
	assert.Equal(t, float64(10), geo.Features[0].Properties["osm_id"])
	assert.Equal(t, "otro", geo.Features[2].Properties["genero"])
	assert.Equal(t, false, geo.Features[3].Properties["hasName"])
}

func TestRoutes_GeoJSONGzip(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(http.MethodGet, "/v1/story/tigre/steps/1/highlight?gzip=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	var geo models.EnrichedCollection
	require.NoError(t, json.Unmarshal(raw, &geo))
	assert.Len(t, geo.Features, 2)
}

func TestRoutes_ReportAndSuggestions(t *testing.T) {
	ts := newTestServer(t, true)

	report := decode[responses.ReportResponse](t, ts.do(http.MethodGet, "/v1/story/tigre/report", nil))
	assert.Equal(t, 2, report.Report.Summary.TotalUnicas)

	w := ts.do(http.MethodGet, "/v1/story/tigre/suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[responses.SuggestionsResponse](t, w)
	assert.Equal(t, len(body.Suggestions), body.Total)
}

func TestRoutes_Gallery(t *testing.T) {
	ts := newTestServer(t, true)

	body := decode[responses.GalleryResponse](t, ts.do(http.MethodGet, "/v1/gallery?max=1", nil))
	require.Len(t, body.Gallery, 1)
	assert.Equal(t, "Maria Curie", body.Gallery[0].Nombre)

	all := decode[responses.GalleryResponse](t, ts.do(http.MethodGet, "/v1/gallery", nil))
	assert.Equal(t, 2, all.Total)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/v1/gallery?max=501", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/v1/gallery?max=abc", nil).Code)
}

func TestRoutes_Export(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(http.MethodGet, "/v1/export/stats?municipio=tigre", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="stats-tigre.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "totalCalles,callesConNombre"))

	w = ts.do(http.MethodGet, "/v1/export/gallery?format=json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []models.GalleryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/v1/export/nada", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/v1/export/stats?format=xml", nil).Code)
}

func TestRoutes_SearchDisabled(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(http.MethodGet, "/v1/calles/search?q=curie", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SEARCH_DISABLED", decode[responses.ErrorResponse](t, w).Error)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/v1/calles/search", nil).Code)
}

func TestRoutes_Admin(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(http.MethodPost, "/v1/admin/seed", strings.NewReader(`{"rebuild_indexes": true}`))
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPost, "/v1/admin/cache/invalidate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(http.MethodPost, "/v1/admin/cache/invalidate", strings.NewReader(`{"all": true}`))
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(http.MethodPost, "/v1/admin/cache/invalidate", strings.NewReader(`{"all": `))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodPost, "/v1/admin/indexes/build", nil).Code)

	w = ts.do(http.MethodGet, "/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[services.SystemStats](t, w)
	assert.Equal(t, 4, stats.Calles)
	assert.Equal(t, ts.story.Version(), stats.DatasetVersion)
}

func TestRoutes_RequestIDAndNoRoute(t *testing.T) {
	ts := newTestServer(t, true)

	id := "6f1c1b9e-7d4a-4f58-9a57-0d8e2c1f3b21"
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("X-Request-ID", id)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))

	w = ts.do(http.MethodGet, "/live", nil)
	assert.NotEqual(t, id, w.Header().Get("X-Request-ID"))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	w = ts.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ROUTE_NOT_FOUND")
}

func TestWebRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	for _, path := range []string{"/", "/docs", "/status"} {
		assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, path, nil).Code, path)
	}
}
