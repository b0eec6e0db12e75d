package controllers

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/calles-genero/app/models"
	"github.com/calles-genero/app/requests"
	"github.com/calles-genero/app/responses"
	"github.com/calles-genero/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const geoJSONContentType = "application/geo+json"

// StoryController serves the street-name story.
type StoryController struct {
	storyService *services.StoryService
	adminService *services.AdminService
	logger       *zap.Logger
	startTime    time.Time
	version      string
}

func NewStoryController(storyService *services.StoryService, adminService *services.AdminService, version string, logger *zap.Logger) *StoryController {
	return &StoryController{
		storyService: storyService,
		adminService: adminService,
		logger:       logger,
		startTime:    time.Now(),
		version:      version,
	}
}

// Municipios lists the municipalities of the registry.
func (sc *StoryController) Municipios(c *gin.Context) {
	municipios, err := sc.storyService.Municipios()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.MunicipiosResponse{
		Municipios: municipios,
		Default:    sc.storyService.DefaultMunicipio(),
	})
}

// Steps returns the narrative table.
func (sc *StoryController) Steps(c *gin.Context) {
	c.JSON(http.StatusOK, responses.StepsResponse{Steps: sc.storyService.Steps()})
}

// GeoJSON returns the annotated network. ?gzip=1 compresses the body.
func (sc *StoryController) GeoJSON(c *gin.Context) {
	geo, err := sc.storyService.Annotated(c.Request.Context(), c.Param("municipio"))
	if err != nil {
		respondError(c, err)
		return
	}
	sc.writeGeoJSON(c, geo)
}

func (sc *StoryController) Stats(c *gin.Context) {
	summary, err := sc.storyService.Summary(c.Request.Context(), c.Param("municipio"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.StatsResponse{
		Municipio:      summary.Municipio,
		DatasetVersion: summary.DatasetVersion,
		Stats:          summary.Stats,
	})
}

// Step resolves one scroll step: texts, counter and highlight size.
func (sc *StoryController) Step(c *gin.Context) {
	idx, ok := stepParam(c)
	if !ok {
		return
	}
	view, err := sc.storyService.Step(c.Request.Context(), c.Param("municipio"), idx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Highlight returns the segments emphasized at a step.
func (sc *StoryController) Highlight(c *gin.Context) {
	idx, ok := stepParam(c)
	if !ok {
		return
	}
	geo, err := sc.storyService.Highlight(c.Request.Context(), c.Param("municipio"), idx)
	if err != nil {
		respondError(c, err)
		return
	}
	sc.writeGeoJSON(c, geo)
}

func (sc *StoryController) Report(c *gin.Context) {
	summary, err := sc.storyService.Summary(c.Request.Context(), c.Param("municipio"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.ReportResponse{
		Municipio: summary.Municipio,
		Report:    summary.Report,
	})
}

func (sc *StoryController) Suggestions(c *gin.Context) {
	municipio := c.Param("municipio")
	suggestions, err := sc.storyService.Suggestions(c.Request.Context(), municipio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.SuggestionsResponse{
		Municipio:   municipio,
		Suggestions: suggestions,
		Total:       len(suggestions),
	})
}

// Gallery returns the women most often honored by street names.
func (sc *StoryController) Gallery(c *gin.Context) {
	var req requests.GalleryQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	entries, err := sc.storyService.Gallery(req.Max)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.GalleryResponse{Gallery: entries, Total: len(entries)})
}

// Search looks registry rows up by name through Meilisearch.
func (sc *StoryController) Search(c *gin.Context) {
	var req requests.SearchQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	calles, err := sc.adminService.Search(req.Q, req.Municipio, req.Limit)
	if err != nil {
		sc.logger.Warn("Registry search failed", zap.String("q", req.Q), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.SearchResponse{
		Query:     req.Q,
		Municipio: req.Municipio,
		Calles:    calles,
		Total:     len(calles),
	})
}

// Export downloads stats, gallery, calles, report or suggestions as CSV or
// JSON.
func (sc *StoryController) Export(c *gin.Context) {
	var req requests.ExportQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	file, err := sc.storyService.Export(c.Request.Context(), c.Param("type"), req.Format, req.Municipio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

// HealthCheck reports liveness and the state of the dataset.
func (sc *StoryController) HealthCheck(c *gin.Context) {
	datasetStatus := "loaded"
	if !sc.storyService.Loaded() {
		datasetStatus = "not_loaded"
	}
	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(sc.startTime).Round(time.Second).String(),
		Version:   sc.version,
		Services: map[string]string{
			"dataset":         datasetStatus,
			"dataset_version": sc.storyService.Version(),
		},
	})
}

// Ready fails until a dataset is loaded.
func (sc *StoryController) Ready(c *gin.Context) {
	if !sc.storyService.Loaded() {
		respondError(c, services.ErrDatasetNotLoaded)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "dataset_version": sc.storyService.Version()})
}

func (sc *StoryController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (sc *StoryController) writeGeoJSON(c *gin.Context, geo *models.EnrichedCollection) {
	if c.Query("gzip") != "1" {
		body, err := json.Marshal(geo)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, geoJSONContentType, body)
		return
	}

	c.Header("Content-Type", geoJSONContentType)
	c.Header("Content-Encoding", "gzip")
	c.Status(http.StatusOK)

	gz := gzip.NewWriter(c.Writer)
	defer gz.Close()
	if err := json.NewEncoder(gz).Encode(geo); err != nil {
		sc.logger.Error("GeoJSON encode failed", zap.Error(err))
	}
}

// stepParam parses :step; it writes a 400 and reports false when invalid.
func stepParam(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		abortWith(c, http.StatusBadRequest, "INVALID_STEP", "step must be an integer: "+c.Param("step"))
		return 0, false
	}
	return idx, true
}
