package controllers

import (
	"net/http"
	"time"

	"github.com/calles-genero/app/requests"
	"github.com/calles-genero/app/responses"
	"github.com/calles-genero/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController serves maintenance endpoints.
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// Reload fetches the registry and the road network again.
func (ac *AdminController) Reload(c *gin.Context) {
	startTime := time.Now()

	version, err := ac.adminService.Reload(c.Request.Context())
	if err != nil {
		ac.logger.Error("Dataset reload failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.ReloadResponse{
		DatasetVersion:   version,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		Message:          "dataset reloaded",
	})
}

// Seed copies the registry into MongoDB and Meilisearch.
func (ac *AdminController) Seed(c *gin.Context) {
	var req requests.SeedRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := ac.adminService.Seed(c.Request.Context(), req.RebuildIndexes)
	if err != nil {
		ac.logger.Error("Registry seed failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "registry seeded",
		Data:      result,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// InvalidateCache drops summaries of older dataset versions, or all of them.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	startTime := time.Now()

	if err := ac.adminService.InvalidateCache(c.Request.Context(), req.All); err != nil {
		ac.logger.Error("Cache invalidation failed", zap.Error(err))
		respondError(c, err)
		return
	}

	processingTime := time.Since(startTime)
	ac.logger.Info("Cache invalidated", zap.Bool("all", req.All), zap.Duration("duration", processingTime))

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "cache invalidated",
		Data: map[string]interface{}{
			"all":                req.All,
			"processing_time_ms": processingTime.Milliseconds(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		ac.logger.Error("System stats failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// BuildIndexes applies the Meilisearch index settings.
func (ac *AdminController) BuildIndexes(c *gin.Context) {
	startTime := time.Now()

	if err := ac.adminService.BuildIndexes(); err != nil {
		ac.logger.Error("Index build failed", zap.Error(err))
		respondError(c, err)
		return
	}

	processingTime := time.Since(startTime)
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "indexes built",
		Data: map[string]interface{}{
			"processing_time_ms": processingTime.Milliseconds(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// bindOptionalJSON binds a JSON body when one is sent.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}
