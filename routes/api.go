package routes

import (
	"net/http"

	"github.com/calles-genero/app/controllers"
	"github.com/calles-genero/helpers/utils"
	"github.com/gin-gonic/gin"
)

const requestIDHeader = "X-Request-ID"

// SetupAPIRoutes registers the /v1 routes.
func SetupAPIRoutes(router *gin.Engine, storyController *controllers.StoryController, adminController *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		st := v1.Group("/story")
		{
			st.GET("/municipios", storyController.Municipios)
			st.GET("/steps", storyController.Steps)
			st.GET("/:municipio/geojson", storyController.GeoJSON)
			st.GET("/:municipio/stats", storyController.Stats)
			st.GET("/:municipio/steps/:step", storyController.Step)
			st.GET("/:municipio/steps/:step/highlight", storyController.Highlight)
			st.GET("/:municipio/report", storyController.Report)
			st.GET("/:municipio/suggestions", storyController.Suggestions)
		}

		v1.GET("/gallery", storyController.Gallery)
		v1.GET("/calles/search", storyController.Search)
		v1.GET("/export/:type", storyController.Export)

		admin := v1.Group("/admin")
		{
			admin.POST("/reload", adminController.Reload)
			admin.POST("/seed", adminController.Seed)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.POST("/indexes/build", adminController.BuildIndexes)
			admin.GET("/stats", adminController.GetStats)
		}

		v1.GET("/health", storyController.HealthCheck)
	}
}

// SetupHealthRoutes registers the probes.
func SetupHealthRoutes(router *gin.Engine, storyController *controllers.StoryController) {
	router.GET("/health", storyController.HealthCheck)
	router.GET("/ready", storyController.Ready)
	router.GET("/live", storyController.Live)
}

// SetupAllRoutes installs middleware and every route group.
func SetupAllRoutes(router *gin.Engine, storyController *controllers.StoryController, adminController *controllers.AdminController) {
	setupMiddleware(router)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, storyController)
	SetupAPIRoutes(router, storyController, adminController)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "ROUTE_NOT_FOUND",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString(controllers.RequestIDKey),
		})
	})
}

func setupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(requestID())
}

// requestID keeps a valid incoming X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if !utils.IsValidUUID(id) {
			id = utils.GenerateUUID()
		}
		c.Set(controllers.RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
