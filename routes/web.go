package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

// SetupWebRoutes registers the informational pages.
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Calles con nombre de mujer",
				"version": "1.0.0",
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "Calles API v1",
				"endpoints": map[string]string{
					"municipios":  "GET /v1/story/municipios",
					"steps":       "GET /v1/story/steps",
					"geojson":     "GET /v1/story/:municipio/geojson?gzip=1",
					"stats":       "GET /v1/story/:municipio/stats",
					"step":        "GET /v1/story/:municipio/steps/:step",
					"highlight":   "GET /v1/story/:municipio/steps/:step/highlight",
					"report":      "GET /v1/story/:municipio/report",
					"suggestions": "GET /v1/story/:municipio/suggestions",
					"gallery":     "GET /v1/gallery?max=24",
					"search":      "GET /v1/calles/search?q=&municipio=",
					"export":      "GET /v1/export/:type?municipio=&format=csv|json",
					"health":      "GET /v1/health",
				},
			})
		})

		web.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "running",
				"service": "calles-genero",
				"uptime":  time.Since(startedAt).Round(time.Second).String(),
			})
		})
	}
}
