package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/calles-genero/app/responses"
	"github.com/calles-genero/app/services"
	"github.com/calles-genero/internal/loader"
	"github.com/calles-genero/internal/search"
	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// respondError maps service errors to status codes and error bodies.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, services.ErrDatasetNotLoaded):
		status, code = http.StatusServiceUnavailable, "DATASET_NOT_LOADED"
	case errors.Is(err, services.ErrSearchDisabled):
		status, code = http.StatusServiceUnavailable, "SEARCH_DISABLED"
	case errors.Is(err, services.ErrUnknownMunicipio):
		status, code = http.StatusNotFound, "UNKNOWN_MUNICIPIO"
	case errors.Is(err, services.ErrUnknownExport):
		status, code = http.StatusNotFound, "UNKNOWN_EXPORT"
	case errors.Is(err, services.ErrUnknownFormat):
		status, code = http.StatusBadRequest, "INVALID_FORMAT"
	case errors.Is(err, search.ErrEmptyQuery):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, loader.ErrLoad):
		status, code = http.StatusBadGateway, "LOAD_ERROR"
	}
	abortWith(c, status, code, err.Error())
}

func abortWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: c.GetString(RequestIDKey),
	})
}

func badRequest(c *gin.Context, err error) {
	abortWith(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request: "+err.Error())
}
