package responses

import "github.com/calles-genero/app/models"

// MunicipiosResponse lists the registry municipalities.
type MunicipiosResponse struct {
	Municipios []string `json:"municipios"`
	Default    string   `json:"default"`
}

// StepsResponse is the narrative table.
type StepsResponse struct {
	Steps []models.StoryStep `json:"steps"`
}

// StatsResponse carries the statistics of one municipality.
type StatsResponse struct {
	Municipio      string       `json:"municipio"`
	DatasetVersion string       `json:"dataset_version"`
	Stats          models.Stats `json:"stats"`
}

// ReportResponse carries the match report of one municipality.
type ReportResponse struct {
	Municipio string             `json:"municipio"`
	Report    models.MatchReport `json:"report"`
}

type SuggestionsResponse struct {
	Municipio   string              `json:"municipio"`
	Suggestions []models.Suggestion `json:"suggestions"`
	Total       int                 `json:"total"`
}

type GalleryResponse struct {
	Gallery []models.GalleryEntry `json:"gallery"`
	Total   int                   `json:"total"`
}

type SearchResponse struct {
	Query     string         `json:"query"`
	Municipio string         `json:"municipio,omitempty"`
	Calles    []models.Calle `json:"calles"`
	Total     int            `json:"total"`
}

// ReloadResponse reports a dataset reload.
type ReloadResponse struct {
	DatasetVersion   string `json:"dataset_version"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	Message          string `json:"message"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error     string      `json:"error"`             // error code
	Message   string      `json:"message"`           // human readable
	Details   interface{} `json:"details,omitempty"` // optional context
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// HealthCheckResponse is the body of /health.
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}
