package requests

// MunicipioQuery selects a municipality; blank uses the configured default.
type MunicipioQuery struct {
	Municipio string `form:"municipio"`
}

// GalleryQuery sizes the women gallery.
type GalleryQuery struct {
	Max int `form:"max" binding:"omitempty,min=1,max=500"`
}

// SearchQuery is a registry search.
type SearchQuery struct {
	Q         string `form:"q" binding:"required"`
	Municipio string `form:"municipio"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ExportQuery selects municipality and format of a download.
type ExportQuery struct {
	Municipio string `form:"municipio"`
	Format    string `form:"format" binding:"omitempty,oneof=csv json"`
}

// SeedRequest triggers a registry seed into MongoDB and Meilisearch.
type SeedRequest struct {
	RebuildIndexes bool `json:"rebuild_indexes,omitempty"`
}

// InvalidateCacheRequest drops cached summaries.
type InvalidateCacheRequest struct {
	All bool `json:"all,omitempty"` // every summary, not only older dataset versions
}
