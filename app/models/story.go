package models

// Stats summarizes an annotated collection.
type Stats struct {
	TotalCalles      int `bson:"total_calles" json:"totalCalles"`           // all segments
	CallesConNombre  int `bson:"calles_con_nombre" json:"callesConNombre"`  // segments with a non-blank name
	CallesPersona    int `bson:"calles_persona" json:"callesPersona"`       // segments matched to a person
	CallesMasculinas int `bson:"calles_masculinas" json:"callesMasculinas"` // genero "M"
	CallesFemeninas  int `bson:"calles_femeninas" json:"callesFemeninas"`   // genero "F"
}

// StoryStep is one entry of the narrative table.
type StoryStep struct {
	Title   string `yaml:"title" json:"title"`
	Message string `yaml:"message" json:"message"`
}

// Counter is the headline figure shown for a narrative step.
type Counter struct {
	Texto   string `json:"texto"`
	Detalle string `json:"detalle"`
}

// GalleryEntry counts the streets named after one woman.
type GalleryEntry struct {
	Nombre string `json:"nombre"`
	Calles int    `json:"calles"`
}

// MatchedName is one distinct identified street name.
type MatchedName struct {
	Nombre string `bson:"nombre" json:"nombre"`
	Genero string `bson:"genero" json:"genero"`
}

// MatchReport lists the distinct street names that were identified.
type MatchReport struct {
	Calles  []MatchedName      `bson:"calles" json:"calles"`
	Summary MatchReportSummary `bson:"summary" json:"summary"`
}

type MatchReportSummary struct {
	Femeninas   int `bson:"femeninas" json:"femeninas"`
	Masculinas  int `bson:"masculinas" json:"masculinas"`
	TotalUnicas int `bson:"total_unicas" json:"total_unicas"`
}

// Suggestion is a registry candidate for an unmatched street name.
type Suggestion struct {
	Nombre    string  `json:"nombre"`    // unmatched segment name
	Candidato string  `json:"candidato"` // registry name
	Genero    string  `json:"genero"`    // registry genero of the candidate
	Similitud float64 `json:"similitud"` // Jaro-Winkler similarity of normalized names
	Distancia int     `json:"distancia"` // Levenshtein distance of normalized names
	Segmentos int     `json:"segmentos"` // segments carrying the unmatched name
}

// StepView is a resolved narrative step for one municipality.
type StepView struct {
	Step           int     `json:"step"`
	Name           string  `json:"name"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
	Counter        Counter `json:"counter"`
	HighlightCount int     `json:"highlight_count"`
}
