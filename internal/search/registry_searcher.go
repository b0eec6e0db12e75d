package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/calles-genero/app/models"
	"github.com/calles-genero/helpers/utils"
	"github.com/calles-genero/internal/normalizer"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("empty search query")

const seedBatchSize = 1000

// SearchConfig configures the Meilisearch connection.
type SearchConfig struct {
	Host      string
	APIKey    string
	IndexName string
	Timeout   time.Duration
	MaxHits   int
}

// CalleDoc is the indexed form of a registry row.
type CalleDoc struct {
	ID            string `json:"id"`
	Nombre        string `json:"nombre"`
	NombreNorm    string `json:"nombre_norm"`
	Genero        string `json:"genero"`
	Categoria     string `json:"categoria"`
	Distrito      string `json:"distrito"`
	Municipio     string `json:"municipio"`
	MunicipioSlug string `json:"municipio_slug"`
	Seq           int    `json:"seq"`
}

// RegistrySearcher searches registry rows by name.
type RegistrySearcher struct {
	client    meilisearch.ServiceManager
	logger    *zap.Logger
	indexName string
	maxHits   int
	timeout   time.Duration // wait for settings tasks, 0 to not wait
}

// NewRegistrySearcher connects to Meilisearch.
func NewRegistrySearcher(config SearchConfig, logger *zap.Logger) (*RegistrySearcher, error) {
	client, err := NewClient(config.Host, config.APIKey)
	if err != nil {
		return nil, err
	}
	maxHits := config.MaxHits
	if maxHits <= 0 {
		maxHits = 20
	}
	return &RegistrySearcher{
		client:    client,
		logger:    logger,
		indexName: config.IndexName,
		maxHits:   maxHits,
		timeout:   config.Timeout,
	}, nil
}

// BuildIndexes applies the index settings.
func (rs *RegistrySearcher) BuildIndexes() error {
	index := rs.client.Index(rs.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"nombre", "nombre_norm", "distrito"},
		FilterableAttributes: []string{"municipio_slug", "genero", "categoria"},
		SortableAttributes:   []string{"seq", "nombre"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		StopWords:            normalizer.Stopwords,
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  4,
				TwoTypos: 8,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("configure index %s: %w", rs.indexName, err)
	}

	rs.logger.Info("Meilisearch index configured",
		zap.String("index", rs.indexName),
		zap.Int64("task_uid", task.TaskUID))

	if rs.timeout > 0 {
		return rs.WaitForTask(task.TaskUID, rs.timeout)
	}
	return nil
}

// WaitForTask polls task taskUID until it succeeds, fails or timeout passes.
func (rs *RegistrySearcher) WaitForTask(taskUID int64, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		task, err := rs.client.GetTask(taskUID)
		if err != nil {
			return fmt.Errorf("check task %d: %w", taskUID, err)
		}
		switch task.Status {
		case meilisearch.TaskStatusSucceeded:
			return nil
		case meilisearch.TaskStatusFailed, meilisearch.TaskStatusCanceled:
			return fmt.Errorf("task %d %s: %v", taskUID, task.Status, task.Error)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("task %d still %s after %s", taskUID, task.Status, timeout)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// Count returns the estimated number of indexed documents.
func (rs *RegistrySearcher) Count() (int64, error) {
	result, err := rs.client.Index(rs.indexName).Search("", &meilisearch.SearchRequest{Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return result.EstimatedTotalHits, nil
}

// SeedData indexes the registry in batches and returns the document count.
func (rs *RegistrySearcher) SeedData(calles []models.Calle) (int, error) {
	if len(calles) == 0 {
		return 0, errors.New("no registry rows to index")
	}

	index := rs.client.Index(rs.indexName)
	docs := BuildDocuments(calles)

	for i := 0; i < len(docs); i += seedBatchSize {
		end := i + seedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		task, err := index.AddDocuments(docs[i:end], "id")
		if err != nil {
			return i, fmt.Errorf("index documents %d-%d: %w", i, end, err)
		}
		rs.logger.Info("Indexed registry batch",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}

	rs.logger.Info("Registry indexed", zap.Int("total_documents", len(docs)))
	return len(docs), nil
}

// Search finds registry rows matching query, optionally within municipio.
func (rs *RegistrySearcher) Search(query, municipio string, limit int) ([]models.Calle, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 || limit > rs.maxHits {
		limit = rs.maxHits
	}

	req := &meilisearch.SearchRequest{Limit: int64(limit)}
	if municipio != "" {
		req.Filter = FilterMunicipio(normalizer.FoldAccents(municipio))
	}

	result, err := rs.client.Index(rs.indexName).Search(query, req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return parseHits(result.Hits), nil
}

// BuildDocuments converts registry rows to index documents. IDs combine the
// municipality slug and the row position, so reseeding replaces documents.
func BuildDocuments(calles []models.Calle) []CalleDoc {
	docs := make([]CalleDoc, 0, len(calles))
	for i, c := range calles {
		muni := utils.Slugify(c.Municipio, "_")
		if muni == "" {
			muni = "sin_municipio"
		}
		docs = append(docs, CalleDoc{
			ID:            fmt.Sprintf("%s-%06d", muni, i),
			Nombre:        c.Nombre,
			NombreNorm:    normalizer.NormalizeStreetName(c.Nombre),
			Genero:        c.Genero,
			Categoria:     c.Categoria,
			Distrito:      c.Distrito,
			Municipio:     c.Municipio,
			MunicipioSlug: normalizer.FoldAccents(c.Municipio),
			Seq:           i,
		})
	}
	return docs
}

func parseHits(hits []interface{}) []models.Calle {
	calles := make([]models.Calle, 0, len(hits))
	for _, hit := range hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		var c models.Calle
		if v, ok := hitMap["nombre"].(string); ok {
			c.Nombre = v
		}
		if v, ok := hitMap["genero"].(string); ok {
			c.Genero = v
		}
		if v, ok := hitMap["categoria"].(string); ok {
			c.Categoria = v
		}
		if v, ok := hitMap["distrito"].(string); ok {
			c.Distrito = v
		}
		if v, ok := hitMap["municipio"].(string); ok {
			c.Municipio = v
		}
		calles = append(calles, c)
	}
	return calles
}
