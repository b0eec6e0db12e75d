package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/calles-genero/app/config"
	"github.com/calles-genero/app/models"
	"github.com/calles-genero/helpers/utils"
	"github.com/calles-genero/internal/annotator"
	"github.com/calles-genero/internal/export"
	"github.com/calles-genero/internal/gallery"
	"github.com/calles-genero/internal/loader"
	"github.com/calles-genero/internal/matcher"
	"github.com/calles-genero/internal/normalizer"
	"github.com/calles-genero/internal/story"
	"github.com/calles-genero/internal/suggest"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var (
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	ErrUnknownMunicipio = errors.New("unknown municipio")
	ErrUnknownExport    = errors.New("unknown export type")
	ErrUnknownFormat    = errors.New("unknown export format")
)

// Export types.
const (
	ExportStats       = "stats"
	ExportGallery     = "gallery"
	ExportCalles      = "calles"
	ExportReport      = "report"
	ExportSuggestions = "suggestions"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// annotation is one municipality's annotated network.
type annotation struct {
	matcher *matcher.NameMatcher
	geo     *models.EnrichedCollection
}

// StoryService serves the story of one loaded dataset: annotation,
// statistics, narrative steps, gallery and exports.
type StoryService struct {
	registrySrc string
	geoSrc      string
	cfg         config.StoryCfg
	steps       []models.StoryStep
	cache       ICacheService
	logger      *zap.Logger

	mu      sync.RWMutex
	dataset *loader.Dataset

	// keyed by dataset version and municipio slug
	annotated *lru.Cache[string, *annotation]
}

// NewStoryService builds a service reading from registrySrc and geoSrc.
// Nothing is loaded until Reload or Use.
func NewStoryService(registrySrc, geoSrc string, cfg config.StoryCfg, steps []models.StoryStep, cache ICacheService, logger *zap.Logger) (*StoryService, error) {
	size := cfg.AnnotatedCache
	if size <= 0 {
		size = 1
	}
	annotated, err := lru.New[string, *annotation](size)
	if err != nil {
		return nil, fmt.Errorf("create annotation cache: %w", err)
	}
	if cache == nil {
		cache = NewCacheService(cfg.SummaryTTLDuration())
	}
	if len(steps) == 0 {
		if steps, err = story.DefaultSteps(); err != nil {
			return nil, err
		}
	}

	return &StoryService{
		registrySrc: registrySrc,
		geoSrc:      geoSrc,
		cfg:         cfg,
		steps:       steps,
		cache:       cache,
		logger:      logger,
		annotated:   annotated,
	}, nil
}

// Reload fetches both sources again and swaps the dataset in. The current
// dataset stays in place when loading fails.
func (ss *StoryService) Reload(ctx context.Context) (*loader.Dataset, error) {
	start := time.Now()
	ds, err := loader.LoadDataset(ctx, ss.registrySrc, ss.geoSrc)
	if err != nil {
		ss.logger.Error("Dataset reload failed",
			zap.String("registry", ss.registrySrc),
			zap.String("geojson", ss.geoSrc),
			zap.Error(err))
		return nil, err
	}

	ss.Use(ctx, ds)
	ss.logger.Info("Dataset loaded",
		zap.String("version", ds.Version),
		zap.Int("calles", len(ds.Registry)),
		zap.Int("segmentos", len(ds.Geo.Features)),
		zap.Duration("took", time.Since(start)))
	return ds, nil
}

// Use installs ds as the current dataset and drops summaries of older ones.
func (ss *StoryService) Use(ctx context.Context, ds *loader.Dataset) {
	ss.mu.Lock()
	ss.dataset = ds
	ss.mu.Unlock()

	ss.annotated.Purge()
	if err := ss.cache.InvalidateByDatasetVersion(ctx, ds.Version); err != nil {
		ss.logger.Warn("Could not invalidate summaries", zap.String("version", ds.Version), zap.Error(err))
	}
}

func (ss *StoryService) current() (*loader.Dataset, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	if ss.dataset == nil {
		return nil, ErrDatasetNotLoaded
	}
	return ss.dataset, nil
}

// Loaded reports whether a dataset is in place.
func (ss *StoryService) Loaded() bool {
	_, err := ss.current()
	return err == nil
}

// Version returns the current dataset fingerprint, "" before the first load.
func (ss *StoryService) Version() string {
	ds, err := ss.current()
	if err != nil {
		return ""
	}
	return ds.Version
}

// Registry returns the loaded registry rows.
func (ss *StoryService) Registry() ([]models.Calle, error) {
	ds, err := ss.current()
	if err != nil {
		return nil, err
	}
	return ds.Registry, nil
}

func (ss *StoryService) Steps() []models.StoryStep { return ss.steps }

func (ss *StoryService) DefaultMunicipio() string { return ss.cfg.DefaultMunicipio }

func (ss *StoryService) Cache() ICacheService { return ss.cache }

// Municipios lists the municipalities present in the registry.
func (ss *StoryService) Municipios() ([]string, error) {
	ds, err := ss.current()
	if err != nil {
		return nil, err
	}
	return loader.Municipios(ds.Registry), nil
}

// resolve returns the folded slug of municipio, the configured default when
// blank.
func (ss *StoryService) resolve(ds *loader.Dataset, municipio string) (string, error) {
	municipio = strings.TrimSpace(municipio)
	if municipio == "" {
		municipio = ss.cfg.DefaultMunicipio
	}
	if !loader.HasMunicipio(ds.Registry, municipio) {
		return "", fmt.Errorf("%w: %s", ErrUnknownMunicipio, municipio)
	}
	return normalizer.FoldAccents(municipio), nil
}

func (ss *StoryService) annotation(municipio string) (*annotation, string, *loader.Dataset, error) {
	ds, err := ss.current()
	if err != nil {
		return nil, "", nil, err
	}
	slug, err := ss.resolve(ds, municipio)
	if err != nil {
		return nil, "", nil, err
	}

	key := ds.Version + "|" + slug
	if a, ok := ss.annotated.Get(key); ok {
		return a, slug, ds, nil
	}

	start := time.Now()
	m := matcher.NewNameMatcher(ds.Registry, slug, ss.cfg.MatcherMemoSize)
	a := &annotation{matcher: m, geo: annotator.AnnotateWith(ds.Geo, m)}
	ss.annotated.Add(key, a)

	ss.logger.Debug("Annotated municipio",
		zap.String("municipio", slug),
		zap.Int("entries", len(m.Entries())),
		zap.Int("segmentos", len(a.geo.Features)),
		zap.Duration("took", time.Since(start)))
	return a, slug, ds, nil
}

// Annotated returns the enriched network of municipio.
func (ss *StoryService) Annotated(ctx context.Context, municipio string) (*models.EnrichedCollection, error) {
	a, _, _, err := ss.annotation(municipio)
	if err != nil {
		return nil, err
	}
	return a.geo, nil
}

// Summary returns stats and report of municipio, through the summary cache.
func (ss *StoryService) Summary(ctx context.Context, municipio string) (*models.StorySummary, error) {
	ds, err := ss.current()
	if err != nil {
		return nil, err
	}
	slug, err := ss.resolve(ds, municipio)
	if err != nil {
		return nil, err
	}

	key := SummaryKey(ds.Version, slug)
	if cached, found, err := ss.cache.Get(ctx, key); err != nil {
		ss.logger.Warn("Summary cache read failed", zap.String("key", key), zap.Error(err))
	} else if found {
		return cached, nil
	}

	a, _, _, err := ss.annotation(slug)
	if err != nil {
		return nil, err
	}
	summary := &models.StorySummary{
		Municipio:      slug,
		DatasetVersion: ds.Version,
		Stats:          story.Aggregate(a.geo.Features),
		Report:         story.Report(a.geo.Features),
		GeneratedAt:    time.Now(),
	}
	if err := ss.cache.Set(ctx, key, summary); err != nil {
		ss.logger.Warn("Summary cache write failed", zap.String("key", key), zap.Error(err))
	}
	return summary, nil
}

func (ss *StoryService) Stats(ctx context.Context, municipio string) (models.Stats, error) {
	summary, err := ss.Summary(ctx, municipio)
	if err != nil {
		return models.Stats{}, err
	}
	return summary.Stats, nil
}

func (ss *StoryService) Report(ctx context.Context, municipio string) (models.MatchReport, error) {
	summary, err := ss.Summary(ctx, municipio)
	if err != nil {
		return models.MatchReport{}, err
	}
	return summary.Report, nil
}

// Step resolves scroll step idx of municipio.
func (ss *StoryService) Step(ctx context.Context, municipio string, idx int) (*models.StepView, error) {
	summary, err := ss.Summary(ctx, municipio)
	if err != nil {
		return nil, err
	}
	a, _, _, err := ss.annotation(municipio)
	if err != nil {
		return nil, err
	}

	step := story.StepFromIndex(idx)
	view := &models.StepView{
		Step:           idx,
		Name:           step.String(),
		Counter:        story.CounterFor(summary.Stats, step),
		HighlightCount: len(story.HighlightFor(a.geo.Features, step)),
	}
	if idx >= 0 && idx < len(ss.steps) {
		view.Title = ss.steps[idx].Title
		view.Message = ss.steps[idx].Message
	}
	return view, nil
}

// Highlight returns the segments emphasized at step idx of municipio.
func (ss *StoryService) Highlight(ctx context.Context, municipio string, idx int) (*models.EnrichedCollection, error) {
	a, _, _, err := ss.annotation(municipio)
	if err != nil {
		return nil, err
	}
	return a.geo.WithFeatures(story.HighlightFor(a.geo.Features, story.StepFromIndex(idx))), nil
}

// Suggestions proposes registry rows for the unmatched names of municipio.
func (ss *StoryService) Suggestions(ctx context.Context, municipio string) ([]models.Suggestion, error) {
	a, _, _, err := ss.annotation(municipio)
	if err != nil {
		return nil, err
	}
	return suggest.Suggest(a.geo.Features, a.matcher, suggest.Config{
		MinSimilarity: ss.cfg.Suggest.MinSimilarity,
		TopK:          ss.cfg.Suggest.TopK,
		Limit:         ss.cfg.Suggest.Limit,
	}), nil
}

// Gallery returns the women most often honored across the registry. A
// non-positive max uses the configured size.
func (ss *StoryService) Gallery(max int) ([]models.GalleryEntry, error) {
	ds, err := ss.current()
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = ss.cfg.GalleryMax
	}
	return gallery.BuildGallery(ds.Registry, max), nil
}

// callesOf returns the registry rows of municipio in registry order.
func (ss *StoryService) callesOf(municipio string) ([]models.Calle, error) {
	ds, err := ss.current()
	if err != nil {
		return nil, err
	}
	slug, err := ss.resolve(ds, municipio)
	if err != nil {
		return nil, err
	}
	out := make([]models.Calle, 0)
	for _, c := range ds.Registry {
		if normalizer.FoldAccents(c.Municipio) == slug {
			out = append(out, c)
		}
	}
	return out, nil
}

// Export renders one of the export types as CSV or JSON.
func (ss *StoryService) Export(ctx context.Context, kind, format, municipio string) (*ExportFile, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatJSON {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	var (
		data any
		err  error
	)
	switch kind {
	case ExportStats:
		var stats models.Stats
		stats, err = ss.Stats(ctx, municipio)
		data = []models.Stats{stats}
	case ExportGallery:
		data, err = ss.Gallery(0)
	case ExportCalles:
		data, err = ss.callesOf(municipio)
	case ExportReport:
		var report models.MatchReport
		report, err = ss.Report(ctx, municipio)
		data = report.Calles
	case ExportSuggestions:
		data, err = ss.Suggestions(ctx, municipio)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExport, kind)
	}
	if err != nil {
		return nil, err
	}

	name := kind
	if kind != ExportGallery {
		if municipio == "" {
			municipio = ss.cfg.DefaultMunicipio
		}
		name = kind + " " + municipio
	}
	file := &ExportFile{Filename: utils.Slugify(name, "-") + "." + format}

	if format == FormatJSON {
		file.ContentType = "application/json"
		file.Body, err = json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s export: %w", kind, err)
		}
		return file, nil
	}

	records, err := export.RecordsFrom(data)
	if err != nil {
		return nil, fmt.Errorf("convert %s export: %w", kind, err)
	}
	file.ContentType = "text/csv; charset=utf-8"
	file.Body = []byte(export.DataAsCSV(records))
	return file, nil
}
