package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/calles-genero/app/config"
	"github.com/calles-genero/internal/annotator"
	"github.com/calles-genero/internal/export"
	"github.com/calles-genero/internal/loader"
	"github.com/calles-genero/internal/matcher"
	"github.com/calles-genero/internal/story"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type annotateOptions struct {
	registry  string
	geojson   string
	municipio string
	out       string
	statsCSV  string
	step      int
	report    bool
	memoSize  int
}

func newAnnotateCmd(logger func() *zap.Logger) *cobra.Command {
	opts := annotateOptions{}

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Attribute a gender to every named segment of a road network",
		Example: "  calles annotate --registry calles.json --geojson red_vial.geojson \\\n" +
			"    --municipio tigre --out anotado.geojson --stats-csv stats.csv --step 3",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnnotate(cmd, opts, logger())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.registry, "registry", "", "registry JSON file or URL")
	f.StringVar(&opts.geojson, "geojson", "", "road network GeoJSON file or URL")
	f.StringVar(&opts.municipio, "municipio", config.C.DefaultMunicipio, "municipality to match against")
	f.StringVar(&opts.out, "out", "", "write the annotated GeoJSON here")
	f.StringVar(&opts.statsCSV, "stats-csv", "", "write the statistics as CSV here")
	f.IntVar(&opts.step, "step", 0, "narrative step whose counter is printed")
	f.BoolVar(&opts.report, "report", false, "print the identified street names")
	f.IntVar(&opts.memoSize, "memo-size", matcher.DefaultMemoSize, "matcher memo entries, 0 disables it")
	_ = cmd.MarkFlagRequired("registry")
	_ = cmd.MarkFlagRequired("geojson")

	return cmd
}

func runAnnotate(cmd *cobra.Command, opts annotateOptions, logger *zap.Logger) error {
	start := time.Now()
	ds, err := loader.LoadDataset(cmd.Context(), opts.registry, opts.geojson)
	if err != nil {
		return err
	}
	logger.Debug("Dataset loaded",
		zap.String("version", ds.Version),
		zap.Int("calles", len(ds.Registry)),
		zap.Int("segmentos", len(ds.Geo.Features)))

	m := matcher.NewNameMatcher(ds.Registry, opts.municipio, opts.memoSize)
	if len(m.Entries()) == 0 {
		logger.Warn("No registry rows for municipio", zap.String("municipio", m.Municipio()))
	}
	geo := annotator.AnnotateWith(ds.Geo, m)
	stats := story.Aggregate(geo.Features)
	logger.Debug("Annotated", zap.Duration("took", time.Since(start)))

	if opts.out != "" {
		body, err := json.Marshal(geo)
		if err != nil {
			return fmt.Errorf("encode annotated geojson: %w", err)
		}
		if err := os.WriteFile(opts.out, body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.out, err)
		}
	}

	if opts.statsCSV != "" {
		records, err := export.RecordsFrom([]any{stats})
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.statsCSV, []byte(export.DataAsCSV(records)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.statsCSV, err)
		}
	}

	out := cmd.OutOrStdout()
	step := story.StepFromIndex(opts.step)
	counter := story.CounterFor(stats, step)
	fmt.Fprintf(out, "%s: %s (%s)\n", step, counter.Texto, counter.Detalle)

	if opts.report {
		report := story.Report(geo.Features)
		for _, c := range report.Calles {
			fmt.Fprintf(out, "%s\t%s\n", c.Genero, c.Nombre)
		}
		fmt.Fprintf(out, "femeninas=%d masculinas=%d total_unicas=%d\n",
			report.Summary.Femeninas, report.Summary.Masculinas, report.Summary.TotalUnicas)
	}
	return nil
}
