package main

import (
	"fmt"
	"time"

	"github.com/calles-genero/internal/loader"
	"github.com/calles-genero/internal/search"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(logger func() *zap.Logger) *cobra.Command {
	var (
		registry string
		cfg      = search.SearchConfig{Timeout: time.Minute, MaxHits: 20}
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Index the registry in Meilisearch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			calles, err := loader.LoadRegistry(cmd.Context(), registry)
			if err != nil {
				return err
			}

			searcher, err := search.NewRegistrySearcher(cfg, logger())
			if err != nil {
				return err
			}
			if err := searcher.BuildIndexes(); err != nil {
				return err
			}
			n, err := searcher.SeedData(calles)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "indexed %d registry rows into %s\n", n, cfg.IndexName)

			// indexing is asynchronous
			time.Sleep(2 * time.Second)
			if count, err := searcher.Count(); err == nil {
				fmt.Fprintf(out, "documents in index: %d\n", count)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&registry, "registry", "", "registry JSON file or URL")
	f.StringVar(&cfg.Host, "meili-url", "http://localhost:7700", "Meilisearch URL")
	f.StringVar(&cfg.APIKey, "meili-key", "", "Meilisearch API key")
	f.StringVar(&cfg.IndexName, "index", "calles", "index name")
	_ = cmd.MarkFlagRequired("registry")

	return cmd
}
