// Package search indexes the street registry in Meilisearch.
package search

import (
	"fmt"
	"strings"

	ms "github.com/meilisearch/meilisearch-go"
)

// NewClient connects to Meilisearch and checks its health.
func NewClient(url, key string) (ms.ServiceManager, error) {
	client := ms.New(url, ms.WithAPIKey(key))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("meilisearch unreachable at %s: %w", url, err)
	}
	return client, nil
}

// FilterMunicipio restricts a search to one municipality slug.
func FilterMunicipio(slug string) string {
	return fmt.Sprintf("municipio_slug = %q", slug)
}

// FilterGenero restricts a search to one genero.
func FilterGenero(genero string) string {
	return fmt.Sprintf("genero = %q", genero)
}

// And joins non-empty filter expressions.
func And(filters ...string) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " AND ")
}
