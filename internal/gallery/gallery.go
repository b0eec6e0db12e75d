package gallery

import (
	"sort"
	"strings"

	"github.com/calles-genero/app/models"
)

// DefaultMax is the gallery size used by the HTTP layer and the CLI.
const DefaultMax = 24

// BuildGallery counts, per woman, how many registry rows carry her name and
// returns the max most frequent, most frequent first. Ties keep the order in
// which the names first appear in registry. Rows with a blank name are
// skipped; max <= 0 yields an empty gallery.
func BuildGallery(registry []models.Calle, max int) []models.GalleryEntry {
	entries := make([]models.GalleryEntry, 0)
	if len(registry) == 0 || max <= 0 {
		return entries
	}

	index := make(map[string]int)
	for _, c := range registry {
		if !c.IsFemenino() {
			continue
		}
		nombre := strings.TrimSpace(c.Nombre)
		if nombre == "" {
			continue
		}
		if i, ok := index[nombre]; ok {
			entries[i].Calles++
			continue
		}
		index[nombre] = len(entries)
		entries = append(entries, models.GalleryEntry{Nombre: nombre, Calles: 1})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Calles > entries[j].Calles
	})
	if len(entries) > max {
		entries = entries[:max]
	}
	return entries
}
