package loader

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/calles-genero/app/models"
	"github.com/calles-genero/internal/normalizer"
)

// ErrLoad wraps every failure to fetch or decode an input file.
var ErrLoad = errors.New("load failed")

// maxBody caps remote downloads.
const maxBody = 256 << 20

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Dataset is a registry and a road network loaded together.
type Dataset struct {
	Registry []models.Calle
	Geo      *models.GeoCollection
	Version  string // sha256 over both sources
	LoadedAt time.Time
}

// Fetch reads src, which is either a local path or an http(s) URL.
func Fetch(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty source", ErrLoad)
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		b, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoad, src, err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, src, err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: unexpected status %d", ErrLoad, src, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, src, err)
	}
	return b, nil
}

// ParseRegistry decodes a JSON array of registry rows.
func ParseRegistry(b []byte) ([]models.Calle, error) {
	var calles []models.Calle
	if err := json.Unmarshal(b, &calles); err != nil {
		return nil, fmt.Errorf("%w: registry: %v", ErrLoad, err)
	}
	if calles == nil {
		return nil, fmt.Errorf("%w: registry: not an array", ErrLoad)
	}
	return calles, nil
}

// ParseGeoJSON decodes a FeatureCollection.
func ParseGeoJSON(b []byte) (*models.GeoCollection, error) {
	var geo models.GeoCollection
	if err := json.Unmarshal(b, &geo); err != nil {
		return nil, fmt.Errorf("%w: geojson: %v", ErrLoad, err)
	}
	if geo.Type != models.FeatureCollectionType {
		return nil, fmt.Errorf("%w: geojson: expected FeatureCollection, got %q", ErrLoad, geo.Type)
	}
	if geo.Features == nil {
		geo.Features = make([]models.GeoFeature, 0)
	}
	return &geo, nil
}

// LoadRegistry fetches and decodes the registry at src.
func LoadRegistry(ctx context.Context, src string) ([]models.Calle, error) {
	b, err := Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(b)
}

// LoadGeoJSON fetches and decodes the road network at src.
func LoadGeoJSON(ctx context.Context, src string) (*models.GeoCollection, error) {
	b, err := Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return ParseGeoJSON(b)
}

// LoadDataset fetches both inputs and fingerprints them.
func LoadDataset(ctx context.Context, registrySrc, geoSrc string) (*Dataset, error) {
	regBytes, err := Fetch(ctx, registrySrc)
	if err != nil {
		return nil, err
	}
	geoBytes, err := Fetch(ctx, geoSrc)
	if err != nil {
		return nil, err
	}

	registry, err := ParseRegistry(regBytes)
	if err != nil {
		return nil, err
	}
	geo, err := ParseGeoJSON(geoBytes)
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Registry: registry,
		Geo:      geo,
		Version:  Fingerprint(regBytes, geoBytes),
		LoadedAt: time.Now(),
	}, nil
}

// Fingerprint hashes the raw inputs into a dataset version.
func Fingerprint(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return fmt.Sprintf("sha256:%x", h.Sum(nil))
}

// Municipios lists the distinct non-empty municipalities of registry, sorted.
func Municipios(registry []models.Calle) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, c := range registry {
		if c.Municipio == "" {
			continue
		}
		if _, ok := seen[c.Municipio]; ok {
			continue
		}
		seen[c.Municipio] = struct{}{}
		out = append(out, c.Municipio)
	}
	sort.Strings(out)
	return out
}

// HasMunicipio reports whether any registry row belongs to municipio,
// comparing accent-folded slugs.
func HasMunicipio(registry []models.Calle, municipio string) bool {
	slug := normalizer.FoldAccents(municipio)
	for _, c := range registry {
		if normalizer.FoldAccents(c.Municipio) == slug {
			return true
		}
	}
	return false
}
