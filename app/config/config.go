package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type SuggestCfg struct {
	MinSimilarity float64 `yaml:"min_similarity" json:"min_similarity"`
	TopK          int     `yaml:"topk" json:"topk"`
	Limit         int     `yaml:"limit" json:"limit"`
}

type StoryCfg struct {
	DefaultMunicipio string     `yaml:"default_municipio" json:"default_municipio"`
	GalleryMax       int        `yaml:"gallery_max" json:"gallery_max"`
	StepsFile        string     `yaml:"steps_file" json:"steps_file"` // empty uses the built-in table
	MatcherMemoSize  int        `yaml:"matcher_memo_size" json:"matcher_memo_size"`
	AnnotatedCache   int        `yaml:"annotated_cache" json:"annotated_cache"` // annotated collections kept in memory
	SummaryTTL       string     `yaml:"summary_ttl" json:"summary_ttl"`
	Suggest          SuggestCfg `yaml:"suggest" json:"suggest"`
}

// C holds the story settings. Defaults apply until Load succeeds.
var C = Defaults()

func Defaults() StoryCfg {
	return StoryCfg{
		DefaultMunicipio: "tigre",
		GalleryMax:       24,
		MatcherMemoSize:  4096,
		AnnotatedCache:   16,
		SummaryTTL:       "24h",
		Suggest: SuggestCfg{
			MinSimilarity: 0.85,
			TopK:          3,
			Limit:         50,
		},
	}
}

// Load reads path over the defaults and applies env overrides.
func Load(path string) error {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return err
	}
	applyEnv(&cfg)
	C = cfg
	return nil
}

func applyEnv(cfg *StoryCfg) {
	if v := os.Getenv("DEFAULT_MUNICIPIO"); v != "" {
		cfg.DefaultMunicipio = v
	}
	if v := os.Getenv("GALLERY_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GalleryMax = n
		}
	}
	if v := os.Getenv("STORY_STEPS_FILE"); v != "" {
		cfg.StepsFile = v
	}
}

// SummaryTTLDuration parses SummaryTTL, 24h when invalid.
func (c StoryCfg) SummaryTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.SummaryTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
