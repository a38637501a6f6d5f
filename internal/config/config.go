package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgallion1/docnav/internal/navigator"
	"github.com/dgallion1/docnav/internal/parser"
	"github.com/dgallion1/docnav/internal/render"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides: DOCNAV_PORT -> port.
const EnvPrefix = "DOCNAV_"

type Config struct {
	Port string `koanf:"port"`

	// Auth; empty disables it.
	APIKey string `koanf:"api_key"`

	// Page structure
	ContentID string `koanf:"content_id"`
	RootID    string `koanf:"root_id"`
	SiteRoot  string `koanf:"site_root"`

	// Navigation
	TOCPrefix      string        `koanf:"toc_prefix"`
	NavPrefix      string        `koanf:"nav_prefix"`
	MinLevel       int           `koanf:"min_level"`
	MaxLevel       int           `koanf:"max_level"`
	UniqueIDs      bool          `koanf:"unique_ids"`
	ScrollDuration time.Duration `koanf:"scroll_duration"`

	// Markdown
	HighlightStyle string `koanf:"highlight_style"`

	// Build queue
	WorkerCount  int           `koanf:"worker_count"`
	MaxQueueSize int           `koanf:"max_queue_size"`
	JobTTL       time.Duration `koanf:"job_ttl"`

	// Live sessions
	SessionTTL time.Duration `koanf:"session_ttl"`

	// Upload limits
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// CORS; comma separated in the environment.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port: "8090",

		ContentID: "jd-content",
		RootID:    "doc-nav",
		SiteRoot:  "/",

		TOCPrefix:      "toc-",
		NavPrefix:      "nav-",
		MinLevel:       2,
		MaxLevel:       4,
		UniqueIDs:      true,
		ScrollDuration: navigator.DefaultScrollDuration,

		HighlightStyle: "github",

		WorkerCount:  4,
		MaxQueueSize: 100,
		JobTTL:       1 * time.Hour,

		SessionTTL: 30 * time.Minute,

		MaxUploadBytes: 10485760, // 10MB
	}
}

// Load starts from Default, overlays the YAML file at path if it exists,
// then overlays DOCNAV_* environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "allowed_origins" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil)
	if err != nil {
		return cfg, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshalling config: %w", err)
	}

	def := Default()
	if cfg.MinLevel <= 0 {
		cfg.MinLevel = def.MinLevel
	}
	if cfg.MaxLevel <= 0 {
		cfg.MaxLevel = def.MaxLevel
	}
	if cfg.ScrollDuration <= 0 {
		cfg.ScrollDuration = def.ScrollDuration
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = def.JobTTL
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.MinLevel < 1 || c.MaxLevel > 6 {
		return fmt.Errorf("heading levels must be within 1-6, got %d-%d", c.MinLevel, c.MaxLevel)
	}
	if c.MinLevel > c.MaxLevel {
		return fmt.Errorf("min_level %d is greater than max_level %d", c.MinLevel, c.MaxLevel)
	}
	if c.NavPrefix == c.TOCPrefix {
		return fmt.Errorf("nav_prefix and toc_prefix must differ (both %q)", c.NavPrefix)
	}
	if c.RootID == "" {
		return fmt.Errorf("root_id is required")
	}
	return nil
}

// NavOptions returns the navigation builder options.
func (c Config) NavOptions() navigator.Options {
	return navigator.Options{
		MinLevel:  c.MinLevel,
		MaxLevel:  c.MaxLevel,
		TOCPrefix: c.TOCPrefix,
		NavPrefix: c.NavPrefix,
		UniqueIDs: c.UniqueIDs,
	}
}

// ParserOptions returns the document parser options.
func (c Config) ParserOptions() parser.Options {
	return parser.Options{ContentID: c.ContentID}
}

// RenderOptions returns the page rendering options.
func (c Config) RenderOptions() render.Options {
	return render.Options{
		ContentID:      c.ContentID,
		RootID:         c.RootID,
		HighlightStyle: c.HighlightStyle,
		Nav:            c.NavOptions(),
	}
}
