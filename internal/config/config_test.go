package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	want := Default()
	want.AllowedOrigins = []string{"*"}
	assert.Equal(t, want, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docnav.yml")
	yml := `port: "9000"
content_id: main
max_level: 3
scroll_duration: 250ms
unique_ids: false
allowed_origins:
  - https://docs.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("DOCNAV_PORT", "9100")
	t.Setenv("DOCNAV_WORKER_COUNT", "8")
	t.Setenv("DOCNAV_SESSION_TTL", "5m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port, "env overrides file")
	assert.Equal(t, "main", cfg.ContentID)
	assert.Equal(t, 3, cfg.MaxLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.ScrollDuration)
	assert.False(t, cfg.UniqueIDs)
	assert.Equal(t, []string{"https://docs.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "doc-nav", cfg.RootID, "untouched keys keep defaults")
}

func TestLoad_EnvOrigins(t *testing.T) {
	t.Setenv("DOCNAV_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_ClampsNonPositive(t *testing.T) {
	t.Setenv("DOCNAV_WORKER_COUNT", "0")
	t.Setenv("DOCNAV_JOB_TTL", "-1s")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, time.Hour, cfg.JobTTL)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"levels out of range", func(c *Config) { c.MaxLevel = 7 }},
		{"levels inverted", func(c *Config) { c.MinLevel, c.MaxLevel = 4, 2 }},
		{"same prefixes", func(c *Config) { c.NavPrefix = c.TOCPrefix }},
		{"no root", func(c *Config) { c.RootID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDerivedOptions(t *testing.T) {
	cfg := Default()
	nav := cfg.NavOptions()
	assert.Equal(t, 2, nav.MinLevel)
	assert.Equal(t, 4, nav.MaxLevel)
	assert.Equal(t, "nav-", nav.NavPrefix)

	ro := cfg.RenderOptions()
	assert.Equal(t, "jd-content", ro.ContentID)
	assert.Equal(t, "doc-nav", ro.RootID)
	assert.Equal(t, nav, ro.Nav)
	assert.Equal(t, "jd-content", cfg.ParserOptions().ContentID)
}
