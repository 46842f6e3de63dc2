package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10, cfg.SearchHits)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.True(t, cfg.IncludeContext)
	assert.Empty(t, cfg.TerminologyURL)
	assert.Empty(t, cfg.UISchema)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("EHRFORM_LOG_LEVEL", "debug")
	t.Setenv("EHRFORM_SEARCH_HITS", "25")
	t.Setenv("EHRFORM_HTTP_TIMEOUT", "3s")
	t.Setenv("EHRFORM_TERMINOLOGY_URL", "https://terminology.example.org")
	t.Setenv("EHRFORM_INCLUDE_CONTEXT", "false")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, 25, cfg.SearchHits)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "https://terminology.example.org", cfg.TerminologyURL)
	assert.False(t, cfg.IncludeContext)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ehrform.yaml")
	require.NoError(t, os.WriteFile(file, []byte("addr: 127.0.0.1:9000\nlanguage: de\nsearch_hits: 5\nui_schema: overlays\n"), 0o600))
	t.Setenv("EHRFORM_SEARCH_HITS", "7")

	cfg, err := Load(NewViper(), file)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "de", cfg.Language)
	assert.Equal(t, "overlays", cfg.UISchema)
	assert.Equal(t, 7, cfg.SearchHits, "environment wins over the file")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		LogLevel:       "loud",
		SearchHits:     0,
		HTTPTimeout:    0,
		TerminologyURL: "ftp://example.org",
		Addr:           " ",
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, key := range []string{KeyLogLevel, KeySearchHits, KeyHTTPTimeout, KeyTerminologyURL, KeyAddr} {
		assert.Contains(t, err.Error(), key)
	}

	valid := &Config{LogLevel: "warn", SearchHits: 1, HTTPTimeout: time.Second, Addr: ":0"}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, zerolog.WarnLevel, valid.Level())
}
