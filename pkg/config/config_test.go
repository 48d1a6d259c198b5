package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "rubygems", cfg.API.Platform)
	assert.Equal(t, "Gemfile.lock", cfg.Lockfile)
	assert.Equal(t, "main", cfg.Refs.Source)
	assert.Equal(t, "HEAD", cfg.Refs.Target)
	assert.Equal(t, "error", cfg.Severity.Major)
	assert.Equal(t, "warning", cfg.Severity.Minor)
	assert.Equal(t, "info", cfg.Severity.Patch)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".lockdiff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://health.example.com
  key: abc123
refs:
  source: develop
severity:
  major: warning
ignoreGems:
  - bundler
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://health.example.com", cfg.API.BaseURL)
	assert.Equal(t, "abc123", cfg.API.Key)
	assert.Equal(t, "develop", cfg.Refs.Source)
	// Unset keys keep their defaults
	assert.Equal(t, "HEAD", cfg.Refs.Target)
	assert.Equal(t, "warning", cfg.Severity.Major)
	assert.True(t, cfg.IsGemIgnored("bundler"))
	assert.False(t, cfg.IsGemIgnored("rails"))
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Gemfile.lock", cfg.Lockfile)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".lockdiff.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not: a: map"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestFindAndLoadConfig_WalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".lockdiff.yaml"), []byte("lockfile: gems.locked\n"), 0644))

	cfg, err := FindAndLoadConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, "gems.locked", cfg.Lockfile)
}

func TestGetSeverityForUpdate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "error", cfg.GetSeverityForUpdate("major"))
	assert.Equal(t, "warning", cfg.GetSeverityForUpdate("minor"))
	assert.Equal(t, "info", cfg.GetSeverityForUpdate("patch"))
	assert.Equal(t, "", cfg.GetSeverityForUpdate(""))
	assert.Equal(t, "", cfg.GetSeverityForUpdate("rest"))
}
