package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.Endpoint)
	assert.Equal(t, 8, cfg.MaxToolRounds)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"workspace: "+dir+"\nprovider: openai\nmodel: gpt-4o-mini\nmax_tool_rounds: 3\n",
	), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 3, cfg.MaxToolRounds)
	assert.Equal(t, "https://api.openai.com", cfg.Endpoint, "provider switch adjusts the default endpoint")
}

func TestLoadEnvironmentWins(t *testing.T) {
	t.Setenv("QUILL_MODEL", "llama3.1:8b")
	t.Setenv("QUILL_LOG_LEVEL", "debug")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "llama3.1:8b", cfg.Model)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNormalize(t *testing.T) {
	t.Run("rejects unknown provider", func(t *testing.T) {
		cfg := Default()
		cfg.Provider = "bedrock"
		assert.Error(t, cfg.Normalize())
	})

	t.Run("rejects empty workspace", func(t *testing.T) {
		cfg := Config{}
		assert.Error(t, cfg.Normalize())
	})

	t.Run("anchors relative paths in the workspace", func(t *testing.T) {
		dir := t.TempDir()
		cfg := Config{Workspace: dir, HistoryPath: "state/h.db"}
		require.NoError(t, cfg.Normalize())
		assert.Equal(t, filepath.Join(dir, "state", "h.db"), cfg.HistoryPath)
		assert.Equal(t, 3*time.Minute, cfg.RequestTimeout)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".quill", "config.yaml")
	cfg := Default()
	cfg.Workspace = dir
	cfg.Model = "saved-model"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "saved-model", loaded.Model)
}
