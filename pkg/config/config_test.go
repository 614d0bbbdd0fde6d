package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay.Std())
	assert.Equal(t, 8*time.Second, cfg.Retry.MaxDelay.Std())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Retry.MaxAttempts, cfg.Retry.MaxAttempts)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storycraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  model: gpt-4o
  base_url: https://example.invalid/v1
retry:
  max_attempts: 5
  base_delay: 250ms
  max_delay: 4s
store:
  path: /tmp/craft.db
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay.Std())
	assert.Equal(t, 4*time.Second, cfg.Retry.MaxDelay.Std())
	assert.Equal(t, "/tmp/craft.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retry:\n  base_delay: soon\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("STORYCRAFT_API_KEY", "from-env")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
}

func TestOpenAIKeyFallback(t *testing.T) {
	t.Setenv("STORYCRAFT_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "openai-env")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai-env", cfg.LLM.APIKey)
}

func TestMaxAttemptsFloor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zero.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retry:\n  max_attempts: 0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
}
