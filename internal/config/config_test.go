package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "openai", cfg.DefaultProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.AnthropicModel)
	assert.Equal(t, 50, cfg.MaxContextMessages)
	assert.Equal(t, "chatgpt-clone", cfg.UploadFolder)
	assert.Equal(t, "anonymous", cfg.Mem0UserID)
	assert.Equal(t, 5*time.Minute, cfg.LLMTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
}

func TestLoadClientDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "chatgpt-clone-history", cfg.StoreKey)
	assert.Equal(t, 20, cfg.MaxChats)
	assert.Equal(t, 20*time.Second, cfg.SyncInterval)
	assert.Equal(t, 700*time.Millisecond, cfg.StreamThrottle)
	assert.Equal(t, "http", cfg.Transport)
}

func TestLoadClientDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STORE_TYPE=BOLT\nMAX_CHATS=5\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("STORE_TYPE")
		os.Unsetenv("MAX_CHATS")
	})

	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "bolt", cfg.StoreType)
	assert.Equal(t, 5, cfg.MaxChats)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_provider: anthropic\nrate_limit_rps: 3\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.DefaultProvider)
	assert.Equal(t, 3, cfg.RateLimitRPS)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "/does/not/exist.yaml")

	_, err := Load()
	assert.Error(t, err)
}
