package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points HOME at a temp dir and returns the config directory
// inside it.
func setupTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENAI_API_KEY", "")

	dir := filepath.Join(home, ".config", "outlined")
	require.NoError(t, os.MkdirAll(dir, 0700))
	return dir
}

func writeConfig(t *testing.T, dir, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoadWithFile_NoFileUsesDefaults(t *testing.T) {
	setupTestHome(t)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, `generation:
  model: gpt-4o-mini
  timeout: 15s
  api_key: sk-from-file
prompt:
  style_adherence: 0
  reference_limit: 5
index:
  path: ""
`, 0600)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.Generation.Model)
	assert.Equal(t, 15*time.Second, cfg.Generation.Timeout.Duration())
	assert.Equal(t, "sk-from-file", cfg.Generation.APIKey.Value())
	assert.Equal(t, 0.0, cfg.Prompt.StyleAdherence)
	assert.Equal(t, 5, cfg.Prompt.ReferenceLimit)
	assert.Equal(t, "", cfg.Index.Path)

	// untouched keys keep defaults
	assert.Equal(t, 2000, cfg.Generation.MaxTokens)
	assert.Equal(t, "text-embedding-ada-002", cfg.Embeddings.Model)
}

func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "generation:\n  model: from-file\n", 0600)

	t.Setenv("OUTLINED_GENERATION_MODEL", "from-env")
	t.Setenv("OUTLINED_GENERATION_MAX_TOKENS", "1234")
	t.Setenv("OUTLINED_PROMPT_STYLE_ADHERENCE", "0.65")
	t.Setenv("OUTLINED_LIBRARY_PATH", "/tmp/lib.db")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Generation.Model)
	assert.Equal(t, 1234, cfg.Generation.MaxTokens)
	assert.Equal(t, 0.65, cfg.Prompt.StyleAdherence)
	assert.Equal(t, "/tmp/lib.db", cfg.Library.Path)
}

func TestLoadWithFile_OpenAIKeyFallback(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "embeddings:\n  api_key: sk-embed\n", 0600)
	t.Setenv("OPENAI_API_KEY", "sk-shared")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-shared", cfg.Generation.APIKey.Value())
	assert.Equal(t, "sk-embed", cfg.Embeddings.APIKey.Value())
}

func TestLoadWithFile_InvalidValues(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "prompt:\n  style_adherence: 3\n", 0600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "generation:\n  model: x\n", 0644)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoadWithFile_TooLarge(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "# "+strings.Repeat("x", maxConfigFileSize)+"\n", 0600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestValidateConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	valid := []string{
		filepath.Join(home, ".config", "outlined", "config.yaml"),
		filepath.Join(home, ".config", "outlined", "nested", "config.yaml"),
		"/etc/outlined/config.yaml",
	}
	for _, p := range valid {
		assert.NoError(t, validateConfigPath(p), p)
	}

	invalid := []string{
		"/etc/passwd",
		"/tmp/config.yaml",
		"/etc/outlined../etc/passwd",
		filepath.Join(home, ".config", "outlined", "..", "..", "config.yaml"),
		filepath.Join(home, ".config", "outlined-other", "config.yaml"),
	}
	for _, p := range invalid {
		assert.Error(t, validateConfigPath(p), p)
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "generation.max_tokens", envKey("OUTLINED_GENERATION_MAX_TOKENS"))
	assert.Equal(t, "index.path", envKey("OUTLINED_INDEX_PATH"))
	assert.Equal(t, "debug", envKey("OUTLINED_DEBUG"))
}
