package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gosnip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, BackendDisk, cfg.CacheBackend())
	assert.Equal(t, EnginePongo2, cfg.Render.Engine)
	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.Equal(t, "gosnip:", cfg.Cache.KeyPrefix)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
paths:
  view_snippet: /srv/views
  cache: /srv/cache
cache:
  backend: Memory
  ttl: 60
  content_hash: true
render:
  engine: html
  strip_comments: true
  collapse_whitespace: true
  sanitize_raw: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/views", cfg.Paths.ViewSnippet)
	assert.Equal(t, "/srv/cache", cfg.Paths.Cache)
	assert.Equal(t, BackendMemory, cfg.CacheBackend())
	assert.Equal(t, time.Minute, cfg.CacheTTL())
	assert.True(t, cfg.Cache.ContentHash)
	assert.Equal(t, EngineHTML, cfg.Render.Engine)
	assert.True(t, cfg.Render.StripComments)
	assert.True(t, cfg.Render.CollapseWhitespace)
	assert.True(t, cfg.Render.SanitizeRaw)
	// Absent fields keep their defaults.
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "gosnip:", cfg.Cache.KeyPrefix)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("GOSNIP_TEST_VIEWS", "/env/views")
	t.Setenv("GOSNIP_TEST_REDIS", "redis://cache:6379/1")

	path := writeConfig(t, `
paths:
  view_snippet: ${GOSNIP_TEST_VIEWS}
cache:
  backend: redis
  redis_url: ${GOSNIP_TEST_REDIS}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/env/views", cfg.Paths.ViewSnippet)
	assert.Equal(t, "redis://cache:6379/1", cfg.Cache.RedisURL)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GOSNIP_TEST_DOTENV_DIR=/dotenv/views\n"), 0o644))
	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv("GOSNIP_TEST_DOTENV_DIR") })

	path := writeConfig(t, "paths:\n  view_snippet: ${GOSNIP_TEST_DOTENV_DIR}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dotenv/views", cfg.Paths.ViewSnippet)
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GOSNIP_TEST_PRESET=/from/dotenv\n"), 0o644))
	t.Chdir(dir)
	t.Setenv("GOSNIP_TEST_PRESET", "/from/process")

	path := writeConfig(t, "paths:\n  view_snippet: ${GOSNIP_TEST_PRESET}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/process", cfg.Paths.ViewSnippet)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "paths: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config")
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown backend",
			yaml:    "cache:\n  backend: memcached\n",
			wantErr: "unknown cache backend",
		},
		{
			name:    "unknown engine",
			yaml:    "render:\n  engine: jinja\n",
			wantErr: "unknown render engine",
		},
		{
			name:    "negative ttl",
			yaml:    "cache:\n  ttl: -5\n",
			wantErr: "cache.ttl must not be negative",
		},
		{
			name:    "redis without url",
			yaml:    "cache:\n  backend: redis\n",
			wantErr: "cache.redis_url is required",
		},
		{
			name:    "disk without dir",
			yaml:    "paths:\n  cache: \"\"\n",
			wantErr: "paths.cache is required",
		},
		{
			name:    "empty view path",
			yaml:    "paths:\n  view_snippet: \"\"\n",
			wantErr: "paths.view_snippet is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_DisabledCache(t *testing.T) {
	cfg, err := Parse([]byte("cache:\n  enabled: false\n  backend: redis\n"))
	require.NoError(t, err)

	assert.Equal(t, BackendNone, cfg.CacheBackend())
}

func TestParse_EmptyBackendDefaultsToDisk(t *testing.T) {
	cfg, err := Parse([]byte("cache:\n  backend: \"\"\n"))
	require.NoError(t, err)

	assert.Equal(t, BackendDisk, cfg.Cache.Backend)
}
