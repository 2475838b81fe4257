// Package config loads gosnip settings from YAML with environment expansion.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	BackendDisk   = "disk"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Template engines.
const (
	EnginePongo2 = "pongo2"
	EngineHTML   = "html"
)

// envFiles are loaded, in order, when present in the working directory.
var envFiles = []string{".env", ".env.local"}

// Config is the complete gosnip configuration.
type Config struct {
	Paths  PathsConfig  `yaml:"paths"`
	Cache  CacheConfig  `yaml:"cache"`
	Render RenderConfig `yaml:"render"`
}

// PathsConfig locates snippet sources and the disk cache.
type PathsConfig struct {
	ViewSnippet string `yaml:"view_snippet"`
	Cache       string `yaml:"cache"`
}

// CacheConfig selects and tunes the render cache backend.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Backend   string `yaml:"backend"`
	TTL       int    `yaml:"ttl"` // seconds, 0 = never expire
	RedisURL  string `yaml:"redis_url"`
	KeyPrefix string `yaml:"key_prefix"`

	// ContentHash adds a digest of the source to cache keys, catching
	// same-size edits that keep the mtime.
	ContentHash bool `yaml:"content_hash"`
}

// RenderConfig controls evaluation and post-processing.
type RenderConfig struct {
	Engine             string `yaml:"engine"`
	StripComments      bool   `yaml:"strip_comments"`
	CollapseWhitespace bool   `yaml:"collapse_whitespace"`
	SanitizeRaw        bool   `yaml:"sanitize_raw"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			ViewSnippet: "./views/snippets",
			Cache:       "./var/cache/snippets",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   BackendDisk,
			TTL:       3600,
			KeyPrefix: "gosnip:",
		},
		Render: RenderConfig{
			Engine: EnginePongo2,
		},
	}
}

// Load reads configPath, expanding ${VAR} references from the environment
// (and any .env file) before parsing. Fields absent from the file keep their
// Default values.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults, normalizes and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles loads the env files that exist. Variables already set in the
// process environment win.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("failed to load env file", "file", name, "error", err)
			continue
		}
		slog.Debug("loaded environment variables", "file", name)
	}
}

func (c *Config) normalize() {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Render.Engine = strings.ToLower(strings.TrimSpace(c.Render.Engine))

	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendDisk
	}
	if c.Render.Engine == "" {
		c.Render.Engine = EnginePongo2
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Paths.ViewSnippet == "" {
		return errors.New("paths.view_snippet is required")
	}

	switch c.Cache.Backend {
	case BackendDisk:
		if c.Cache.Enabled && c.Paths.Cache == "" {
			return errors.New("paths.cache is required for the disk backend")
		}
	case BackendRedis:
		if c.Cache.Enabled && c.Cache.RedisURL == "" {
			return errors.New("cache.redis_url is required for the redis backend")
		}
	case BackendMemory, BackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q (want disk, memory, redis or none)", c.Cache.Backend)
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %d", c.Cache.TTL)
	}

	switch c.Render.Engine {
	case EnginePongo2, EngineHTML:
	default:
		return fmt.Errorf("unknown render engine %q (want pongo2 or html)", c.Render.Engine)
	}
	return nil
}

// CacheBackend returns the backend to construct, BackendNone when caching
// is switched off.
func (c *Config) CacheBackend() string {
	if !c.Cache.Enabled {
		return BackendNone
	}
	return c.Cache.Backend
}

// CacheTTL returns the TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}
