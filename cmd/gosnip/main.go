// Command gosnip renders HTML snippets and manages the render cache.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ZaguanLabs/gosnip"
	"github.com/ZaguanLabs/gosnip/cache"
	"github.com/ZaguanLabs/gosnip/config"
	"github.com/ZaguanLabs/gosnip/engine"
	"github.com/ZaguanLabs/gosnip/metrics"
	"github.com/ZaguanLabs/gosnip/processor"
)

type cli struct {
	Config  string `short:"c" help:"Configuration file path (defaults are used when empty)"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Render renderCmd `cmd:"" help:"Render a snippet file"`

	Cache struct {
		Export exportCmd `cmd:"" help:"Export the render cache to a JSON file"`
		Import importCmd `cmd:"" help:"Import a JSON export into the render cache"`
		Purge  purgeCmd  `cmd:"" help:"Remove disk cache entries older than --max-age"`
	} `cmd:"" help:"Manage the render cache"`

	Version struct{} `cmd:"" help:"Show version information"`
}

type renderCmd struct {
	File            string            `arg:"" help:"Snippet file, relative to the snippet path"`
	Path            string            `help:"Snippet base directory (overrides paths.view_snippet)"`
	Var             map[string]string `help:"Escaped variable as key=value (repeatable)"`
	Raw             map[string]string `help:"Unescaped variable as key=value (repeatable)"`
	NoCache         bool              `help:"Bypass the render cache"`
	Output          string            `short:"o" help:"Output file (default: stdout)"`
	JSON            bool              `name:"json" help:"Output result as JSON"`
	MetricsTextfile string            `help:"Write Prometheus metrics to this file after rendering"`
}

type exportCmd struct {
	File string `arg:"" help:"Destination JSON file"`
}

type importCmd struct {
	File string `arg:"" help:"Source JSON file"`
}

type purgeCmd struct {
	MaxAge time.Duration `help:"Remove entries older than this" default:"24h"`
}

// renderOutput is the --json representation of a render.
type renderOutput struct {
	File       string  `json:"file"`
	Path       string  `json:"path"`
	Cached     bool    `json:"cached"`
	DurationMS float64 `json:"duration_ms"`
	Content    string  `json:"content"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var c cli
	parser, err := kong.New(&c,
		kong.Name(gosnip.Name),
		kong.Description(gosnip.Description),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if c.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if ctx.Command() == "version" {
		fmt.Fprintln(stdout, gosnip.BuildSummary())
		if gosnip.GitCommit != "unknown" && gosnip.GitCommit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", gosnip.GitCommit)
		}
		return nil
	}

	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}

	switch ctx.Command() {
	case "render <file>":
		return runRender(cfg, &c.Render, logger, stdout)
	case "cache export <file>":
		return runExport(cfg, c.Cache.Export.File, logger)
	case "cache import <file>":
		return runImport(cfg, c.Cache.Import.File, logger, stdout)
	case "cache purge":
		return runPurge(cfg, c.Cache.Purge.MaxAge, logger, stdout)
	default:
		return fmt.Errorf("unknown command %q", ctx.Command())
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openStore builds the configured cache backend. The returned store is nil
// when caching is off; close releases backend connections.
func openStore(cfg *config.Config) (store cache.Store, closeFn func(), err error) {
	closeFn = func() {}
	switch cfg.CacheBackend() {
	case config.BackendDisk:
		store, err = cache.NewDiskCache(cfg.Paths.Cache, cache.WithTTL(cfg.CacheTTL()))
	case config.BackendMemory:
		store = cache.NewInMemoryCache(cfg.Cache.TTL)
	case config.BackendRedis:
		var rc *cache.RedisCache
		rc, err = cache.NewRedisCache(cache.RedisConfig{
			URL:       cfg.Cache.RedisURL,
			TTL:       cfg.Cache.TTL,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
		if err == nil {
			store = rc
			closeFn = func() { _ = rc.Close() }
		}
	case config.BackendNone:
	default:
		err = fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	if err != nil {
		return nil, closeFn, fmt.Errorf("opening %s cache: %w", cfg.CacheBackend(), err)
	}
	return store, closeFn, nil
}

func newEngine(cfg *config.Config) gosnip.TemplateEngine {
	if cfg.Render.Engine == config.EngineHTML {
		return engine.NewHTML()
	}
	return engine.NewPongo2()
}

func runRender(cfg *config.Config, cmd *renderCmd, logger *slog.Logger, stdout io.Writer) error {
	path := cfg.Paths.ViewSnippet
	if cmd.Path != "" {
		path = cmd.Path
	}

	opts := []gosnip.Option{
		gosnip.WithEngine(newEngine(cfg)),
		gosnip.WithLogger(logger),
	}

	if cmd.NoCache {
		opts = append(opts, gosnip.WithoutCache())
	} else {
		store, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		if store != nil {
			opts = append(opts, gosnip.WithCache(store))
		}
		if cfg.Cache.ContentHash {
			opts = append(opts, gosnip.WithContentHashing())
		}
	}

	if cfg.Render.StripComments || cfg.Render.CollapseWhitespace {
		opts = append(opts, gosnip.WithProcessor(processor.NewHTMLProcessor(
			processor.WithStripComments(cfg.Render.StripComments),
			processor.WithCollapseWhitespace(cfg.Render.CollapseWhitespace),
		)))
	}
	if cfg.Render.SanitizeRaw {
		opts = append(opts, gosnip.WithSanitizer(bluemonday.UGCPolicy()))
	}

	var registry *prometheus.Registry
	if cmd.MetricsTextfile != "" {
		registry = prometheus.NewRegistry()
		opts = append(opts, gosnip.WithRecorder(metrics.NewPrometheusRecorder(registry)))
	}

	s, err := gosnip.New(cmd.File, path, opts...)
	if err != nil {
		return err
	}
	s.AddVariables(cmd.Var)
	for name, value := range cmd.Raw {
		s.AddRawVariable(name, value)
	}

	result, err := s.RenderResult()
	if err != nil {
		return err
	}
	logger.Debug("render complete", "file", cmd.File, "cached", result.Cached, "duration", result.Duration)

	if registry != nil {
		if err := prometheus.WriteToTextfile(cmd.MetricsTextfile, registry); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	out := result.Content
	if cmd.JSON {
		data, err := json.MarshalIndent(renderOutput{
			File:       cmd.File,
			Path:       path,
			Cached:     result.Cached,
			DurationMS: float64(result.Duration.Microseconds()) / 1000,
			Content:    result.Content,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		out = string(data) + "\n"
	}

	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte(out), 0o644); err != nil { // #nosec G306 - rendered output is not secret
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}
	_, err = io.WriteString(stdout, out)
	return err
}

func runExport(cfg *config.Config, file string, logger *slog.Logger) error {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if _, ok := store.(cache.Lister); !ok {
		return fmt.Errorf("cache backend %q does not support export", cfg.CacheBackend())
	}

	metadata := map[string]string{
		"backend": cfg.CacheBackend(),
		"version": gosnip.FullVersion(),
	}
	if err := cache.NewExporter(store).ExportToFile(file, metadata); err != nil {
		return err
	}
	logger.Info("cache exported", "file", file, "backend", cfg.CacheBackend())
	return nil
}

func runImport(cfg *config.Config, file string, logger *slog.Logger, stdout io.Writer) error {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if store == nil {
		return errors.New("caching is disabled; nothing to import into")
	}

	result, err := cache.NewImporter(store).ImportFromFile(file)
	if err != nil {
		return err
	}
	logger.Info("cache imported", "file", file, "imported", result.Imported, "failed", result.Failed)
	fmt.Fprintf(stdout, "imported %d entries (%d failed)\n", result.Imported, result.Failed)
	return nil
}

func runPurge(cfg *config.Config, maxAge time.Duration, logger *slog.Logger, stdout io.Writer) error {
	if cfg.CacheBackend() != config.BackendDisk {
		return fmt.Errorf("purge requires the disk backend, configured %q", cfg.CacheBackend())
	}

	store, err := cache.NewDiskCache(cfg.Paths.Cache, cache.WithTTL(cfg.CacheTTL()))
	if err != nil {
		return err
	}

	removed, err := store.Purge(maxAge)
	if err != nil {
		return err
	}
	logger.Info("cache purged", "dir", store.Dir(), "removed", removed, "max_age", maxAge)
	fmt.Fprintf(stdout, "removed %d entries\n", removed)
	return nil
}
