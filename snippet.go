package gosnip

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ZaguanLabs/gosnip/engine"
	"github.com/ZaguanLabs/gosnip/metrics"
)

// Snippet renders one template file with registered variables, serving a
// cached rendering when one is valid.
//
// A cached rendering is returned verbatim: variables registered on this
// Snippet are not applied to it. Two Snippets for the same file with
// different variables will both receive whichever rendering was cached first
// until the source file changes or the cache entry expires.
//
// A Snippet is not safe for concurrent use; construct one per request.
type Snippet struct {
	file       string
	path       string
	source     string
	variables  map[string]Value
	cache      Cacher
	engine     TemplateEngine
	processors []ContentProcessor
	sanitizer  *bluemonday.Policy
	recorder   metrics.Recorder
	logger     *slog.Logger

	store       RenderCache
	noCache     bool
	hashContent bool
}

// Option is a functional option for configuring a Snippet.
type Option func(*Snippet)

// WithCache enables caching into store.
func WithCache(store RenderCache) Option {
	return func(s *Snippet) {
		s.store = store
	}
}

// WithoutCache disables caching even if a store was configured.
func WithoutCache() Option {
	return func(s *Snippet) {
		s.noCache = true
	}
}

// WithContentHashing keys cached renderings on a digest of the source as
// well as its mtime and size. See FileCache.
func WithContentHashing() Option {
	return func(s *Snippet) {
		s.hashContent = true
	}
}

// WithEngine sets the template engine.
func WithEngine(e TemplateEngine) Option {
	return func(s *Snippet) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithProcessor appends a content processor. Processors run in the order
// they were added.
func WithProcessor(p ContentProcessor) Option {
	return func(s *Snippet) {
		if p != nil {
			s.processors = append(s.processors, p)
		}
	}
}

// WithSanitizer sanitizes raw variables through policy before rendering.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(s *Snippet) {
		s.sanitizer = policy
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Snippet) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Snippet) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Snippet for file resolved against path. Returns a
// *NotFoundError when the file cannot be located.
func New(file, path string, opts ...Option) (*Snippet, error) {
	s := &Snippet{
		file:      file,
		path:      path,
		variables: make(map[string]Value),
		engine:    engine.NewPongo2(),
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	store := s.store
	if s.noCache {
		store = nil
	}
	fcOpts := []FileCacheOption{WithFileCacheLogger(s.logger)}
	if s.hashContent {
		fcOpts = append(fcOpts, WithContentHash())
	}
	fc, err := NewFileCache(file, path, store, fcOpts...)
	if err != nil {
		return nil, err
	}
	s.source = fc.Source()
	s.cache = fc
	return s, nil
}

// AddVariable registers a variable whose value is escaped on output.
// Registering the same name again overwrites the previous value. Names are
// not validated here; the default pongo2 engine only accepts identifiers
// (letters, digits, underscore), so a name like "my-var" makes Render fail
// with a *RenderError.
func (s *Snippet) AddVariable(name, value string) *Snippet {
	s.variables[name] = engine.Text(value)
	return s
}

// AddRawVariable registers a variable inserted without escaping. Only use
// it for trusted markup, or configure WithSanitizer.
func (s *Snippet) AddRawVariable(name, value string) *Snippet {
	s.variables[name] = engine.Raw(value)
	return s
}

// AddVariables registers every entry of vars as an escaped variable.
func (s *Snippet) AddVariables(vars map[string]string) *Snippet {
	for name, value := range vars {
		s.AddVariable(name, value)
	}
	return s
}

// Variables returns a copy of the registered variables.
func (s *Snippet) Variables() map[string]Value {
	out := make(map[string]Value, len(s.variables))
	for name, v := range s.variables {
		out[name] = v
	}
	return out
}

// Render returns the rendered snippet, from the cache when possible.
func (s *Snippet) Render() (string, error) {
	result, err := s.RenderResult()
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// RenderResult renders like Render and reports whether the cache was used.
func (s *Snippet) RenderResult() (*RenderResult, error) {
	start := time.Now()

	if s.cache.IsAvailable() {
		content, err := s.cache.Get()
		if err == nil {
			s.logger.Debug("snippet served from cache", "file", s.file, "path", s.path)
			return s.finish(metrics.ResultHit, content, true, start), nil
		}
		// The entry vanished between the check and the read (expiry, purge).
		s.logger.Debug("cached snippet unreadable, rendering fresh", "file", s.file, "error", err)
	}

	content, err := s.renderFresh()
	if err != nil {
		s.recorder.IncRender(metrics.ResultError)
		s.recorder.ObserveRenderDuration(metrics.ResultError, time.Since(start))
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Save(content); err != nil {
			s.recorder.IncCacheSaveError()
			s.logger.Warn("failed to cache rendered snippet", "file", s.file, "path", s.path, "error", err)
		}
	}

	s.logger.Debug("snippet rendered", "file", s.file, "path", s.path, "engine", s.engine.Name())
	return s.finish(metrics.ResultMiss, content, false, start), nil
}

func (s *Snippet) finish(result metrics.ResultLabel, content string, cached bool, start time.Time) *RenderResult {
	elapsed := time.Since(start)
	s.recorder.IncRender(result)
	s.recorder.ObserveRenderDuration(result, elapsed)
	return &RenderResult{
		Content:  content,
		Cached:   cached,
		Duration: elapsed,
	}
}

// renderFresh reads the source and evaluates it with the current variables.
func (s *Snippet) renderFresh() (string, error) {
	src, err := os.ReadFile(s.source) // #nosec G304 - resolved beneath the configured snippet path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{File: s.file, Path: s.path, Cause: err}
		}
		return "", &RenderError{File: s.file, Message: "reading template", Cause: err}
	}

	var buf bytes.Buffer
	tpl := engine.Template{Name: s.file, Dir: s.path, Source: src}
	if err := s.engine.Execute(&buf, tpl, s.templateVars()); err != nil {
		return "", &RenderError{File: s.file, Message: "evaluating template", Cause: err}
	}

	content := buf.String()
	for _, p := range s.processors {
		if content, err = p.Process(content); err != nil {
			return "", err
		}
	}
	return content, nil
}

// templateVars returns the mapping handed to the engine, with raw values
// passed through the sanitizer when one is configured.
func (s *Snippet) templateVars() map[string]Value {
	vars := s.Variables()
	if s.sanitizer == nil {
		return vars
	}
	for name, v := range vars {
		if v.Raw {
			vars[name] = engine.Raw(s.sanitizer.Sanitize(v.Text))
		}
	}
	return vars
}

// CacheEnabled reports whether renderings are cached.
func (s *Snippet) CacheEnabled() bool {
	return s.cache.Enabled()
}

// File returns the snippet file identifier.
func (s *Snippet) File() string {
	return s.file
}

// Path returns the base directory the file is resolved against.
func (s *Snippet) Path() string {
	return s.path
}
