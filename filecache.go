package gosnip

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Cacher is the cache capability a Snippet renders through.
type Cacher interface {
	// IsAvailable reports whether a valid cached rendering exists.
	IsAvailable() bool
	// Get returns the cached rendering. Only meaningful after IsAvailable
	// returned true.
	Get() (string, error)
	// Save persists a rendering, replacing any previous one.
	Save(content string) error
	// Enabled reports whether caching is switched on.
	Enabled() bool
}

// FileCache is the cache capability for a single snippet file. It locates
// the source on construction and keys cached renderings on the source's
// identity and version, so an edited template never serves a stale copy.
//
// By default the version is the source's mtime and size, which misses a
// same-size edit within one mtime tick. WithContentHash closes that gap at
// the cost of reading the source on every lookup.
//
// A FileCache is not safe for concurrent use.
type FileCache struct {
	file     string
	path     string
	source   string
	identity string
	store    RenderCache
	logger   *slog.Logger

	hashContent bool

	// observed is the key computed by the last IsAvailable call.
	observed string
}

// FileCacheOption configures a FileCache.
type FileCacheOption func(*FileCache)

// WithFileCacheLogger sets the logger used for cache diagnostics.
func WithFileCacheLogger(logger *slog.Logger) FileCacheOption {
	return func(c *FileCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContentHash versions cached renderings by the source's content digest
// in addition to its mtime and size.
func WithContentHash() FileCacheOption {
	return func(c *FileCache) {
		c.hashContent = true
	}
}

// NewFileCache locates path/file and binds a cache capability to it.
// A nil store disables caching. Returns a *NotFoundError when the file
// cannot be located.
func NewFileCache(file, path string, store RenderCache, opts ...FileCacheOption) (*FileCache, error) {
	source, err := locate(file, path)
	if err != nil {
		return nil, err
	}

	c := &FileCache{
		file:     file,
		path:     path,
		source:   source,
		identity: IdentityHash(path, file),
		store:    store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// locate resolves file beneath path and checks it is a readable regular file.
func locate(file, path string) (string, error) {
	if file == "" {
		return "", &NotFoundError{File: file, Path: path, Cause: errors.New("empty file name")}
	}
	if !filepath.IsLocal(file) {
		return "", &NotFoundError{File: file, Path: path, Cause: errors.New("file escapes snippet path")}
	}

	source := filepath.Join(path, file)
	info, err := os.Stat(source)
	if err != nil {
		return "", &NotFoundError{File: file, Path: path, Cause: err}
	}
	if info.IsDir() {
		return "", &NotFoundError{File: file, Path: path, Cause: errors.New("is a directory")}
	}
	return source, nil
}

// IsAvailable reports whether the store holds a rendering for the source's
// current version. Fails closed on any error.
func (c *FileCache) IsAvailable() bool {
	c.observed = ""
	if !c.Enabled() {
		return false
	}

	key, err := c.Key()
	if err != nil {
		c.logger.Debug("snippet cache unavailable", "file", c.file, "error", err)
		return false
	}
	c.observed = key

	_, ok := c.store.Get(key)
	return ok
}

// Get returns the cached rendering for the source's current version.
func (c *FileCache) Get() (string, error) {
	if !c.Enabled() {
		return "", &CacheError{Message: "caching disabled", Cause: ErrCacheMiss}
	}

	key, err := c.Key()
	if err != nil {
		return "", &CacheError{Message: "resolving cache key", Cause: err}
	}

	content, ok := c.store.Get(key)
	if !ok {
		return "", &CacheError{Message: "no entry for " + c.file, Cause: ErrCacheMiss}
	}
	return content, nil
}

// Save stores content under the key observed by the last IsAvailable call,
// or the current key when none was observed. If the source was edited in
// between, the entry lands under the older version and is never served.
func (c *FileCache) Save(content string) error {
	if !c.Enabled() {
		return nil
	}

	key := c.observed
	if key == "" {
		var err error
		if key, err = c.Key(); err != nil {
			return &CacheError{Message: "resolving cache key", Cause: err}
		}
	}

	if err := c.store.Set(key, content); err != nil {
		return &CacheError{Message: "saving " + c.file, Cause: err}
	}
	c.logger.Debug("snippet cached", "file", c.file, "key", key)
	return nil
}

// Enabled reports whether a store is configured.
func (c *FileCache) Enabled() bool {
	return c.store != nil
}

// Key returns the cache key for the source's current version.
func (c *FileCache) Key() (string, error) {
	info, err := os.Stat(c.source)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", c.source, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("stat %s: %w", c.source, fs.ErrInvalid)
	}
	if !c.hashContent {
		return CacheKey(c.identity, SourceVersion(info)), nil
	}

	content, err := os.ReadFile(c.source) // #nosec G304 - resolved beneath the configured snippet path
	if err != nil {
		return "", fmt.Errorf("read %s: %w", c.source, err)
	}
	return CacheKey(c.identity, ContentVersion(info, content)), nil
}

// File returns the snippet file identifier.
func (c *FileCache) File() string {
	return c.file
}

// Path returns the base directory the file is resolved against.
func (c *FileCache) Path() string {
	return c.path
}

// Source returns the resolved source path.
func (c *FileCache) Source() string {
	return c.source
}

// Verify FileCache implements Cacher
var _ Cacher = (*FileCache)(nil)
