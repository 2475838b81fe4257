package cache

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o755
	defaultFilePerm       = 0o644
	tmpPrefix             = ".tmp-"
)

// DiskCache stores each rendering as a file beneath dir. Filenames are the
// base64url encoding of the key so keys can be recovered for export.
// Expiry is judged by file modification time.
type DiskCache struct {
	dir            string
	shardPrefixLen int
	dirPerm        os.FileMode
	filePerm       os.FileMode
	ttl            time.Duration
	now            func() time.Time
}

// DiskOption configures a disk cache.
type DiskOption func(*DiskCache)

// WithTTL sets how long an entry stays valid after it was written.
// Zero or negative disables expiry.
func WithTTL(ttl time.Duration) DiskOption {
	return func(c *DiskCache) {
		if ttl < 0 {
			ttl = 0
		}
		c.ttl = ttl
	}
}

// WithShardPrefixLen sets the number of filename characters used for the
// shard directory. Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) DiskOption {
	return func(c *DiskCache) {
		c.shardPrefixLen = n
	}
}

// WithDirPerm sets the permissions used for cache directories.
func WithDirPerm(mode os.FileMode) DiskOption {
	return func(c *DiskCache) {
		c.dirPerm = mode
	}
}

// WithFilePerm sets the permissions used for cache files.
func WithFilePerm(mode os.FileMode) DiskOption {
	return func(c *DiskCache) {
		c.filePerm = mode
	}
}

// NewDiskCache creates a disk-backed cache rooted at dir, creating it if needed.
func NewDiskCache(dir string, opts ...DiskOption) (*DiskCache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	c := &DiskCache{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
		filePerm:       defaultFilePerm,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.shardPrefixLen < 0 {
		return nil, errors.New("shard prefix length must be >= 0")
	}
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return c, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	return c.dir
}

// Get reads a cached rendering. Missing, unreadable or expired files are misses.
func (c *DiskCache) Get(key string) (string, bool) {
	path, err := c.path(key)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	if c.expired(info) {
		return "", false
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the encoded key
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set writes a rendering atomically (temp file + rename), replacing any
// previous file for key.
func (c *DiskCache) Set(key string, value string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Chmod(tmpPath, c.filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting cache file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}

// Delete removes a cached rendering. Deleting a missing key is not an error.
func (c *DiskCache) Delete(key string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Purge removes files older than maxAge and returns how many were removed.
// A maxAge of zero or less is a no-op.
func (c *DiskCache) Purge(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := c.now()
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("purging cache: %w", err)
	}
	return removed, nil
}

// Entries returns all non-expired entries keyed by their original key.
// Used for cache export.
func (c *DiskCache) Entries() (map[string]string, error) {
	result := make(map[string]string)
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}
		key, err := decodeKey(d.Name())
		if err != nil {
			return nil // not one of ours
		}
		if value, ok := c.Get(key); ok {
			result[key] = value
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing cache: %w", err)
	}
	return result, nil
}

func (c *DiskCache) expired(info fs.FileInfo) bool {
	return c.ttl > 0 && c.now().Sub(info.ModTime()) > c.ttl
}

func (c *DiskCache) path(key string) (string, error) {
	if key == "" {
		return "", errors.New("key is empty")
	}
	name := encodeKey(key)
	if c.shardPrefixLen <= 0 {
		return filepath.Join(c.dir, name), nil
	}
	prefixLen := c.shardPrefixLen
	if prefixLen > len(name) {
		prefixLen = len(name)
	}
	return filepath.Join(c.dir, name[:prefixLen], name), nil
}

func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeKey(name string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify DiskCache implements Store
var _ Store = (*DiskCache)(nil)
