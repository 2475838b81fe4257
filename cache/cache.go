// Package cache provides render cache backends.
package cache

// Store is the interface for rendered snippet storage.
type Store interface {
	// Get retrieves a cached rendering. Returns empty string and false if not found or expired.
	Get(key string) (string, bool)

	// Set stores a rendering in the cache, replacing any previous value.
	Set(key string, value string) error
}
