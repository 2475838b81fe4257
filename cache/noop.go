package cache

// NoopCache never holds anything. Useful when a Store is required but
// persistence is not wanted.
type NoopCache struct{}

// Get always misses.
func (NoopCache) Get(string) (string, bool) {
	return "", false
}

// Set discards the value.
func (NoopCache) Set(string, string) error {
	return nil
}

// Verify NoopCache implements Store
var _ Store = NoopCache{}
