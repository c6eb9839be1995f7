// Package cache provides a small byte cache keyed by request fingerprints,
// used to avoid re-fetching catalog search pages within a TTL window.
package cache

// EvictCallback is called when an entry is evicted from the cache.
// Not all providers support eviction callbacks (Redis relies on server-side
// expiry for part of its cleanup).
type EvictCallback func(key string, value []byte)

// Logger receives error reports from cache backends that fail out-of-band
// (network errors against Redis, for example).
type Logger interface {
	Error(msg string, err error)
}

// Cache is a key-value byte cache with LRU semantics. Implementations may
// be in-memory or backed by Redis/Valkey.
type Cache interface {
	// Get retrieves a value by key, reporting whether it was present.
	Get(key string) ([]byte, bool)

	// Set stores a value, overwriting any existing entry for the key.
	Set(key string, value []byte)

	// Len returns the number of entries currently in the cache.
	Len() int

	// Close releases backend resources. In-memory caches treat it as a no-op.
	Close() error
}
