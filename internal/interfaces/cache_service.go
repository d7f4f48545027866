// Package interfaces provides service interfaces for dependency injection.
package interfaces

// CacheService stores API payloads for a bounded time.
type CacheService interface {
	// Get returns the value for key if present and not expired.
	Get(key string) (interface{}, bool)

	// Set stores value under key, resetting its age.
	Set(key string, value interface{})

	// Delete removes key if present.
	Delete(key string)

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(prefix string) int
}
