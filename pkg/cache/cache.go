// Package cache provides pluggable byte caches for discovery results.
//
// Resource Graph queries are slow and rate-limited; caching one query's
// result set keyed by its KQL text and subscription scope makes repeated
// diagram generation against an unchanged environment near-instant.
//
// Three backends are provided: FileCache for CLI usage, RedisCache for
// the long-running service, and NullCache to disable caching entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores opaque byte values under string keys with per-entry TTL.
// A TTL of 0 means the entry never expires.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found
	// and fresh; expired or missing entries are a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// QueryKey derives a cache key for one Resource Graph query: the KQL
// text and the subscription scope are hashed together so the same query
// against a different scope never aliases.
func QueryKey(kql string, subscriptions []string) string {
	return hashKey("query", kql, subscriptions)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
