package cache

import (
	"context"
	"time"
)

// Store is the cache contract shared by the embedding pipeline, the
// retrieval engine and the ingestion orchestrator. Implementations must
// be safe for concurrent use.
//
// Get and HGet return ErrCacheMiss when the key or field is absent;
// collection reads yield natural zero values instead. A TTL of zero or
// less means the entry never expires.
type Store interface {
	// Get retrieves the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix removes every key starting with prefix and returns
	// how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// HSet stores a field in the hash at key.
	HSet(ctx context.Context, key, field string, value []byte) error

	// HGet retrieves a field from the hash at key.
	HGet(ctx context.Context, key, field string) ([]byte, error)

	// HGetAll retrieves every field of the hash at key. A missing hash
	// yields an empty map, not an error.
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)

	// HDel removes fields from the hash at key. Missing fields are ignored.
	HDel(ctx context.Context, key string, fields ...string) error

	// SAdd adds members to the set at key.
	SAdd(ctx context.Context, key string, members ...string) error

	// SRem removes members from the set at key. Missing members are ignored.
	SRem(ctx context.Context, key string, members ...string) error

	// SMembers returns every member of the set at key. A missing set
	// yields an empty slice, not an error.
	SMembers(ctx context.Context, key string) ([]string, error)

	// SIsMember reports whether member is in the set at key.
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// LPush prepends values to the list at key, newest first.
	LPush(ctx context.Context, key string, values ...string) error

	// LRange returns list elements between start and stop inclusive.
	// Negative indices count back from the end, so LRange(key, 0, -1)
	// returns the whole list.
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// LLen returns the length of the list at key.
	LLen(ctx context.Context, key string) (int64, error)

	// LTrim keeps only list elements between start and stop inclusive.
	LTrim(ctx context.Context, key string, start, stop int64) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
