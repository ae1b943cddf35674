package cache

import "fmt"

// Canonical key shapes. Every component builds cache keys through these
// helpers so writers and invalidation prefixes stay in sync.
const (
	embeddingPrefix = "emb"
	searchPrefix    = "search"

	// KeySearchIndex is the set of live search result keys, consulted
	// when mutating operations invalidate cached searches.
	KeySearchIndex = "search-keys"

	// KeyRecentQueries is the most-recent-first list of search queries.
	KeyRecentQueries = "recent-queries"

	// KeyStatus is the hash of component status fields.
	KeyStatus = "status"
)

// EmbeddingKey returns the cache key of one text's embedding vector.
// hash is the content hash of the text, so identical content shares a
// cache entry regardless of which document carries it; model keeps
// vectors from different embedders apart.
func EmbeddingKey(model, hash string) string {
	return fmt.Sprintf("%s:%s:%s", embeddingPrefix, model, hash)
}

// EmbeddingKeyPrefix returns the prefix shared by all embedding keys of
// one model, for bulk invalidation.
func EmbeddingKeyPrefix(model string) string {
	return fmt.Sprintf("%s:%s:", embeddingPrefix, model)
}

// SearchKey returns the cache key of one query's serialized result set.
// hash covers the normalized query and the canonical search options.
func SearchKey(hash string) string {
	return fmt.Sprintf("%s:%s", searchPrefix, hash)
}

// SearchKeyPrefix returns the prefix shared by all search result keys,
// for bulk invalidation via DeletePrefix.
func SearchKeyPrefix() string {
	return searchPrefix + ":"
}
