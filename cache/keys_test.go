package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "emb:text-embedding-3-small:abc123", EmbeddingKey("text-embedding-3-small", "abc123"))
	assert.Equal(t, "search:deadbeef", SearchKey("deadbeef"))

	assert.True(t, strings.HasPrefix(EmbeddingKey("m", "h"), EmbeddingKeyPrefix("m")))
	assert.True(t, strings.HasPrefix(SearchKey("h"), SearchKeyPrefix()))

	// Different models never share embedding entries
	assert.NotEqual(t, EmbeddingKey("model-a", "h"), EmbeddingKey("model-b", "h"))
}
