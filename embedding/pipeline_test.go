package embedding

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ai/mock"
	"github.com/poiesic/corpus/cache"
	"github.com/poiesic/corpus/cache/badgercache"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/badger"
	"github.com/poiesic/corpus/vectormath"
)

const testDims = 8

func testConfig() Config {
	config := DefaultConfig()
	config.Model = "test-model"
	config.Dimensions = testDims
	config.BatchSize = 4
	config.MaxRetries = 3
	config.RetryBaseDelay = time.Millisecond
	config.BatchInterval = 0
	return config
}

func newTestRepos(t *testing.T) (storage.DocumentRepository, storage.FragmentRepository) {
	t.Helper()
	docRepo, fragRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { fragRepo.Close(); docRepo.Close(); backend.Close() })
	return docRepo, fragRepo
}

func newTestStore(t *testing.T) cache.Store {
	t.Helper()
	store, err := badgercache.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestPipeline(t *testing.T, embedder ai.Embedder, store cache.Store) *Pipeline {
	t.Helper()
	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, store, fragRepo, docRepo, testConfig())
	require.NoError(t, err)
	return p
}

// countingStore counts cache writes so tests can prove a retried batch
// is still written exactly once.
type countingStore struct {
	cache.Store
	sets int
}

func (c *countingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets++
	return c.Store.Set(ctx, key, value, ttl)
}

// fakeVector derives a deterministic vector from the text length, so
// tests can predict exactly what the pipeline should return per text.
func fakeVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	for i := range v {
		v[i] = float32((len(text)*31+i*7)%97) + 1.0
	}
	return v
}

func fakeVectors(texts []string, dims int) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = fakeVector(text, dims)
	}
	return vectors
}

func TestNewPipeline_Validation(t *testing.T) {
	docRepo, fragRepo := newTestRepos(t)
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()

	_, err := NewPipeline(nil, store, fragRepo, docRepo, testConfig())
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(embedder, nil, fragRepo, docRepo, testConfig())
	assert.ErrorIs(t, err, ErrCacheRequired)

	_, err = NewPipeline(embedder, store, nil, docRepo, testConfig())
	assert.ErrorIs(t, err, ErrFragmentRepositoryRequired)

	_, err = NewPipeline(embedder, store, fragRepo, nil, testConfig())
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	bad := testConfig()
	bad.Model = ""
	_, err = NewPipeline(embedder, store, fragRepo, docRepo, bad)
	assert.Error(t, err)
}

func TestEmbedText_CachesVector(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = testDims
	p := newTestPipeline(t, embedder, newTestStore(t))
	ctx := context.Background()

	first, err := p.EmbedText(ctx, "the quick brown fox")
	require.NoError(t, err)
	require.Len(t, first, testDims)
	assert.InDelta(t, 1.0, vectormath.Magnitude(first), 1e-5, "stored vectors are normalized")
	assert.Equal(t, 1, embedder.CallCount())

	second, err := p.EmbedText(ctx, "the quick brown fox")
	require.NoError(t, err)
	assert.Equal(t, first, second, "cache must return the identical vector")
	assert.Equal(t, 1, embedder.CallCount(), "second call must be served from cache")
}

func TestEmbedAll_RateLimitRetriesOnce(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, &ai.ProviderError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}
		}
		return fakeVectors(texts, testDims), nil
	}

	store := &countingStore{Store: newTestStore(t)}
	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, store, fragRepo, docRepo, testConfig())
	require.NoError(t, err)

	texts := []string{"first text", "second longer text"}
	results := p.EmbedAll(context.Background(), texts)
	require.Len(t, results, 2)

	for i, res := range results {
		require.NoError(t, res.Err, "text %d", i)
		assert.Equal(t, 1, res.Retries, "the 429 costs exactly one retry")
		assert.False(t, res.Cached)
		assert.Equal(t, vectormath.Normalize(fakeVector(texts[i], testDims)), res.Vector)
	}
	assert.Equal(t, 2, calls, "one failed call plus one successful call")
	assert.Equal(t, 2, store.sets, "each text cached exactly once despite the retry")
}

func TestEmbedAll_WarmCacheSkipsProvider(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = testDims
	p := newTestPipeline(t, embedder, newTestStore(t))
	ctx := context.Background()

	texts := []string{"alpha", "beta", "gamma"}
	warm := p.EmbedAll(ctx, texts)
	for i, res := range warm {
		require.NoError(t, res.Err, "text %d", i)
		assert.False(t, res.Cached)
	}
	require.Equal(t, 1, embedder.CallCount(), "three texts fit one batch")

	cached := p.EmbedAll(ctx, texts)
	for i, res := range cached {
		require.NoError(t, res.Err, "text %d", i)
		assert.True(t, res.Cached)
		assert.Equal(t, warm[i].Vector, res.Vector)
	}
	assert.Equal(t, 1, embedder.CallCount(), "warm cache costs no provider calls")
}

func TestEmbedAll_PartialCacheHitsPreserveOrder(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return fakeVectors(texts, testDims), nil
	}
	p := newTestPipeline(t, embedder, newTestStore(t))
	ctx := context.Background()

	_, err := p.EmbedText(ctx, "bee")
	require.NoError(t, err)

	texts := []string{"alpha", "bee", "gamma ray"}
	results := p.EmbedAll(ctx, texts)
	require.Len(t, results, 3)

	assert.False(t, results[0].Cached)
	assert.True(t, results[1].Cached)
	assert.False(t, results[2].Cached)
	for i, res := range results {
		require.NoError(t, res.Err, "text %d", i)
		assert.Equal(t, vectormath.Normalize(fakeVector(texts[i], testDims)), res.Vector,
			"text %d vector out of order", i)
	}
}

func TestEmbedAll_InvalidVectorScopedToText(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			if text == "poison" {
				vectors[i] = fakeVector(text, testDims+1) // wrong width
				continue
			}
			vectors[i] = fakeVector(text, testDims)
		}
		return vectors, nil
	}

	store := &countingStore{Store: newTestStore(t)}
	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, store, fragRepo, docRepo, testConfig())
	require.NoError(t, err)

	results := p.EmbedAll(context.Background(), []string{"good one", "poison", "good two"})
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	require.NoError(t, results[2].Err)
	require.Error(t, results[1].Err)
	assert.ErrorIs(t, results[1].Err, ErrInvalidVector)
	assert.Equal(t, core.ErrCodeInvalidVector, results[1].Code)
	assert.Nil(t, results[1].Vector)
	assert.Equal(t, 2, store.sets, "the invalid vector must not be cached")
}

func TestEmbedAll_ProviderFailureScopedToBatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		for _, text := range texts {
			if text == "poison" {
				return nil, &ai.ProviderError{StatusCode: http.StatusBadRequest, Message: "rejected"}
			}
		}
		return fakeVectors(texts, testDims), nil
	}

	config := testConfig()
	config.BatchSize = 2
	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, newTestStore(t), fragRepo, docRepo, config)
	require.NoError(t, err)

	texts := []string{"poison", "collateral", "survivor one", "survivor two"}
	results := p.EmbedAll(context.Background(), texts)
	require.Len(t, results, 4)

	for _, i := range []int{0, 1} {
		require.Error(t, results[i].Err, "text %d shares the failed batch", i)
		assert.Equal(t, core.ErrCodeProvider, results[i].Code)
	}
	for _, i := range []int{2, 3} {
		require.NoError(t, results[i].Err, "text %d is in an unaffected batch", i)
	}
	assert.Equal(t, 2, embedder.CallCount(), "a 400 is permanent, no retries")
}

func TestEmbedTexts_FailsOnAnyError(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, &ai.ProviderError{StatusCode: http.StatusUnauthorized, Message: "bad key"}
	}
	p := newTestPipeline(t, embedder, newTestStore(t))

	vectors, err := p.EmbedTexts(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	assert.Nil(t, vectors)

	var providerErr *ai.ProviderError
	assert.ErrorAs(t, err, &providerErr)
}

func TestEmbedAll_CacheOutageDegrades(t *testing.T) {
	broken, err := badgercache.NewMemoryStore()
	require.NoError(t, err)
	require.NoError(t, broken.Close()) // every cache call now errors

	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = testDims
	docRepo, fragRepo := newTestRepos(t)
	p, err := NewPipeline(embedder, cache.NewFailSoft(broken, nil), fragRepo, docRepo, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := p.EmbedText(ctx, "resilient")
	require.NoError(t, err)
	require.Len(t, first, testDims)

	second, err := p.EmbedText(ctx, "resilient")
	require.NoError(t, err)
	assert.Equal(t, first, second, "deterministic embedder keeps results stable")
	assert.Equal(t, 2, embedder.CallCount(), "without a cache every call reaches the provider")
}

func TestEmbedAll_EmptyInput(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	p := newTestPipeline(t, embedder, newTestStore(t))

	assert.Empty(t, p.EmbedAll(context.Background(), nil))

	vectors, err := p.EmbedTexts(context.Background(), []string{})
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Equal(t, 0, embedder.CallCount())
}
