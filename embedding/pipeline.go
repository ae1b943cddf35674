package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/cache"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/vectormath"
)

// Result reports the outcome of embedding one text.
type Result struct {
	// Vector is the validated, normalized embedding; nil when Err is set.
	Vector []float32

	// Cached marks vectors served from the cache without a provider call.
	Cached bool

	// Retries is how many retries the text's batch consumed.
	Retries int

	// Err is the scoped failure for this text, nil on success.
	Err error

	// Code classifies Err for ErrorRecord persistence.
	Code string
}

// Pipeline embeds texts through a provider with batching, retries,
// pacing and content-addressed caching.
type Pipeline struct {
	embedder  ai.Embedder
	cache     cache.Store
	fragments storage.FragmentRepository
	documents storage.DocumentRepository
	config    Config
	limiter   *rate.Limiter
	logger    *slog.Logger
}

var _ ai.Embedder = (*Pipeline)(nil)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates an embedding pipeline.
func NewPipeline(
	embedder ai.Embedder,
	store cache.Store,
	fragments storage.FragmentRepository,
	documents storage.DocumentRepository,
	config Config,
	opts ...Option,
) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrCacheRequired
	}
	if fragments == nil {
		return nil, ErrFragmentRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		embedder:  embedder,
		cache:     store,
		fragments: fragments,
		documents: documents,
		config:    config,
		limiter:   rate.NewLimiter(rate.Every(config.BatchInterval), 1),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "embedding")
	return p, nil
}

// Model returns the configured embedding model name.
func (p *Pipeline) Model() string {
	return p.config.Model
}

// Dimensions returns the configured vector width.
func (p *Pipeline) Dimensions() int {
	return p.config.Dimensions
}

// EmbedText embeds a single text through the cache.
func (p *Pipeline) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts preserving input order and 1:1 cardinality.
// Any item failure fails the whole call; use EmbedAll for per-item
// outcomes.
func (p *Pipeline) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := p.EmbedAll(ctx, texts)
	vectors := make([][]float32, len(results))
	for i, res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), res.Err)
		}
		vectors[i] = res.Vector
	}
	return vectors, nil
}

// EmbedAll embeds texts and reports a Result per text, in input order.
// Cached vectors cost no provider calls; the rest go out in batches of
// BatchSize. A provider failure after retries fails its whole batch, an
// invalid vector fails only its own text, and other batches proceed
// regardless.
func (p *Pipeline) EmbedAll(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))

	pending := make([]int, 0, len(texts))
	for i, text := range texts {
		if vec, ok := p.cachedVector(ctx, text); ok {
			results[i] = Result{Vector: vec, Cached: true}
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) > 0 {
		p.logger.Debug("embedding texts",
			"total", len(texts), "cached", len(texts)-len(pending), "pending", len(pending))
	}

	for start := 0; start < len(pending); start += p.config.BatchSize {
		end := min(start+p.config.BatchSize, len(pending))
		p.embedBatch(ctx, texts, pending[start:end], results)
	}
	return results
}

// embedBatch embeds the texts at the given indices and fills results.
func (p *Pipeline) embedBatch(ctx context.Context, texts []string, batch []int, results []Result) {
	batchTexts := make([]string, len(batch))
	for i, idx := range batch {
		batchTexts[i] = texts[idx]
	}

	var vectors [][]float32
	attempts, err := RetryWithBackoff(ctx, func() error {
		if waitErr := p.limiter.Wait(ctx); waitErr != nil {
			return waitErr
		}
		var embedErr error
		vectors, embedErr = p.embedder.EmbedTexts(ctx, batchTexts)
		return embedErr
	}, p.config.MaxRetries, p.config.RetryBaseDelay)

	retries := attempts - 1
	if retries < 0 {
		retries = 0
	}

	if err == nil && len(vectors) != len(batch) {
		err = fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
	}
	if err != nil {
		p.logger.Warn("batch embedding failed", "size", len(batch), "attempts", attempts, "err", err)
		for _, idx := range batch {
			results[idx] = Result{Retries: retries, Err: err, Code: core.ErrCodeProvider}
		}
		return
	}

	for i, idx := range batch {
		vec := vectors[i]
		if err := ValidateVector(vec, p.config.Dimensions); err != nil {
			p.logger.Warn("provider returned invalid vector", "text", idx, "err", err)
			results[idx] = Result{Retries: retries, Err: err, Code: core.ErrCodeInvalidVector}
			continue
		}
		vec = vectormath.Normalize(vec)
		p.storeVector(ctx, texts[idx], vec)
		results[idx] = Result{Vector: vec, Retries: retries}
	}
}

func (p *Pipeline) cacheKey(text string) string {
	return cache.EmbeddingKey(p.config.Model, core.ContentHash(text))
}

// cachedVector returns a previously computed vector for text. Decode
// failures and stale dimensionalities count as misses so the entry gets
// recomputed and overwritten.
func (p *Pipeline) cachedVector(ctx context.Context, text string) ([]float32, bool) {
	data, err := p.cache.Get(ctx, p.cacheKey(text))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	vec, err := storage.UnmarshalVector(data)
	if err != nil || ValidateVector(vec, p.config.Dimensions) != nil {
		return nil, false
	}
	return vec, true
}

func (p *Pipeline) storeVector(ctx context.Context, text string, vec []float32) {
	if err := p.cache.Set(ctx, p.cacheKey(text), storage.MarshalVector(vec), p.config.CacheTTL); err != nil {
		p.logger.Debug("embedding cache write failed", "err", err)
	}
}
