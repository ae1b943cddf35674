package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpus/cache"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/vectormath"
)

const (
	// maxRecentQueries bounds the recent-queries list.
	maxRecentQueries = 50

	// statsTimeout bounds each background usage-stat write.
	statsTimeout = 5 * time.Second

	// topResultRanks is how many leading hits count as top results in
	// usage statistics.
	topResultRanks = 3
)

// QueryEmbedder turns query text into a vector. *embedding.Pipeline
// satisfies it, so query embeddings flow through the shared cache.
type QueryEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// SearchOptions narrows one search. Zero values fall back to the
// engine's configured defaults.
type SearchOptions struct {
	// Limit caps the number of hits; <= 0 uses Config.Limit.
	Limit int

	// Threshold is the minimum similarity; 0 uses Config.Threshold.
	Threshold float32

	// DocumentIds restricts the scan to fragments of these documents.
	DocumentIds []core.ID

	// ContentTypes restricts hits to fragments of these detected types.
	ContentTypes []core.ContentType
}

// Engine answers similarity queries over embedded fragments.
type Engine struct {
	embedder  QueryEmbedder
	fragments storage.FragmentRepository
	documents storage.DocumentRepository
	cache     cache.Store
	config    Config
	stats     *ants.Pool
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a retrieval engine.
func NewEngine(
	embedder QueryEmbedder,
	fragments storage.FragmentRepository,
	documents storage.DocumentRepository,
	store cache.Store,
	config Config,
	opts ...Option,
) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if fragments == nil {
		return nil, ErrFragmentRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if store == nil {
		return nil, ErrCacheRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// A saturated pool drops stat tasks instead of queueing them, so
	// searches never wait on statistics.
	stats, err := ants.NewPool(config.StatsWorkers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		embedder:  embedder,
		fragments: fragments,
		documents: documents,
		cache:     store,
		config:    config,
		stats:     stats,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			stats.Release()
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "retrieval")

	return e, nil
}

// Release frees the background stats pool.
// The engine should not be used after calling Release.
func (e *Engine) Release() {
	e.stats.Release()
}

// Search embeds the query and returns fragments ranked by similarity,
// enriched with their parent document's title and filename.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) ([]*core.SearchHit, error) {
	return e.SearchWithMonitor(ctx, query, opts, nil)
}

// SearchWithMonitor searches with hooks into each stage of the process.
// The monitor receives callbacks as the search progresses.
func (e *Engine) SearchWithMonitor(ctx context.Context, query string, opts SearchOptions, monitor Monitor) ([]*core.SearchHit, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil, ErrEmptyQuery
	}
	opts = e.withDefaults(opts)
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	monitor.Start(normalized)

	key := cache.SearchKey(canonicalKey(normalized, opts))
	if hits, ok := e.cachedHits(ctx, key); ok {
		monitor.CacheHit(key)
		e.recordUsage(hits)
		monitor.Finish(hits)
		return hits, nil
	}

	vector, err := e.embedder.EmbedText(ctx, normalized)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", normalized, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(vector)

	matches, err := e.scan(ctx, vector, opts)
	if err != nil {
		e.logger.Error("error scanning for similar fragments", "err", err)
		return nil, err
	}
	monitor.AfterScan(matches)

	hits, err := e.enrich(ctx, matches)
	if err != nil {
		return nil, err
	}

	e.recordUsage(hits)
	e.storeHits(ctx, key, normalized, hits)

	monitor.Finish(hits)
	return hits, nil
}

// FindDuplicates returns fragments whose embeddings nearly coincide
// with the given fragment's, excluding the fragment itself.
func (e *Engine) FindDuplicates(ctx context.Context, fragmentID core.ID) ([]*core.SearchHit, error) {
	fragment, err := e.fragments.GetFragment(ctx, fragmentID)
	if err != nil {
		return nil, err
	}
	if fragment.EmbeddingStatus != core.StatusCompleted || len(fragment.Vector) == 0 {
		return nil, ErrNotEmbedded
	}

	matches, err := e.fragments.FindSimilar(ctx, fragment.Vector, storage.SimilarOptions{
		MinSimilarity: e.config.DuplicateThreshold,
		Exclude:       fragment.Id,
	})
	if err != nil {
		return nil, err
	}
	return e.enrich(ctx, matches)
}

func (e *Engine) withDefaults(opts SearchOptions) SearchOptions {
	if opts.Limit <= 0 {
		opts.Limit = e.config.Limit
	}
	if opts.Threshold == 0 {
		opts.Threshold = e.config.Threshold
	}
	return opts
}

func validateOptions(opts SearchOptions) error {
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return fmt.Errorf("search options: threshold must be in [0, 1], got %g", opts.Threshold)
	}
	return nil
}

// scan ranks candidate fragments against the query vector. A document
// filter makes the candidate set small enough to rank in-process over
// the per-document listings; without one the repository's full scan
// does the work.
func (e *Engine) scan(ctx context.Context, vector []float32, opts SearchOptions) ([]*core.FragmentMatch, error) {
	if len(opts.DocumentIds) == 0 {
		return e.fragments.FindSimilar(ctx, vector, storage.SimilarOptions{
			MinSimilarity: opts.Threshold,
			Limit:         opts.Limit,
			ContentTypes:  opts.ContentTypes,
		})
	}

	wanted := make(map[core.ContentType]bool, len(opts.ContentTypes))
	for _, ct := range opts.ContentTypes {
		wanted[ct] = true
	}

	matches := make([]*core.FragmentMatch, 0, opts.Limit)
	for _, docID := range opts.DocumentIds {
		frags, err := e.fragments.ListFragmentsByDocument(ctx, docID)
		if err != nil {
			return nil, err
		}
		for _, f := range frags {
			if f.EmbeddingStatus != core.StatusCompleted || len(f.Vector) == 0 {
				continue
			}
			if len(wanted) > 0 && !wanted[f.Metadata.ContentType] {
				continue
			}
			score, err := vectormath.Similarity(vector, f.Vector, vectormath.MetricCosine)
			if err != nil {
				// Stale dimensionality from an older model; not a candidate.
				continue
			}
			if score < opts.Threshold {
				continue
			}
			matches = append(matches, &core.FragmentMatch{Fragment: f, Similarity: score})
		}
	}

	return vectormath.TopK(matches, opts.Limit, func(m *core.FragmentMatch) float32 {
		return m.Similarity
	}), nil
}

// enrich resolves each match's parent document in one batched read.
func (e *Engine) enrich(ctx context.Context, matches []*core.FragmentMatch) ([]*core.SearchHit, error) {
	if len(matches) == 0 {
		return []*core.SearchHit{}, nil
	}

	seen := make(map[core.ID]bool, len(matches))
	ids := make([]core.ID, 0, len(matches))
	for _, m := range matches {
		if !seen[m.Fragment.DocumentId] {
			seen[m.Fragment.DocumentId] = true
			ids = append(ids, m.Fragment.DocumentId)
		}
	}

	docs, err := e.documents.GetDocuments(ctx, ids...)
	if err != nil {
		e.logger.Error("error retrieving parent documents", "documentCount", len(ids), "err", err)
		return nil, err
	}
	byID := make(map[core.ID]*core.Document, len(docs))
	for _, doc := range docs {
		byID[doc.Id] = doc
	}

	hits := make([]*core.SearchHit, 0, len(matches))
	for _, m := range matches {
		hit := &core.SearchHit{Fragment: m.Fragment, Similarity: m.Similarity}
		if doc := byID[m.Fragment.DocumentId]; doc != nil {
			hit.DocumentTitle = doc.Title
			hit.DocumentFilename = doc.Filename
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// recordUsage folds the hits into fragment usage statistics in the
// background. Statistics are best-effort: a saturated pool or a failed
// write drops the update with a debug log.
func (e *Engine) recordUsage(hits []*core.SearchHit) {
	for i, hit := range hits {
		id := hit.Fragment.Id
		relevance := hit.Similarity
		topResult := i < topResultRanks
		err := e.stats.Submit(func() {
			ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
			defer cancel()
			if err := e.fragments.RecordUsage(ctx, id, relevance, topResult); err != nil {
				e.logger.Debug("usage stat dropped", "fragment", id, "err", err)
			}
		})
		if err != nil {
			e.logger.Debug("usage stat dropped", "fragment", id, "err", err)
		}
	}
}

func (e *Engine) cachedHits(ctx context.Context, key string) ([]*core.SearchHit, bool) {
	data, err := e.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	hits, err := storage.UnmarshalSearchHits(data)
	if err != nil {
		e.logger.Debug("dropping undecodable search cache entry", "key", key, "err", err)
		return nil, false
	}
	return hits, true
}

// storeHits caches the result set, registers its key for invalidation,
// and pushes the query onto the bounded recent-queries list.
func (e *Engine) storeHits(ctx context.Context, key, normalized string, hits []*core.SearchHit) {
	if err := e.cache.Set(ctx, key, storage.MarshalSearchHits(hits), e.config.CacheTTL); err != nil {
		e.logger.Debug("search cache write failed", "key", key, "err", err)
	} else if err := e.cache.SAdd(ctx, cache.KeySearchIndex, key); err != nil {
		e.logger.Debug("search key registration failed", "key", key, "err", err)
	}

	if err := e.cache.LPush(ctx, cache.KeyRecentQueries, normalized); err != nil {
		e.logger.Debug("recent query push failed", "err", err)
		return
	}
	if err := e.cache.LTrim(ctx, cache.KeyRecentQueries, 0, maxRecentQueries-1); err != nil {
		e.logger.Debug("recent query trim failed", "err", err)
	}
}
