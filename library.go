// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package corpus

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ai/openai"
	"github.com/poiesic/corpus/cache"
	"github.com/poiesic/corpus/cache/badgercache"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/embedding"
	"github.com/poiesic/corpus/ingest"
	"github.com/poiesic/corpus/retrieval"
	"github.com/poiesic/corpus/segment"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/badger"
)

// Library wires the document store, cache, AI provider, embedding
// pipeline, retrieval engine and ingestion orchestrator into one
// handle. All operations on a knowledge base go through it.
type Library struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	fragments storage.FragmentRepository
	cacheDB   *badgercache.Store
	store     cache.Store
	provider  ai.Provider
	pipeline  *embedding.Pipeline
	engine    *retrieval.Engine
	orch      *ingest.Orchestrator
	logger    *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig        *ai.Config
	embeddingConfig embedding.Config
	retrievalConfig retrieval.Config
	ingestConfig    ingest.Config
	provider        ai.Provider
	logger          *slog.Logger
	inMemory        bool
}

// WithAIConfig sets the provider configuration.
func WithAIConfig(cfg *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithEmbeddingConfig tunes the embedding pipeline. Model and
// Dimensions are always taken from the AI configuration so the
// pipeline and the provider cannot disagree.
func WithEmbeddingConfig(cfg embedding.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.embeddingConfig = cfg
	}
}

// WithRetrievalConfig tunes the retrieval engine.
func WithRetrievalConfig(cfg retrieval.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.retrievalConfig = cfg
	}
}

// WithIngestConfig tunes the ingestion orchestrator.
func WithIngestConfig(cfg ingest.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.ingestConfig = cfg
	}
}

// WithProvider supplies a pre-built AI provider instead of the
// OpenAI-compatible one constructed from the AI configuration. The
// library takes ownership and closes it on Close.
func WithProvider(provider ai.Provider) LibraryOption {
	return func(o *libraryOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) LibraryOption {
	return func(o *libraryOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInMemory keeps the document store and the cache in memory
// instead of on disk. Nothing survives Close.
func WithInMemory() LibraryOption {
	return func(o *libraryOptions) {
		o.inMemory = true
	}
}

// NewLibrary opens (or creates) a knowledge library under dataDir. The
// document store and the cache live in subdirectories beneath it.
func NewLibrary(dataDir string, opts ...LibraryOption) (*Library, error) {
	// Apply options
	options := &libraryOptions{
		aiConfig:        ai.DefaultConfig(),
		embeddingConfig: embedding.DefaultConfig(),
		retrievalConfig: retrieval.DefaultConfig(),
		ingestConfig:    ingest.DefaultConfig(),
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// The provider decides what vectors it produces.
	options.embeddingConfig.Model = options.aiConfig.EmbeddingModel
	options.embeddingConfig.Dimensions = options.aiConfig.Dimensions

	// Open backend
	backend, err := badger.OpenBackend(filepath.Join(dataDir, "documents"), options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create document repository
	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create fragment repository
	fragments, err := badger.NewFragmentRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	// Open the cache database; the fail-soft wrapper keeps cache
	// outages from failing operations.
	cacheDB, err := badgercache.Open(filepath.Join(dataDir, "cache"), options.inMemory)
	if err != nil {
		fragments.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}
	store := cache.NewFailSoft(cacheDB, options.logger)

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			cacheDB.Close()
			fragments.Close()
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	pipeline, err := embedding.NewPipeline(provider.Embedder(), store, fragments, documents,
		options.embeddingConfig, embedding.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		cacheDB.Close()
		fragments.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	// Query embeddings go through the pipeline so they share the
	// vector cache with document embeddings.
	engine, err := retrieval.NewEngine(pipeline, fragments, documents, store,
		options.retrievalConfig, retrieval.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		cacheDB.Close()
		fragments.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	orch, err := ingest.NewOrchestrator(documents, fragments, pipeline, store,
		options.ingestConfig, ingest.WithLogger(options.logger))
	if err != nil {
		engine.Release()
		provider.Close()
		cacheDB.Close()
		fragments.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	return &Library{
		backend:   backend,
		documents: documents,
		fragments: fragments,
		cacheDB:   cacheDB,
		store:     store,
		provider:  provider,
		pipeline:  pipeline,
		engine:    engine,
		orch:      orch,
		logger:    options.logger,
	}, nil
}

// Close releases the worker pools and closes every store. The library
// should not be used after calling Close.
func (l *Library) Close() error {
	l.orch.Release()
	l.engine.Release()

	// Close AI provider first
	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := l.fragments.Close(); err != nil {
		l.logger.Error("error closing fragment repository", "err", err)
		return err
	}
	if err := l.documents.Close(); err != nil {
		l.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close the cache, then the backend the repositories share
	if err := l.cacheDB.Close(); err != nil {
		l.logger.Error("error closing cache store", "err", err)
		return err
	}
	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (l *Library) DocumentRepository() storage.DocumentRepository {
	return l.documents
}

func (l *Library) FragmentRepository() storage.FragmentRepository {
	return l.fragments
}

func (l *Library) Cache() cache.Store {
	return l.store
}

// Ingest stores text as a new pending document and queues it for
// processing.
func (l *Library) Ingest(ctx context.Context, text string, opts ingest.IngestOptions) (*core.Document, error) {
	return l.orch.Ingest(ctx, text, opts)
}

// SearchRelevantFragments runs a similarity search over embedded
// fragments.
func (l *Library) SearchRelevantFragments(ctx context.Context, query string, opts retrieval.SearchOptions) ([]*core.SearchHit, error) {
	return l.engine.Search(ctx, query, opts)
}

// Ask searches for relevant fragments and streams an answer
// synthesized from them. The caller must drain or close the stream.
func (l *Library) Ask(ctx context.Context, query string, opts retrieval.SearchOptions) (*ai.Stream, []*core.SearchHit, error) {
	hits, err := l.engine.Search(ctx, query, opts)
	if err != nil {
		return nil, nil, err
	}
	prompt := retrieval.BuildAnswerPrompt(query, hits)
	stream, err := l.provider.Completer().Complete(ctx, prompt)
	if err != nil {
		return nil, nil, err
	}
	return stream, hits, nil
}

// Reprocess re-runs processing stages for one document.
func (l *Library) Reprocess(ctx context.Context, documentID core.ID, opts ingest.ReprocessOptions) (*ingest.Report, error) {
	return l.orch.Reprocess(ctx, documentID, opts)
}

// Rechunk re-segments a document with new options and re-embeds the
// resulting fragments.
func (l *Library) Rechunk(ctx context.Context, documentID core.ID, opts segment.Options) (*ingest.Report, error) {
	return l.orch.Rechunk(ctx, documentID, opts)
}

// ReprocessFailedEmbeddings retries embedding for a document's failed
// fragments only.
func (l *Library) ReprocessFailedEmbeddings(ctx context.Context, documentID core.ID) (*embedding.Summary, error) {
	return l.orch.ReprocessFailedEmbeddings(ctx, documentID)
}

// DeleteDocument soft-deletes a document and its fragments.
func (l *Library) DeleteDocument(ctx context.Context, documentID core.ID) error {
	return l.orch.DeleteDocument(ctx, documentID)
}

// FindDuplicates reports fragments nearly identical to the given one.
func (l *Library) FindDuplicates(ctx context.Context, fragmentID core.ID) ([]*core.SearchHit, error) {
	return l.engine.FindDuplicates(ctx, fragmentID)
}

// Cleanup reclaims storage and requeues stuck documents.
func (l *Library) Cleanup(ctx context.Context) (*ingest.CleanupReport, error) {
	return l.orch.Cleanup(ctx)
}

// Optimize sweeps the corpus for implausible chunking, low-confidence
// embeddings and near-duplicate fragments.
func (l *Library) Optimize(ctx context.Context) (*ingest.OptimizeReport, error) {
	return l.orch.Optimize(ctx)
}

// Export writes one document and its fragments as indented JSON.
func (l *Library) Export(ctx context.Context, documentID core.ID, w io.Writer) error {
	return l.orch.Export(ctx, documentID, w)
}

// KnowledgeStatus summarizes the corpus.
func (l *Library) KnowledgeStatus(ctx context.Context) (*ingest.KnowledgeStatus, error) {
	return l.orch.KnowledgeStatus(ctx)
}

// DocumentFragments pages through a document's fragments in position
// order.
func (l *Library) DocumentFragments(ctx context.Context, documentID core.ID, page int) ([]*core.Fragment, int, error) {
	return l.orch.DocumentFragments(ctx, documentID, page)
}

// QueueDepth reports queued processing jobs, including one in flight.
func (l *Library) QueueDepth() int {
	return l.orch.QueueDepth()
}

// NewWatcher creates a directory watcher that feeds matching files
// into this library.
func (l *Library) NewWatcher(opts ...ingest.WatcherOption) (*ingest.Watcher, error) {
	return ingest.NewWatcher(l.orch, &ingest.PlainTextExtractor{}, opts...)
}
