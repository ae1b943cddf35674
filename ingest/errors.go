package ingest

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrFragmentRepositoryRequired is returned when a fragment repository is not provided.
	ErrFragmentRepositoryRequired = errors.New("fragment repository required")

	// ErrPipelineRequired is returned when an embedding pipeline is not provided.
	ErrPipelineRequired = errors.New("embedding pipeline required")

	// ErrCacheRequired is returned when a cache store is not provided.
	ErrCacheRequired = errors.New("cache store required")

	// ErrExtractorRequired is returned when a text extractor is not provided.
	ErrExtractorRequired = errors.New("text extractor required")

	// ErrOrchestratorRequired is returned when an orchestrator is not provided.
	ErrOrchestratorRequired = errors.New("orchestrator required")

	// ErrDuplicateDocument is returned when ingesting content whose hash
	// matches an existing document, including a soft-deleted one.
	ErrDuplicateDocument = errors.New("document with identical content already exists")

	// ErrQueueFull is returned when the processing queue cannot accept
	// another job.
	ErrQueueFull = errors.New("processing queue full")

	// ErrDocumentDeleted is returned when processing a soft-deleted document.
	ErrDocumentDeleted = errors.New("document is deleted")
)
