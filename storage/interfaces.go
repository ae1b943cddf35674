package storage

import (
	"context"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectormath"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentFilter narrows a document listing. A zero Status value on any
// track means "any"; deleted documents are excluded unless IncludeDeleted
// is set. Limit <= 0 returns everything.
type DocumentFilter struct {
	ProcessingStatus core.Status
	ChunkingStatus   core.Status
	EmbeddingStatus  core.Status
	IncludeDeleted   bool
	Limit            int
}

// FragmentFilter narrows a fragment listing. A zero DocumentId means all
// documents; a zero Status value on either track means "any".
type FragmentFilter struct {
	DocumentId       core.ID
	ProcessingStatus core.Status
	EmbeddingStatus  core.Status
	IncludeDeleted   bool
	Limit            int
}

// SimilarOptions controls a vector similarity scan over fragments.
// Only non-deleted fragments with a completed embedding are considered.
type SimilarOptions struct {
	// MinSimilarity excludes matches scoring below this value.
	MinSimilarity float32

	// Limit caps the number of matches returned; <= 0 means no cap.
	Limit int

	// DocumentIds restricts candidates to fragments of these documents.
	// Empty means all documents.
	DocumentIds []core.ID

	// ContentTypes restricts candidates to fragments of these detected
	// content types. Empty means all types.
	ContentTypes []core.ContentType

	// Exclude drops a single fragment from the candidate set. Used by
	// duplicate detection so a fragment never matches itself.
	Exclude core.ID

	// Metric selects the similarity measure. Zero value defaults to
	// cosine similarity.
	Metric vectormath.Metric
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, generates new IDs from sequence.
	// Sets InsertedAt/UpdatedAt timestamps and indexes the content hash.
	// Returns the documents with generated IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically and keeps the content
	// hash index in sync. Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID, whether or not it has
	// been soft-deleted. Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing IDs).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// FindDocumentByHash looks a document up by its content hash.
	// Soft-deleted documents are still found, so re-ingesting deleted
	// content surfaces as a duplicate rather than silently recreating it.
	// Returns ErrNotFound if no document carries the hash.
	FindDocumentByHash(ctx context.Context, hash string) (*core.Document, error)

	// ListDocuments retrieves documents matching the filter, in ID order.
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*core.Document, error)

	// SoftDeleteDocuments marks documents deleted without removing them,
	// so fragments keep a resolvable parent until the cleanup reaper runs.
	// Returns ErrNotFound if any document doesn't exist.
	SoftDeleteDocuments(ctx context.Context, ids ...core.ID) error

	// DeleteDocuments physically removes documents and their hash index
	// entries. Only the cleanup reaper should call this, and only for
	// documents whose fragments are already gone.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error
}

// FragmentRepository provides operations for managing fragments.
type FragmentRepository interface {
	Repository

	// AddFragments adds fragments to storage in document order.
	// Generates sequence IDs, sets timestamps, maintains the per-document
	// position index, and links PrevId/NextId between consecutive
	// fragments of the same document within the batch.
	AddFragments(ctx context.Context, fragments ...*core.Fragment) ([]*core.Fragment, error)

	// UpdateFragments updates existing fragments.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any fragment doesn't exist.
	UpdateFragments(ctx context.Context, fragments ...*core.Fragment) ([]*core.Fragment, error)

	// GetFragment retrieves a single fragment by ID.
	// Returns ErrNotFound if the fragment doesn't exist.
	GetFragment(ctx context.Context, id core.ID) (*core.Fragment, error)

	// GetFragments retrieves multiple fragments by their IDs.
	// Returns only the fragments that exist (no error for missing IDs).
	GetFragments(ctx context.Context, ids ...core.ID) ([]*core.Fragment, error)

	// ListFragmentsByDocument retrieves a document's non-deleted fragments
	// ordered by position.
	ListFragmentsByDocument(ctx context.Context, documentID core.ID) ([]*core.Fragment, error)

	// ListFragments retrieves fragments matching the filter, in ID order.
	ListFragments(ctx context.Context, filter FragmentFilter) ([]*core.Fragment, error)

	// UpdateEmbeddingStatuses bulk-updates the embedding status of the
	// given fragments. Returns ErrNotFound if any fragment doesn't exist.
	UpdateEmbeddingStatuses(ctx context.Context, status core.Status, ids ...core.ID) error

	// DeleteFragmentsByDocument physically removes all fragments belonging
	// to a document and returns how many were removed.
	DeleteFragmentsByDocument(ctx context.Context, documentID core.ID) (int, error)

	// DeleteFragments physically removes fragments by their IDs.
	// Returns ErrNotFound if any fragment doesn't exist.
	DeleteFragments(ctx context.Context, ids ...core.ID) error

	// CountFragmentsByDocument returns the number of non-deleted fragments
	// belonging to a document.
	CountFragmentsByDocument(ctx context.Context, documentID core.ID) (int, error)

	// FindSimilar scans embedded fragments and ranks them against the
	// given vector. Results are ordered by similarity score (highest
	// first) and truncated per opts.
	FindSimilar(ctx context.Context, vector []float32, opts SimilarOptions) ([]*core.FragmentMatch, error)

	// RecordUsage atomically folds one retrieval into a fragment's usage
	// statistics: bumps the retrieval and query counters, folds relevance
	// into the running average, and bumps the top-result counter when the
	// fragment ranked in the top results.
	RecordUsage(ctx context.Context, id core.ID, relevance float32, topResult bool) error
}
