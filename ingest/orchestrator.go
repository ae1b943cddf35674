package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/corpus/cache"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/embedding"
	"github.com/poiesic/corpus/segment"
	"github.com/poiesic/corpus/storage"
)

// Orchestrator owns the document lifecycle: ingestion, chunking,
// embedding and the maintenance operations around them. Documents move
// through three independent status tracks (processing, chunking,
// embedding); the processing track is derived from the other two.
type Orchestrator struct {
	documents storage.DocumentRepository
	fragments storage.FragmentRepository
	pipeline  *embedding.Pipeline
	cache     cache.Store
	config    Config
	queue     *jobQueue
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an ingestion orchestrator.
func NewOrchestrator(
	documents storage.DocumentRepository,
	fragments storage.FragmentRepository,
	pipeline *embedding.Pipeline,
	store cache.Store,
	config Config,
	opts ...Option,
) (*Orchestrator, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if fragments == nil {
		return nil, ErrFragmentRepositoryRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if store == nil {
		return nil, ErrCacheRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		documents: documents,
		fragments: fragments,
		pipeline:  pipeline,
		cache:     store,
		config:    config,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", "ingest")

	queue, err := newJobQueue(config.QueueCapacity, o.runJob)
	if err != nil {
		return nil, err
	}
	o.queue = queue

	return o, nil
}

// Release frees the queue's worker pool.
// The orchestrator should not be used after calling Release.
func (o *Orchestrator) Release() {
	o.queue.release()
}

// QueueDepth reports queued processing jobs, including one in flight.
func (o *Orchestrator) QueueDepth() int {
	return o.queue.depth()
}

// runJob executes one queued processing job. Errors during async
// processing are logged but never fail the operation that queued them.
func (o *Orchestrator) runJob(j job) {
	if _, err := o.Process(context.Background(), j.documentID, j.opts); err != nil {
		o.logger.Error("error processing document", "document", j.documentID, "err", err)
	}
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	Title    string
	Filename string

	// Priority orders queued work, 1 (lowest) to 10. Zero means the
	// default priority.
	Priority int

	// Segment overrides the orchestrator's default chunking options for
	// this document. A zero Method means use the defaults.
	Segment segment.Options
}

// Ingest stores text as a new pending document and queues it for
// processing. Content is deduplicated by hash: re-ingesting identical
// text returns ErrDuplicateDocument, even when the original document
// has been soft-deleted.
func (o *Orchestrator) Ingest(ctx context.Context, text string, opts IngestOptions) (*core.Document, error) {
	priority := opts.Priority
	if priority == 0 {
		priority = core.DefaultPriority
	}

	doc := &core.Document{
		Title:            opts.Title,
		Filename:         opts.Filename,
		Text:             text,
		Hash:             core.ContentHash(text),
		SizeBytes:        int64(len(text)),
		WordCount:        core.CountWords(text),
		CharCount:        core.CountChars(text),
		ProcessingStatus: core.StatusPending,
		ChunkingStatus:   core.StatusPending,
		EmbeddingStatus:  core.StatusPending,
		Priority:         priority,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	if existing, err := o.documents.FindDocumentByHash(ctx, doc.Hash); err == nil {
		return nil, fmt.Errorf("%w: document %d", ErrDuplicateDocument, existing.Id)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("checking content hash: %w", err)
	}

	added, err := o.documents.AddDocuments(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}
	doc = added[0]

	if err := o.queue.enqueue(job{documentID: doc.Id, opts: ProcessOptions{Segment: opts.Segment}}); err != nil {
		// The document is stored and stays pending; a Reprocess call or
		// the cleanup pass can pick it up later.
		o.logger.Warn("document stored but not queued", "document", doc.Id, "err", err)
		return doc, fmt.Errorf("document %d stored but not queued: %w", doc.Id, err)
	}

	o.logger.Info("document ingested", "document", doc.Id, "bytes", doc.SizeBytes, "queueDepth", o.queue.depth())
	return doc, nil
}

// ProcessOptions controls one processing run.
type ProcessOptions struct {
	// Segment overrides the orchestrator's default chunking options.
	// A zero Method means use the defaults.
	Segment segment.Options

	// Rechunk replaces existing fragments even when chunking already
	// completed.
	Rechunk bool

	// Overwrite re-embeds fragments whose embedding already completed.
	Overwrite bool
}

// Report summarizes one processing run.
type Report struct {
	DocumentId core.ID

	// Chunked is how many fragments this run persisted; zero when the
	// chunking stage was skipped.
	Chunked int

	// Rejected is how many segmenter drafts fell outside the fragment
	// size bounds and were excluded from persistence.
	Rejected int

	// Embedding summarizes the embedding stage, nil when it never ran.
	Embedding *embedding.Summary

	// Status is the document's processing status after settling.
	Status core.Status
}

// Process runs the pipeline for one document: segment text into
// fragments, embed them, and settle the document's status tracks.
// Completed stages are skipped unless the options force them, so
// re-running Process on a completed document is a no-op.
func (o *Orchestrator) Process(ctx context.Context, documentID core.ID, opts ProcessOptions) (*Report, error) {
	doc, err := o.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading document %d: %w", documentID, err)
	}
	if doc.Deleted() {
		return nil, fmt.Errorf("document %d: %w", documentID, ErrDocumentDeleted)
	}

	doc.ProcessingStatus = core.StatusProcessing
	if _, err := o.documents.UpdateDocuments(ctx, doc); err != nil {
		return nil, fmt.Errorf("marking document %d processing: %w", documentID, err)
	}

	report := &Report{DocumentId: documentID}

	if opts.Rechunk || doc.ChunkingStatus != core.StatusCompleted {
		chunked, rejected, err := o.chunk(ctx, doc, o.segmentOptions(opts.Segment))
		report.Chunked, report.Rejected = chunked, rejected
		if err != nil {
			// Segmentation failure aborts embedding; there is nothing
			// to embed.
			if settled, settleErr := o.settle(ctx, documentID); settleErr == nil {
				report.Status = settled.ProcessingStatus
			}
			o.invalidate(ctx)
			return report, err
		}
	}

	summary, err := o.pipeline.ProcessDocument(ctx, documentID, embedding.ProcessOptions{Overwrite: opts.Overwrite})
	if err != nil {
		if settled, settleErr := o.settle(ctx, documentID); settleErr == nil {
			report.Status = settled.ProcessingStatus
		}
		o.invalidate(ctx)
		return report, fmt.Errorf("embedding document %d: %w", documentID, err)
	}
	report.Embedding = summary

	settled, err := o.settle(ctx, documentID)
	if err != nil {
		return report, err
	}
	report.Status = settled.ProcessingStatus
	o.invalidate(ctx)

	o.logger.Info("document processed",
		"document", documentID,
		"status", report.Status.String(),
		"chunked", report.Chunked,
		"embedded", summary.Succeeded,
		"failed", summary.Failed)
	return report, nil
}

// Rechunk replaces a document's fragments using new segmentation
// options and re-runs the full pipeline over the result.
func (o *Orchestrator) Rechunk(ctx context.Context, documentID core.ID, opts segment.Options) (*Report, error) {
	return o.Process(ctx, documentID, ProcessOptions{Segment: opts, Rechunk: true, Overwrite: true})
}

// ReprocessOptions selects which stages Reprocess re-runs.
type ReprocessOptions struct {
	// Rechunk re-segments the document. The replacement fragments are
	// always embedded, so Rechunk implies Reembed.
	Rechunk bool

	// Reembed re-runs the embedding stage without touching fragments.
	Reembed bool

	// Overwrite widens Reembed to fragments that already completed.
	Overwrite bool

	// Segment overrides the chunking options when Rechunk is set.
	Segment segment.Options
}

// Reprocess re-runs pipeline stages for a document. With no toggles set
// it behaves like Process: completed stages are skipped and missing
// work is filled in.
func (o *Orchestrator) Reprocess(ctx context.Context, documentID core.ID, opts ReprocessOptions) (*Report, error) {
	switch {
	case opts.Rechunk:
		return o.Process(ctx, documentID, ProcessOptions{Segment: opts.Segment, Rechunk: true, Overwrite: true})
	case opts.Reembed:
		summary, err := o.pipeline.ProcessDocument(ctx, documentID, embedding.ProcessOptions{Overwrite: opts.Overwrite})
		if err != nil {
			return nil, fmt.Errorf("embedding document %d: %w", documentID, err)
		}
		settled, err := o.settle(ctx, documentID)
		if err != nil {
			return nil, err
		}
		o.invalidate(ctx)
		return &Report{DocumentId: documentID, Embedding: summary, Status: settled.ProcessingStatus}, nil
	default:
		return o.Process(ctx, documentID, ProcessOptions{Segment: opts.Segment, Overwrite: opts.Overwrite})
	}
}

// ReprocessFailedEmbeddings re-embeds exactly the fragments whose
// embedding failed, leaving completed ones untouched.
func (o *Orchestrator) ReprocessFailedEmbeddings(ctx context.Context, documentID core.ID) (*embedding.Summary, error) {
	summary, err := o.pipeline.ReprocessFailed(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := o.settle(ctx, documentID); err != nil {
		return summary, err
	}
	o.invalidate(ctx)
	return summary, nil
}

// DeleteDocument soft-deletes a document and its fragments, so search
// stops returning them immediately while the records stay resolvable
// until the cleanup reaper physically removes them.
func (o *Orchestrator) DeleteDocument(ctx context.Context, documentID core.ID) error {
	if err := o.documents.SoftDeleteDocuments(ctx, documentID); err != nil {
		return err
	}

	frags, err := o.fragments.ListFragmentsByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("listing fragments of document %d: %w", documentID, err)
	}
	if len(frags) > 0 {
		now := time.Now().UTC()
		for _, f := range frags {
			deletedAt := now
			f.DeletedAt = &deletedAt
		}
		if _, err := o.fragments.UpdateFragments(ctx, frags...); err != nil {
			return fmt.Errorf("deleting fragments of document %d: %w", documentID, err)
		}
	}

	o.invalidate(ctx)
	o.logger.Info("document deleted", "document", documentID, "fragments", len(frags))
	return nil
}

// chunk replaces a document's fragments with freshly segmented ones.
// Drafts outside the fragment size bounds are excluded, never
// truncated. Returns how many fragments were persisted and rejected.
func (o *Orchestrator) chunk(ctx context.Context, doc *core.Document, opts segment.Options) (int, int, error) {
	doc.ChunkingStatus = core.StatusProcessing
	if _, err := o.documents.UpdateDocuments(ctx, doc); err != nil {
		return 0, 0, fmt.Errorf("marking document %d chunking: %w", doc.Id, err)
	}

	// Replace fragments from any earlier run so positions and adjacency
	// stay consistent.
	removed, err := o.fragments.DeleteFragmentsByDocument(ctx, doc.Id)
	if err != nil {
		return 0, 0, o.failChunking(ctx, doc, core.ErrCodeStorage, err)
	}
	if removed > 0 {
		o.logger.Debug("replaced existing fragments", "document", doc.Id, "removed", removed)
	}

	drafts, err := segment.Segment(doc.Text, opts)
	if err != nil {
		return 0, 0, o.failChunking(ctx, doc, core.ErrCodeSegmentation, err)
	}

	kept := make([]*core.Fragment, 0, len(drafts))
	rejected := 0
	for i := range drafts {
		if err := core.ValidateFragmentContent(drafts[i].Content); err != nil {
			rejected++
			o.logger.Debug("fragment draft rejected", "document", doc.Id, "index", drafts[i].Position.Index, "err", err)
			continue
		}
		drafts[i].DocumentId = doc.Id
		kept = append(kept, &drafts[i])
	}
	if len(kept) == 0 {
		err := fmt.Errorf("no fragments within size bounds, %d drafts rejected", rejected)
		return 0, rejected, o.failChunking(ctx, doc, core.ErrCodeValidation, err)
	}

	added, err := o.fragments.AddFragments(ctx, kept...)
	if err != nil {
		return 0, rejected, o.failChunking(ctx, doc, core.ErrCodeStorage, err)
	}

	doc.ChunkingStatus = core.StatusCompleted
	doc.EmbeddingStatus = core.StatusPending
	doc.FragmentCount = len(added)
	doc.Error = nil
	if _, err := o.documents.UpdateDocuments(ctx, doc); err != nil {
		return len(added), rejected, fmt.Errorf("recording chunking result for document %d: %w", doc.Id, err)
	}

	o.logger.Info("document chunked",
		"document", doc.Id,
		"fragments", len(added),
		"rejected", rejected,
		"method", opts.Method.String())
	return len(added), rejected, nil
}

// failChunking records a chunking failure on the document and returns
// the wrapped cause.
func (o *Orchestrator) failChunking(ctx context.Context, doc *core.Document, code string, cause error) error {
	doc.ChunkingStatus = core.StatusFailed
	doc.ProcessingStatus = core.StatusFailed
	doc.Error = doc.Error.Bump(code, cause.Error())
	if _, err := o.documents.UpdateDocuments(ctx, doc); err != nil {
		o.logger.Error("error recording chunking failure", "document", doc.Id, "err", err)
	}
	return fmt.Errorf("chunking document %d: %w", doc.Id, cause)
}

// settle reloads the document and derives its overall processing
// status from the chunking and embedding tracks.
func (o *Orchestrator) settle(ctx context.Context, documentID core.ID) (*core.Document, error) {
	doc, err := o.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading document %d: %w", documentID, err)
	}
	doc.ProcessingStatus = deriveProcessingStatus(doc.ChunkingStatus, doc.EmbeddingStatus)
	if _, err := o.documents.UpdateDocuments(ctx, doc); err != nil {
		return nil, fmt.Errorf("settling document %d: %w", documentID, err)
	}
	return doc, nil
}

// deriveProcessingStatus folds the chunking and embedding tracks into
// the document's overall status. Pending work on either track keeps the
// document pending rather than calling it done.
func deriveProcessingStatus(chunking, embed core.Status) core.Status {
	switch {
	case chunking == core.StatusFailed || embed == core.StatusFailed:
		return core.StatusFailed
	case embed == core.StatusPartial:
		return core.StatusPartial
	case chunking == core.StatusCompleted && embed == core.StatusCompleted:
		return core.StatusCompleted
	case chunking == core.StatusProcessing || embed == core.StatusProcessing:
		return core.StatusProcessing
	default:
		return core.StatusPending
	}
}

// segmentOptions resolves per-call overrides against the configured
// defaults.
func (o *Orchestrator) segmentOptions(opts segment.Options) segment.Options {
	if opts.Method == 0 {
		return o.config.Segment
	}
	return opts
}

// invalidate drops cached search result sets after a mutation: every
// registered key, then a prefix sweep for entries whose registration
// was lost, then the registry itself. All steps are fail-soft.
func (o *Orchestrator) invalidate(ctx context.Context) {
	keys, err := o.cache.SMembers(ctx, cache.KeySearchIndex)
	if err != nil {
		o.logger.Debug("search key listing failed", "err", err)
	}
	if len(keys) > 0 {
		if err := o.cache.Delete(ctx, keys...); err != nil {
			o.logger.Debug("search cache delete failed", "err", err)
		}
	}
	if _, err := o.cache.DeletePrefix(ctx, cache.SearchKeyPrefix()); err != nil {
		o.logger.Debug("search cache sweep failed", "err", err)
	}
	if err := o.cache.Delete(ctx, cache.KeySearchIndex); err != nil {
		o.logger.Debug("search key index delete failed", "err", err)
	}
}
