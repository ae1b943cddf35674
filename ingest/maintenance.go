package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/poiesic/corpus/cache"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/vectormath"
)

// recentQueriesShown caps the recent-query sample in KnowledgeStatus.
const recentQueriesShown = 10

// CleanupReport summarizes one cleanup pass.
type CleanupReport struct {
	// OrphanFragments is how many fragments were physically removed
	// because their parent document is missing or soft-deleted.
	OrphanFragments int

	// PurgedDocuments is how many soft-deleted documents were physically
	// removed once no fragments referenced them.
	PurgedDocuments int

	// RequeuedDocuments is how many stuck-failed documents were reset to
	// pending and queued for another processing run.
	RequeuedDocuments int
}

// Cleanup reaps orphan fragments, purges fragmentless soft-deleted
// documents and gives documents stuck in a failed state one bounded
// retry.
func (o *Orchestrator) Cleanup(ctx context.Context) (*CleanupReport, error) {
	report := &CleanupReport{}

	orphans, err := o.reapOrphans(ctx)
	if err != nil {
		return report, fmt.Errorf("reaping orphan fragments: %w", err)
	}
	report.OrphanFragments = orphans

	purged, err := o.purgeDeletedDocuments(ctx)
	if err != nil {
		return report, fmt.Errorf("purging deleted documents: %w", err)
	}
	report.PurgedDocuments = purged

	requeued, err := o.requeueStuck(ctx)
	if err != nil {
		return report, fmt.Errorf("requeueing stuck documents: %w", err)
	}
	report.RequeuedDocuments = requeued

	if orphans > 0 || purged > 0 {
		o.invalidate(ctx)
	}
	o.logger.Info("cleanup finished", "orphans", orphans, "purged", purged, "requeued", requeued)
	return report, nil
}

// reapOrphans physically removes fragments whose parent document no
// longer exists or is soft-deleted.
func (o *Orchestrator) reapOrphans(ctx context.Context) (int, error) {
	frags, err := o.fragments.ListFragments(ctx, storage.FragmentFilter{IncludeDeleted: true})
	if err != nil {
		return 0, err
	}
	if len(frags) == 0 {
		return 0, nil
	}

	seen := make(map[core.ID]bool)
	parentIDs := make([]core.ID, 0)
	for _, f := range frags {
		if !seen[f.DocumentId] {
			seen[f.DocumentId] = true
			parentIDs = append(parentIDs, f.DocumentId)
		}
	}
	parents, err := o.documents.GetDocuments(ctx, parentIDs...)
	if err != nil {
		return 0, err
	}
	live := make(map[core.ID]bool, len(parents))
	for _, doc := range parents {
		if !doc.Deleted() {
			live[doc.Id] = true
		}
	}

	orphanIDs := make([]core.ID, 0)
	for _, f := range frags {
		if !live[f.DocumentId] {
			orphanIDs = append(orphanIDs, f.Id)
		}
	}
	if len(orphanIDs) == 0 {
		return 0, nil
	}
	if err := o.fragments.DeleteFragments(ctx, orphanIDs...); err != nil {
		return 0, err
	}
	return len(orphanIDs), nil
}

// purgeDeletedDocuments physically removes soft-deleted documents once
// no fragments reference them. Runs after orphan reaping, so a document
// deleted together with its fragments is purged in the same pass.
func (o *Orchestrator) purgeDeletedDocuments(ctx context.Context) (int, error) {
	docs, err := o.documents.ListDocuments(ctx, storage.DocumentFilter{IncludeDeleted: true})
	if err != nil {
		return 0, err
	}

	purgeIDs := make([]core.ID, 0)
	for _, doc := range docs {
		if !doc.Deleted() {
			continue
		}
		count, err := o.fragments.CountFragmentsByDocument(ctx, doc.Id)
		if err != nil {
			return 0, err
		}
		if count == 0 {
			purgeIDs = append(purgeIDs, doc.Id)
		}
	}
	if len(purgeIDs) == 0 {
		return 0, nil
	}
	if err := o.documents.DeleteDocuments(ctx, purgeIDs...); err != nil {
		return 0, err
	}
	return len(purgeIDs), nil
}

// requeueStuck resets documents that have sat failed for longer than
// the configured window back to pending and queues them for another
// run. The reset happens at most once per document: the error record's
// retry count marks documents that already got their retry.
func (o *Orchestrator) requeueStuck(ctx context.Context) (int, error) {
	docs, err := o.documents.ListDocuments(ctx, storage.DocumentFilter{ProcessingStatus: core.StatusFailed})
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-o.config.StuckAfter)
	requeued := 0
	for _, doc := range docs {
		if doc.UpdatedAt.After(cutoff) {
			continue
		}
		if doc.Error == nil || doc.Error.RetryCount > 0 {
			continue
		}

		if doc.ChunkingStatus == core.StatusFailed {
			doc.ChunkingStatus = core.StatusPending
		}
		if doc.EmbeddingStatus == core.StatusFailed {
			doc.EmbeddingStatus = core.StatusPending
		}
		doc.ProcessingStatus = core.StatusPending
		doc.Error = doc.Error.Bump(doc.Error.Code, "requeued after stuck failure")
		if _, err := o.documents.UpdateDocuments(ctx, doc); err != nil {
			return requeued, err
		}

		if err := o.queue.enqueue(job{documentID: doc.Id}); err != nil {
			o.logger.Warn("stuck document reset but not queued", "document", doc.Id, "err", err)
			continue
		}
		o.logger.Info("stuck document requeued", "document", doc.Id)
		requeued++
	}
	return requeued, nil
}

// OptimizeReport summarizes one optimization pass.
type OptimizeReport struct {
	// RechunkQueued is how many documents were queued for re-chunking
	// because their fragment count is implausibly low for their size.
	RechunkQueued int

	// ReembedQueued is how many fragments were reset to pending because
	// their embedding confidence fell below the floor.
	ReembedQueued int

	// DuplicateClusters groups fragments whose embeddings nearly
	// coincide. Reported, not acted on.
	DuplicateClusters [][]core.ID
}

// Optimize queues re-chunking for documents with implausibly few
// fragments, queues re-embedding for fragments below the confidence
// floor, and reports near-duplicate fragment clusters.
func (o *Orchestrator) Optimize(ctx context.Context) (*OptimizeReport, error) {
	report := &OptimizeReport{}

	docs, err := o.documents.ListDocuments(ctx, storage.DocumentFilter{ChunkingStatus: core.StatusCompleted})
	if err != nil {
		return nil, fmt.Errorf("listing chunked documents: %w", err)
	}
	for _, doc := range docs {
		if !suspiciousChunking(doc, o.config.MaxWordsPerFragment) {
			continue
		}
		j := job{documentID: doc.Id, opts: ProcessOptions{Rechunk: true, Overwrite: true}}
		if err := o.queue.enqueue(j); err != nil {
			o.logger.Warn("rechunk not queued", "document", doc.Id, "err", err)
			continue
		}
		o.logger.Info("document queued for rechunking",
			"document", doc.Id,
			"words", doc.WordCount,
			"fragments", doc.FragmentCount)
		report.RechunkQueued++
	}

	frags, err := o.fragments.ListFragments(ctx, storage.FragmentFilter{EmbeddingStatus: core.StatusCompleted})
	if err != nil {
		return nil, fmt.Errorf("listing embedded fragments: %w", err)
	}

	lowByDoc := make(map[core.ID][]core.ID)
	for _, f := range frags {
		if f.Confidence < o.config.ConfidenceFloor {
			lowByDoc[f.DocumentId] = append(lowByDoc[f.DocumentId], f.Id)
		}
	}
	for docID, ids := range lowByDoc {
		if err := o.fragments.UpdateEmbeddingStatuses(ctx, core.StatusPending, ids...); err != nil {
			return report, fmt.Errorf("resetting low-confidence fragments: %w", err)
		}
		if err := o.queue.enqueue(job{documentID: docID}); err != nil {
			o.logger.Warn("re-embedding not queued", "document", docID, "err", err)
			continue
		}
		report.ReembedQueued += len(ids)
	}

	clusters, err := o.duplicateClusters(frags)
	if err != nil {
		return report, fmt.Errorf("clustering fragments: %w", err)
	}
	report.DuplicateClusters = clusters

	o.logger.Info("optimization finished",
		"rechunkQueued", report.RechunkQueued,
		"reembedQueued", report.ReembedQueued,
		"duplicateClusters", len(clusters))
	return report, nil
}

// suspiciousChunking reports whether a document's fragment count is
// implausibly low for its word count.
func suspiciousChunking(doc *core.Document, maxWordsPerFragment int) bool {
	if doc.WordCount == 0 {
		return false
	}
	if doc.FragmentCount == 0 {
		return true
	}
	return doc.WordCount/doc.FragmentCount > maxWordsPerFragment
}

// duplicateClusters greedily clusters fragment embeddings and returns
// the groups with more than one member. Fragments whose vectors do not
// match the pipeline's dimensionality are skipped.
func (o *Orchestrator) duplicateClusters(frags []*core.Fragment) ([][]core.ID, error) {
	dims := o.pipeline.Dimensions()
	vectors := make([][]float32, 0, len(frags))
	ids := make([]core.ID, 0, len(frags))
	for _, f := range frags {
		if len(f.Vector) != dims {
			continue
		}
		vectors = append(vectors, f.Vector)
		ids = append(ids, f.Id)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	clusters, err := vectormath.ClusterBySimilarity(vectors, o.config.DuplicateThreshold, vectormath.MetricCosine)
	if err != nil {
		return nil, err
	}

	var groups [][]core.ID
	for _, cluster := range clusters {
		if len(cluster.Members) < 2 {
			continue
		}
		group := make([]core.ID, len(cluster.Members))
		for i, idx := range cluster.Members {
			group[i] = ids[idx]
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// exportEnvelope is the JSON shape written by Export.
type exportEnvelope struct {
	Document  *core.Document   `json:"document"`
	Fragments []*core.Fragment `json:"fragments"`
}

// Export writes a document and its fragments as indented JSON.
func (o *Orchestrator) Export(ctx context.Context, documentID core.ID, w io.Writer) error {
	doc, err := o.documents.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading document %d: %w", documentID, err)
	}
	frags, err := o.fragments.ListFragmentsByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading fragments for document %d: %w", documentID, err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportEnvelope{Document: doc, Fragments: frags})
}

// KnowledgeStatus is a point-in-time view of the corpus.
type KnowledgeStatus struct {
	Documents int
	Fragments int

	// Per-track document status counts.
	Processing map[core.Status]int
	Chunking   map[core.Status]int
	Embedding  map[core.Status]int

	// QueueDepth counts queued processing jobs, including one in flight.
	QueueDepth int

	// CacheHealthy reports whether the cache store answered a ping.
	CacheHealthy bool

	// RecentQueries samples the latest normalized search queries,
	// newest first.
	RecentQueries []string
}

// KnowledgeStatus gathers document and fragment status counts, queue
// depth, cache health and recent queries. A compact summary is also
// published to the cache status hash for external dashboards.
func (o *Orchestrator) KnowledgeStatus(ctx context.Context) (*KnowledgeStatus, error) {
	docs, err := o.documents.ListDocuments(ctx, storage.DocumentFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	status := &KnowledgeStatus{
		Documents:  len(docs),
		Processing: make(map[core.Status]int),
		Chunking:   make(map[core.Status]int),
		Embedding:  make(map[core.Status]int),
	}
	for _, doc := range docs {
		status.Processing[doc.ProcessingStatus]++
		status.Chunking[doc.ChunkingStatus]++
		status.Embedding[doc.EmbeddingStatus]++
		status.Fragments += doc.FragmentCount
	}
	status.QueueDepth = o.queue.depth()
	status.CacheHealthy = o.cache.Ping(ctx) == nil

	recent, err := o.cache.LRange(ctx, cache.KeyRecentQueries, 0, recentQueriesShown-1)
	if err != nil {
		o.logger.Debug("recent query listing failed", "err", err)
	}
	status.RecentQueries = recent

	for field, value := range map[string]int{
		"documents":   status.Documents,
		"fragments":   status.Fragments,
		"queue_depth": status.QueueDepth,
	} {
		if err := o.cache.HSet(ctx, cache.KeyStatus, field, []byte(strconv.Itoa(value))); err != nil {
			o.logger.Debug("status publish failed", "field", field, "err", err)
		}
	}

	return status, nil
}

// DocumentFragments returns one page of a document's fragments in
// position order, along with the total fragment count. Pages are
// 1-based; a page past the end returns an empty slice.
func (o *Orchestrator) DocumentFragments(ctx context.Context, documentID core.ID, page int) ([]*core.Fragment, int, error) {
	if _, err := o.documents.GetDocument(ctx, documentID); err != nil {
		return nil, 0, fmt.Errorf("loading document %d: %w", documentID, err)
	}

	frags, err := o.fragments.ListFragmentsByDocument(ctx, documentID)
	if err != nil {
		return nil, 0, fmt.Errorf("loading fragments for document %d: %w", documentID, err)
	}

	if page < 1 {
		page = 1
	}
	total := len(frags)
	start := (page - 1) * o.config.PageSize
	if start >= total {
		return []*core.Fragment{}, total, nil
	}
	end := min(start+o.config.PageSize, total)
	return frags[start:end], total, nil
}
