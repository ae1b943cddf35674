// Package ingest orchestrates the document lifecycle from raw text to
// searchable fragments.
//
// The Orchestrator type owns the Document/Fragment state machine:
//   - Ingesting text as documents, deduplicated by content hash
//   - Segmenting document text into persisted, linked fragments
//   - Driving the embedding pipeline and settling per-track statuses
//   - Maintenance: cleanup, optimization, export and status reporting
//
// Processing jobs flow through a bounded FIFO queue drained by a single
// worker, so no two documents embed concurrently. Stage failures settle
// into per-track statuses with error records; partial completion is a
// terminal state of its own, not an error.
package ingest
