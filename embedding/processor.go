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

package embedding

import (
	"context"
	"fmt"

	"github.com/poiesic/corpus/core"
)

// ProcessOptions controls fragment selection for a document embedding pass.
type ProcessOptions struct {
	// Overwrite re-embeds fragments whose embedding already completed.
	// When false, completed fragments are skipped and a fully embedded
	// document is a no-op.
	Overwrite bool
}

// Summary reports the outcome of a document embedding pass.
type Summary struct {
	// Total is the number of fragments selected for this pass.
	Total int

	// Succeeded and Failed partition the selected fragments by outcome.
	Succeeded int
	Failed    int

	// Cached counts successes served from the cache without a provider call.
	Cached int

	// Status is the document's embedding status after the pass, derived
	// from all of its fragments, not just the selected ones.
	Status core.Status
}

// ProcessDocument embeds a document's fragments and settles the
// document's embedding status. Fragments already embedded are skipped
// unless opts.Overwrite is set, so re-running a completed document is
// idempotent.
func (p *Pipeline) ProcessDocument(ctx context.Context, documentID core.ID, opts ProcessOptions) (*Summary, error) {
	doc, frags, err := p.load(ctx, documentID)
	if err != nil {
		return nil, err
	}

	selected := make([]*core.Fragment, 0, len(frags))
	for _, f := range frags {
		if !opts.Overwrite && f.EmbeddingStatus == core.StatusCompleted {
			continue
		}
		selected = append(selected, f)
	}
	return p.embedFragments(ctx, doc, frags, selected)
}

// ReprocessFailed re-embeds exactly the fragments whose embedding
// failed, leaving completed and pending ones untouched.
func (p *Pipeline) ReprocessFailed(ctx context.Context, documentID core.ID) (*Summary, error) {
	doc, frags, err := p.load(ctx, documentID)
	if err != nil {
		return nil, err
	}

	selected := make([]*core.Fragment, 0, len(frags))
	for _, f := range frags {
		if f.EmbeddingStatus == core.StatusFailed {
			selected = append(selected, f)
		}
	}
	return p.embedFragments(ctx, doc, frags, selected)
}

func (p *Pipeline) load(ctx context.Context, documentID core.ID) (*core.Document, []*core.Fragment, error) {
	doc, err := p.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading document %d: %w", documentID, err)
	}
	frags, err := p.fragments.ListFragmentsByDocument(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading fragments for document %d: %w", documentID, err)
	}
	return doc, frags, nil
}

// embedFragments runs one embedding pass over selected, persists the
// per-fragment outcomes, and settles the document status from all frags.
func (p *Pipeline) embedFragments(ctx context.Context, doc *core.Document, frags, selected []*core.Fragment) (*Summary, error) {
	summary := &Summary{Total: len(selected)}

	if len(frags) == 0 {
		summary.Status = doc.EmbeddingStatus
		return summary, nil
	}
	if len(selected) == 0 {
		return p.settle(ctx, doc, frags, summary)
	}

	doc.EmbeddingStatus = core.StatusProcessing
	if _, err := p.documents.UpdateDocuments(ctx, doc); err != nil {
		return nil, fmt.Errorf("marking document %d embedding: %w", doc.Id, err)
	}

	ids := make([]core.ID, len(selected))
	texts := make([]string, len(selected))
	for i, f := range selected {
		ids[i] = f.Id
		texts[i] = f.Content
	}
	if err := p.fragments.UpdateEmbeddingStatuses(ctx, core.StatusProcessing, ids...); err != nil {
		return nil, fmt.Errorf("marking fragments embedding: %w", err)
	}

	results := p.EmbedAll(ctx, texts)

	for i, f := range selected {
		res := results[i]
		if res.Err != nil {
			f.EmbeddingStatus = core.StatusFailed
			f.Error = f.Error.Bump(res.Code, res.Err.Error())
			summary.Failed++
			continue
		}
		f.Vector = res.Vector
		f.Model = p.config.Model
		f.Confidence = 1.0
		f.EmbeddingStatus = core.StatusCompleted
		f.Error = nil
		summary.Succeeded++
		if res.Cached {
			summary.Cached++
		}
	}
	if _, err := p.fragments.UpdateFragments(ctx, selected...); err != nil {
		return nil, fmt.Errorf("persisting fragment embeddings: %w", err)
	}

	return p.settle(ctx, doc, frags, summary)
}

// settle derives the document's embedding status from all its fragments
// and persists it. A document with any new failures carries an
// ErrorRecord; a fully embedded one has its record cleared.
func (p *Pipeline) settle(ctx context.Context, doc *core.Document, frags []*core.Fragment, summary *Summary) (*Summary, error) {
	summary.Status = deriveEmbeddingStatus(frags)

	doc.EmbeddingStatus = summary.Status
	switch {
	case summary.Status == core.StatusCompleted:
		doc.Error = nil
	case summary.Failed > 0:
		doc.Error = doc.Error.Bump(core.ErrCodeProvider,
			fmt.Sprintf("%d of %d fragments failed embedding", summary.Failed, summary.Total))
	}
	if _, err := p.documents.UpdateDocuments(ctx, doc); err != nil {
		return nil, fmt.Errorf("settling document %d: %w", doc.Id, err)
	}

	p.logger.Info("document embedding settled",
		"document", doc.Id,
		"status", summary.Status.String(),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"cached", summary.Cached)
	return summary, nil
}

// deriveEmbeddingStatus folds fragment embedding statuses into a
// document-level one. Completed fragments alongside failed ones yield
// partially_completed; any fragment still awaiting embedding keeps the
// document pending.
func deriveEmbeddingStatus(frags []*core.Fragment) core.Status {
	var completed, failed int
	for _, f := range frags {
		switch f.EmbeddingStatus {
		case core.StatusCompleted:
			completed++
		case core.StatusFailed:
			failed++
		}
	}
	total := len(frags)
	switch {
	case completed == total:
		return core.StatusCompleted
	case failed == total:
		return core.StatusFailed
	case completed+failed == total:
		return core.StatusPartial
	default:
		return core.StatusPending
	}
}
