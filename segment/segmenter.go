package segment

import (
	"fmt"
	"strings"

	"github.com/poiesic/corpus/core"
)

// Defaults and hard bounds for Options sizes, in bytes of UTF-8 text.
// For ASCII text a byte count equals the character count.
const (
	DefaultTargetSize = 1000
	DefaultOverlap    = 200
	MinTargetSize     = 100
	MaxTargetSize     = 2000
)

// Options control how document text is split into fragments.
type Options struct {
	// Method selects the segmentation strategy.
	Method core.SegmentMethod

	// TargetSize is the size each fragment aims for, in bytes. A single
	// unit larger than TargetSize still becomes one fragment; units are
	// never split.
	TargetSize int

	// Overlap is how many trailing bytes of each fragment are reused to
	// seed the next one. Zero disables overlap.
	Overlap int
}

// DefaultOptions returns paragraph segmentation with the default sizes.
func DefaultOptions() Options {
	return Options{
		Method:     core.MethodParagraph,
		TargetSize: DefaultTargetSize,
		Overlap:    DefaultOverlap,
	}
}

// Validate checks that the options describe a usable configuration.
func (o Options) Validate() error {
	if !o.Method.Valid() {
		return fmt.Errorf("segment options: %w: value %d", core.ErrInvalidMethod, o.Method)
	}
	if o.TargetSize < MinTargetSize || o.TargetSize > MaxTargetSize {
		return fmt.Errorf("segment options: target size %d outside [%d, %d]", o.TargetSize, MinTargetSize, MaxTargetSize)
	}
	if o.Overlap < 0 || o.Overlap >= o.TargetSize {
		return fmt.Errorf("segment options: overlap %d outside [0, %d)", o.Overlap, o.TargetSize)
	}
	return nil
}

// Segment splits text into ordered fragment drafts.
//
// Drafts carry position offsets, word/char counts, the detected content
// type and the method and overlap sizes that produced them. Statuses are
// set to processing completed / embedding pending; persistence-level
// validation (length bounds) is the caller's concern.
//
// Empty or whitespace-only text is an error. Text without recognizable
// unit boundaries degrades to a single fragment.
func Segment(text string, opts Options) ([]core.Fragment, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, core.ErrEmptyText
	}

	var spans []span
	switch opts.Method {
	case core.MethodFixed:
		spans = fixedSpans(text, opts.TargetSize, opts.Overlap)
	case core.MethodSentence:
		spans = unitSpans(text, splitSentences(text), opts.TargetSize, opts.Overlap)
	default:
		// semantic aliases paragraph accumulation
		spans = unitSpans(text, splitParagraphs(text), opts.TargetSize, opts.Overlap)
	}

	frags := make([]core.Fragment, 0, len(spans))
	for i, sp := range spans {
		content := text[sp.start:sp.end]

		overlapBefore := 0
		if i > 0 && spans[i-1].end > sp.start {
			overlapBefore = spans[i-1].end - sp.start
		}
		overlapAfter := 0
		if i+1 < len(spans) && sp.end > spans[i+1].start {
			overlapAfter = sp.end - spans[i+1].start
		}

		frags = append(frags, core.Fragment{
			Position: core.Position{
				Index:      i,
				StartIndex: sp.start,
				EndIndex:   sp.end,
			},
			Content: content,
			Metadata: core.FragmentMetadata{
				WordCount:     core.CountWords(content),
				CharCount:     core.CountChars(content),
				ContentType:   DetectContentType(content),
				Method:        opts.Method,
				OverlapBefore: overlapBefore,
				OverlapAfter:  overlapAfter,
			},
			ProcessingStatus: core.StatusCompleted,
			EmbeddingStatus:  core.StatusPending,
		})
	}
	return frags, nil
}
