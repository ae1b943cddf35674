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


// Package segment splits extracted document text into ordered, bounded
// fragment drafts ready for embedding.
//
// Four strategies are available, selected by core.SegmentMethod:
//
//   - fixed: slides a window of TargetSize bytes, snapping each cut to a
//     word boundary when that costs at most 20% of the window.
//   - paragraph: accumulates blank-line-delimited paragraphs until the
//     next one would push the fragment past TargetSize.
//   - semantic: an alias for paragraph accumulation.
//   - sentence: the same accumulation over sentence boundaries.
//
// Consecutive fragments share an Overlap-sized tail so context survives
// the cut: each fragment after the first starts inside the previous one,
// at a unit boundary when a trailing unit fits the overlap budget, or at
// a word boundary keeping at least 75% of it.
//
// Every fragment's content is an exact slice of the input text and its
// Position carries the byte offsets of that slice, so callers can always
// map a fragment back to its source span.
//
// Usage:
//
//	frags, err := segment.Segment(text, segment.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	for _, f := range frags {
//	    fmt.Println(f.Position.Index, f.Metadata.ContentType, len(f.Content))
//	}
package segment
