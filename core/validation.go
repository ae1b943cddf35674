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


package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Text must not be empty or whitespace-only
//   - Priority must be within [MinPriority, MaxPriority]
//   - All three status tracks must hold valid values
//   - InsertedAt must not be in the future
//
// NOT validated (populated by processing):
//   - Hash (derived from Text on ingest)
//   - FragmentCount (maintained by chunking)
//   - ID (0 is valid before the database sequence assigns one)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyText)
	}

	if err := ValidatePriority(doc.Priority); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	for _, s := range []Status{doc.ProcessingStatus, doc.ChunkingStatus, doc.EmbeddingStatus} {
		if !s.Valid() {
			return fmt.Errorf("%w: %w: value %d", ErrInvalidDocument, ErrInvalidStatus, s)
		}
	}

	if !IsValidTimestamp(doc.InsertedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateFragment validates a Fragment according to domain rules.
//
// Validation rules:
//   - Content must not be empty and its rune count must fall within
//     [MinFragmentChars, MaxFragmentChars]
//   - Position offsets must describe a non-empty forward span
//   - Both status tracks must hold valid values
//   - A completed embedding status requires a non-empty vector
//
// NOT validated (populated by processing):
//   - Vector contents beyond presence (dimension checks belong to the
//     embedding pipeline, which knows the configured model)
//   - ID and DocumentId (0 is valid before sequences assign them)
func ValidateFragment(frag *Fragment) error {
	if frag == nil {
		return fmt.Errorf("%w: fragment is nil", ErrInvalidFragment)
	}

	if frag.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, ErrEmptyContent)
	}

	if err := ValidateFragmentContent(frag.Content); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, err)
	}

	if frag.Position.Index < 0 || frag.Position.StartIndex < 0 || frag.Position.EndIndex <= frag.Position.StartIndex {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, ErrInvalidPosition)
	}

	for _, s := range []Status{frag.ProcessingStatus, frag.EmbeddingStatus} {
		if !s.Valid() {
			return fmt.Errorf("%w: %w: value %d", ErrInvalidFragment, ErrInvalidStatus, s)
		}
	}

	if frag.EmbeddingStatus == StatusCompleted && len(frag.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, ErrMissingVector)
	}

	return nil
}

// ValidateFragmentContent checks that content length falls within the
// fragment bounds. Out-of-bounds drafts are skipped by chunking, never
// truncated to fit.
func ValidateFragmentContent(content string) error {
	n := CountChars(content)
	if n < MinFragmentChars {
		return fmt.Errorf("%w: %d chars, minimum %d", ErrContentTooShort, n, MinFragmentChars)
	}
	if n > MaxFragmentChars {
		return fmt.Errorf("%w: %d chars, maximum %d", ErrContentTooLong, n, MaxFragmentChars)
	}
	return nil
}

// ValidatePriority checks that a document priority is within bounds.
func ValidatePriority(priority int) error {
	if priority < MinPriority || priority > MaxPriority {
		return fmt.Errorf("%w: value %d", ErrInvalidPriority, priority)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
