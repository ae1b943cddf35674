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


package ingest

import (
	"fmt"
	"time"

	"github.com/poiesic/corpus/segment"
)

// Config controls orchestrator behavior.
type Config struct {
	// Segment is the default chunking configuration, used by documents
	// that do not carry their own.
	Segment segment.Options

	// QueueCapacity bounds the processing job queue.
	QueueCapacity int

	// StuckAfter is how long a document may sit failed before Cleanup
	// resets it to pending for one bounded retry.
	StuckAfter time.Duration

	// ConfidenceFloor is the embedding confidence below which Optimize
	// queues a fragment for re-embedding.
	ConfidenceFloor float32

	// MaxWordsPerFragment is the optimizer's plausibility ceiling: a
	// document averaging more words per fragment than this is queued
	// for re-chunking.
	MaxWordsPerFragment int

	// DuplicateThreshold is the similarity at which Optimize reports
	// two fragments as near-duplicates.
	DuplicateThreshold float32

	// PageSize is the number of fragments per DocumentFragments page.
	PageSize int
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Segment:             segment.DefaultOptions(),
		QueueCapacity:       128,
		StuckAfter:          24 * time.Hour,
		ConfidenceFloor:     0.5,
		MaxWordsPerFragment: 400,
		DuplicateThreshold:  0.95,
		PageSize:            20,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if err := c.Segment.Validate(); err != nil {
		return fmt.Errorf("ingest config: %w", err)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("ingest config: queue capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.StuckAfter <= 0 {
		return fmt.Errorf("ingest config: stuck-after must be positive, got %s", c.StuckAfter)
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return fmt.Errorf("ingest config: confidence floor must be in [0, 1], got %g", c.ConfidenceFloor)
	}
	if c.MaxWordsPerFragment <= 0 {
		return fmt.Errorf("ingest config: max words per fragment must be positive, got %d", c.MaxWordsPerFragment)
	}
	if c.DuplicateThreshold < 0 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("ingest config: duplicate threshold must be in [0, 1], got %g", c.DuplicateThreshold)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("ingest config: page size must be positive, got %d", c.PageSize)
	}
	return nil
}
