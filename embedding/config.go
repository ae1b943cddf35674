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
	"fmt"
	"time"
)

// Config holds the embedding pipeline settings.
type Config struct {
	// Model is the embedding model name. It is part of every cache key,
	// so switching models re-keys the cache instead of invalidating it.
	Model string

	// Dimensions is the exact vector width the provider must return.
	Dimensions int

	// BatchSize is how many texts go to the provider per call.
	BatchSize int

	// MaxRetries caps the attempts per provider call.
	MaxRetries int

	// RetryBaseDelay is the backoff base; it doubles on each retry.
	RetryBaseDelay time.Duration

	// BatchInterval paces provider calls to avoid throttling.
	// Zero disables pacing.
	BatchInterval time.Duration

	// CacheTTL bounds the life of cached vectors.
	CacheTTL time.Duration
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		Model:          "text-embedding-3-small",
		Dimensions:     1536,
		BatchSize:      50,
		MaxRetries:     3,
		RetryBaseDelay: 500 * time.Millisecond,
		BatchInterval:  100 * time.Millisecond,
		CacheTTL:       24 * time.Hour,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("embedding config: Model is required")
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("embedding config: Dimensions must be positive, got %d", c.Dimensions)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("embedding config: BatchSize must be positive, got %d", c.BatchSize)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("embedding config: MaxRetries must be positive, got %d", c.MaxRetries)
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("embedding config: RetryBaseDelay cannot be negative")
	}
	if c.BatchInterval < 0 {
		return fmt.Errorf("embedding config: BatchInterval cannot be negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("embedding config: CacheTTL cannot be negative")
	}
	return nil
}
