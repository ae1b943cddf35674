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


package retrieval

import (
	"fmt"
	"time"
)

// Config tunes the retrieval engine.
type Config struct {
	// Limit is the default result cap when SearchOptions leaves it unset.
	Limit int

	// Threshold is the default minimum similarity when SearchOptions
	// leaves it unset.
	Threshold float32

	// CacheTTL bounds how long a cached result set may be served.
	CacheTTL time.Duration

	// DuplicateThreshold is the minimum similarity for FindDuplicates.
	DuplicateThreshold float32

	// StatsWorkers sizes the background pool that folds usage
	// statistics into fragments.
	StatsWorkers int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Limit:              10,
		Threshold:          0.7,
		CacheTTL:           5 * time.Minute,
		DuplicateThreshold: 0.95,
		StatsWorkers:       4,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("retrieval config: limit must be positive, got %d", c.Limit)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("retrieval config: threshold must be in [0, 1], got %g", c.Threshold)
	}
	if c.DuplicateThreshold < 0 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("retrieval config: duplicate threshold must be in [0, 1], got %g", c.DuplicateThreshold)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("retrieval config: cache TTL must not be negative, got %s", c.CacheTTL)
	}
	if c.StatsWorkers <= 0 {
		return fmt.Errorf("retrieval config: stats workers must be positive, got %d", c.StatsWorkers)
	}
	return nil
}
