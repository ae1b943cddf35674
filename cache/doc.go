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


// Package cache defines the cache store contract used by the embedding
// pipeline and the retrieval engine, plus the fail-soft wrapper that
// keeps a cache outage from ever surfacing as an error.
//
// The Store interface models the handful of structures the pipeline
// needs: plain values with TTLs (embedding vectors, serialized search
// results), hashes (status counters), sets (the search-key index used
// for invalidation), and lists (recent queries). The canonical key
// shapes live in this package too, so every component addresses the
// cache the same way:
//
//	emb:<model>:<hash>    embedding vector for one text
//	search:<hash>         serialized results for one query
//	search-keys           set of live search:* keys
//	recent-queries        most-recent-first query list
//	status                health/status hash
//
// Wrap any Store in FailSoft to make reads degrade to cache misses and
// writes to logged no-ops. The cache is an accelerator, never a
// dependency: callers behave identically, only slower, when it is down.
package cache
