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


// Package retrieval ranks embedded fragments against natural language
// queries.
//
// The Engine embeds a query through the shared embedding cache, scans
// the stored fragment vectors, and returns threshold-filtered hits
// enriched with their parent document's title and filename. Result sets
// are cached for a short TTL under a key derived from the normalized
// query and the canonical search options, and every cached key is
// registered for invalidation after mutating operations. Fragment usage
// statistics are folded in on a background worker pool and never delay
// a response.
package retrieval
