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


// Package embedding turns fragment text into validated, cached vectors.
//
// The Pipeline batches texts toward the provider, paces calls with a
// rate limiter, retries transient failures with exponential backoff and
// caches every vector by content hash and model name, so re-embedding
// unchanged text costs no provider calls. Failures stay scoped to the
// smallest unit possible: a provider error after retries fails one
// batch, an invalid vector fails one text.
//
// Three entry points cover the callers:
//
//   - EmbedTexts: order-preserving 1:1 embedding that fails the whole
//     call on any item error. The Pipeline satisfies ai.Embedder, so
//     query embedding goes through the same cache.
//   - EmbedAll: per-item Result reporting with vectors, cache hits,
//     retry counts and scoped errors.
//   - ProcessDocument / ReprocessFailed: document-level orchestration
//     that selects fragments, embeds them batch by batch, persists
//     vectors and error records, and aggregates the document's
//     embedding status (completed, partially_completed or failed).
package embedding
