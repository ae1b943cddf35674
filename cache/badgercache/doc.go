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


// Package badgercache implements cache.Store on a dedicated BadgerDB
// instance.
//
// Plain values map straight onto Badger entries with native TTLs.
// Hashes and sets are encoded as one Badger key per field or member
// under a structure prefix, so field reads and membership checks stay
// point lookups. Lists are stored as a single serialized value and
// rewritten inside one transaction per mutation, which is the right
// trade for the short recent-query lists this cache holds.
package badgercache
