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


// Package storage defines the persistence contracts for ingestion jobs and
// documents, together with the cursor pagination helpers shared by listing
// and bulk cleanup.
//
// The store is treated as an abstract keyed store with secondary lookup
// indexes. Repositories own their records exclusively: jobs are mutated only
// through status transitions and are never physically deleted.
//
// # Status transitions
//
// UpdateStatus is compare-and-set. The caller passes the status it believes
// is current; if the persisted record has moved on, the update fails with
// ErrConflict and no write happens. This preserves the at-most-one-active-
// job-per-document invariant when concurrent triggers race on a job.
//
// # Cursors
//
// A Cursor is an opaque resume point produced by a paginated query. It
// round-trips through a URL-safe encoded wire form; malformed input fails
// with ErrInvalidCursor, never a panic.
//
// # Implementation Packages
//
//   - storage/badger: BadgerDB implementation
package storage
