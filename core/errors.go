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

import "errors"

// Domain validation errors
var (
	// ErrValidation indicates malformed caller input. It is never retried.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidJob indicates an IngestionJob failed validation.
	ErrInvalidJob = errors.New("invalid ingestion job")

	// ErrInvalidStatus indicates a JobStatus value outside the closed set.
	ErrInvalidStatus = errors.New("invalid job status")

	// ErrInvalidStrategy indicates a ChunkingStrategy failed validation.
	ErrInvalidStrategy = errors.New("invalid chunking strategy")

	// ErrEmptySourcePath indicates the SourcePath field is empty.
	ErrEmptySourcePath = errors.New("source path cannot be empty")

	// ErrEmptyRepository indicates the RepositoryId field is empty.
	ErrEmptyRepository = errors.New("repository id cannot be empty")
)
