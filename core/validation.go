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

import "fmt"

// ValidateJob validates an IngestionJob according to domain rules.
//
// Validation rules:
//   - Id must be set
//   - RepositoryId and SourcePath must not be empty
//   - Status must be a member of the closed status set
//   - ChunkStrategy must be valid
//
// NOT validated (resolved by the job service):
//   - CollectionId (empty means the repository default applies)
//   - EmbeddingModel (resolved from collection/repository config)
func ValidateJob(job *IngestionJob) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}

	if job.Id == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidJob)
	}

	if job.RepositoryId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyRepository)
	}

	if job.SourcePath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptySourcePath)
	}

	if err := ValidateStatus(job.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	if err := ValidateStrategy(job.ChunkStrategy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	return nil
}

// ValidateStatus validates that a JobStatus is a member of the closed set.
func ValidateStatus(status JobStatus) error {
	if status < StatusPending || status > StatusDeleteFailed {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
	return nil
}

// ValidateStrategy validates a ChunkingStrategy.
//
// Validation rules:
//   - Kind must be a known variant
//   - Size must be positive
//   - Overlap must be non-negative and strictly less than Size
func ValidateStrategy(strategy ChunkingStrategy) error {
	if strategy.Kind != StrategyFixed {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidStrategy, strategy.Kind)
	}

	if strategy.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidStrategy, strategy.Size)
	}

	if strategy.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be non-negative, got %d", ErrInvalidStrategy, strategy.Overlap)
	}

	if strategy.Overlap >= strategy.Size {
		return fmt.Errorf("%w: overlap %d must be less than size %d",
			ErrInvalidStrategy, strategy.Overlap, strategy.Size)
	}

	return nil
}
