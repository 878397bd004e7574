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


package badger

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// cursorLastKey is the attribute carrying the resume point in job cursors.
const cursorLastKey = "last_key"

// JobRepository implements storage.JobRepository for BadgerDB.
type JobRepository struct {
	backend *Backend
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) *JobRepository {
	return &JobRepository{backend: backend}
}

// Close implements storage.JobRepository.
func (r *JobRepository) Close() error {
	return nil
}

// Save inserts or overwrites a job record and maintains its secondary
// indexes. Saving a non-terminal job for a document that already has a
// different non-terminal job fails with ErrDuplicateJob.
func (r *JobRepository) Save(ctx context.Context, job *core.IngestionJob) error {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docKey := makeJobDocumentKey(job.DocumentId)

		if !core.IsTerminalStatus(job.Status) {
			existing, err := readValue(tx, docKey)
			if err != nil {
				return err
			}
			if existing != nil && core.JobID(existing) != job.Id {
				return fmt.Errorf("%w: document %d tracked by job %s",
					storage.ErrDuplicateJob, job.DocumentId, existing)
			}
			if err := tx.Set(docKey, []byte(job.Id)); err != nil {
				return err
			}
		} else {
			existing, err := readValue(tx, docKey)
			if err != nil {
				return err
			}
			if existing != nil && core.JobID(existing) == job.Id {
				if err := tx.Delete(docKey); err != nil {
					return err
				}
			}
		}

		if err := tx.Set(makeJobKey(job.Id), storage.MarshalJob(job)); err != nil {
			return err
		}
		if err := tx.Set(makeJobPathKey(job.SourcePath, job.Id), []byte(job.Id)); err != nil {
			return err
		}
		if err := tx.Set(makeJobRepoKey(job.RepositoryId, job.CreatedAt, job.Id), []byte(job.Id)); err != nil {
			return err
		}

		if err := r.maintainDeletingIndex(tx, job); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	return wrapBackendErr(err)
}

// FindByID returns the job or fails with ErrNotFound.
func (r *JobRepository) FindByID(ctx context.Context, id core.JobID) (*core.IngestionJob, error) {
	var job *core.IngestionJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		job, err = readJob(tx, makeJobKey(id))
		return err
	}, false)
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	if job == nil {
		return nil, fmt.Errorf("%w: job %s", storage.ErrNotFound, id)
	}
	return job, nil
}

// FindByDocument returns the at most one non-terminal job for the document,
// or nil when absent.
func (r *JobRepository) FindByDocument(ctx context.Context, documentID core.DocumentID) (*core.IngestionJob, error) {
	var job *core.IngestionJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readValue(tx, makeJobDocumentKey(documentID))
		if err != nil || id == nil {
			return err
		}
		job, err = readJob(tx, makeJobKey(core.JobID(id)))
		return err
	}, false)
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return job, nil
}

// FindByPath returns all jobs ever created for a source location, oldest
// first. Terminal jobs are retained, so repeated submissions of the same
// path accumulate here as an audit trail.
func (r *JobRepository) FindByPath(ctx context.Context, sourcePath string) ([]*core.IngestionJob, error) {
	var jobs []*core.IngestionJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialJobPathKey(sourcePath)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				job, err := readJob(tx, makeJobKey(core.JobID(val)))
				if err != nil {
					return err
				}
				if job != nil {
					jobs = append(jobs, job)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, wrapBackendErr(err)
	}

	slices.SortFunc(jobs, func(a, b *core.IngestionJob) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return jobs, nil
}

// UpdateStatus transitions the job's status compare-and-set style. The
// persisted status must equal expected or nothing is written and the call
// fails with ErrConflict. failure is recorded only on failed terminal
// transitions.
func (r *JobRepository) UpdateStatus(ctx context.Context, id core.JobID, expected, next core.JobStatus, failure string) (*core.IngestionJob, error) {
	if err := core.ValidateStatus(next); err != nil {
		return nil, err
	}

	var updated *core.IngestionJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := readJob(tx, makeJobKey(id))
		if err != nil {
			return err
		}
		if job == nil {
			return fmt.Errorf("%w: job %s", storage.ErrNotFound, id)
		}
		if job.Status != expected {
			return fmt.Errorf("%w: job %s is %s, expected %s",
				storage.ErrConflict, id, job.Status, expected)
		}

		job.Status = next
		job.UpdatedAt = time.Now().UTC()
		if failure != "" && (next == core.StatusIngestionFailed || next == core.StatusDeleteFailed) {
			job.Failure = failure
		}

		if err := tx.Set(makeJobKey(id), storage.MarshalJob(job)); err != nil {
			return err
		}

		// The document index tracks only the non-terminal job.
		if core.IsTerminalStatus(next) {
			docKey := makeJobDocumentKey(job.DocumentId)
			existing, err := readValue(tx, docKey)
			if err != nil {
				return err
			}
			if existing != nil && core.JobID(existing) == job.Id {
				if err := tx.Delete(docKey); err != nil {
					return err
				}
			}
		}

		if err := r.maintainDeletingIndex(tx, job); err != nil {
			return err
		}

		updated = job
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return updated, nil
}

// ListByRepository pages through the repository's jobs in creation order.
func (r *JobRepository) ListByRepository(ctx context.Context, repositoryID string, pageSize int, cursor storage.Cursor) (*storage.JobPage, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive", core.ErrValidation)
	}

	prefix := makePartialJobRepoKey(repositoryID)
	seek, err := cursorSeekKey(cursor, prefix)
	if err != nil {
		return nil, err
	}

	page := &storage.JobPage{}
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var lastKey []byte
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			if len(page.Jobs) == pageSize {
				// More records remain; resume after the last returned key.
				next, err := encodeCursorKey(lastKey)
				if err != nil {
					return err
				}
				page.Next = next
				return nil
			}

			item := iter.Item()
			err := item.Value(func(val []byte) error {
				job, err := readJob(tx, makeJobKey(core.JobID(val)))
				if err != nil {
					return err
				}
				if job != nil {
					page.Jobs = append(page.Jobs, job)
				}
				return nil
			})
			if err != nil {
				return err
			}
			lastKey = item.KeyCopy(lastKey[:0])
		}
		return nil
	}, false)
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return page, nil
}

// CountActiveDeletions counts the repository's jobs currently DELETING.
func (r *JobRepository) CountActiveDeletions(ctx context.Context, repositoryID string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialJobDeletingKey(repositoryID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, wrapBackendErr(err)
	}
	return count, nil
}

// maintainDeletingIndex keeps the per-repository DELETING marker in sync
// with the job's status.
func (r *JobRepository) maintainDeletingIndex(tx *badger.Txn, job *core.IngestionJob) error {
	key := makeJobDeletingKey(job.RepositoryId, job.Id)
	if job.Status == core.StatusDeleting {
		return tx.Set(key, []byte{1})
	}
	err := tx.Delete(key)
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return nil
}

// readJob reads and unmarshals a job record. Returns nil when absent.
func readJob(tx *badger.Txn, key []byte) (*core.IngestionJob, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var job *core.IngestionJob
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		job, unmarshalErr = storage.UnmarshalJob(val)
		return unmarshalErr
	})
	return job, err
}

// readValue reads a raw value. Returns nil when absent.
func readValue(tx *badger.Txn, key []byte) ([]byte, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// cursorSeekKey converts a listing cursor to the key iteration resumes at.
// A nil cursor seeks to the start of the prefix.
func cursorSeekKey(cursor storage.Cursor, prefix []byte) ([]byte, error) {
	if len(cursor) == 0 {
		return prefix, nil
	}

	encoded, ok := cursor[cursorLastKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", storage.ErrInvalidCursor, cursorLastKey)
	}
	lastKey, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidCursor, err)
	}
	if !bytes.HasPrefix(lastKey, prefix) {
		return nil, fmt.Errorf("%w: cursor does not match listing", storage.ErrInvalidCursor)
	}
	// Resume strictly after the last seen key.
	return append(lastKey, 0x00), nil
}

// encodeCursorKey wraps the last seen index key in a cursor.
func encodeCursorKey(lastKey []byte) (storage.Cursor, error) {
	if len(lastKey) == 0 {
		return nil, fmt.Errorf("%w: empty resume key", storage.ErrInvalidCursor)
	}
	return storage.Cursor{
		cursorLastKey: base64.RawURLEncoding.EncodeToString(lastKey),
	}, nil
}

// wrapBackendErr tags backend failures with ErrStorage while passing domain
// sentinels through untouched.
func wrapBackendErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, storage.ErrConflict) ||
		errors.Is(err, storage.ErrDuplicateJob) ||
		errors.Is(err, storage.ErrInvalidCursor) ||
		errors.Is(err, storage.ErrSerializationFailed) {
		return err
	}
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %w", storage.ErrConflict, err)
	}
	return fmt.Errorf("%w: %w", storage.ErrStorage, err)
}
