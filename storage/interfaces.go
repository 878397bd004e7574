package storage

import (
	"context"

	"github.com/poiesic/corpus/core"
)

// JobPage is one page of a paginated job listing.
type JobPage struct {
	Jobs []*core.IngestionJob
	// Next resumes the listing after the last returned job. Nil when the
	// listing is exhausted.
	Next Cursor
}

// DocumentPage is one page of a paginated document listing.
type DocumentPage struct {
	Documents []*core.Document
	Next      Cursor
}

// JobRepository persists ingestion jobs and their secondary indexes.
// Implementations must be thread-safe and support concurrent access.
type JobRepository interface {
	// Save inserts or overwrites a job record. Fails with ErrStorage on
	// backend unavailability.
	Save(ctx context.Context, job *core.IngestionJob) error

	// FindByID returns the job or fails with ErrNotFound.
	FindByID(ctx context.Context, id core.JobID) (*core.IngestionJob, error)

	// FindByDocument returns the at most one non-terminal job tracked for
	// the document, or nil when absent.
	FindByDocument(ctx context.Context, documentID core.DocumentID) (*core.IngestionJob, error)

	// FindByPath returns all jobs ever created for a source location, in
	// creation order. Terminal jobs are retained for audit, so duplicates
	// across time are expected.
	FindByPath(ctx context.Context, sourcePath string) ([]*core.IngestionJob, error)

	// UpdateStatus atomically transitions the job's status, compare-and-set
	// on the job's current status. Returns the updated job. Fails with
	// ErrNotFound if the job no longer exists and ErrConflict if the
	// persisted status is no longer expected. failure is recorded on the
	// job only when next is a failed terminal status; pass "" otherwise.
	UpdateStatus(ctx context.Context, id core.JobID, expected, next core.JobStatus, failure string) (*core.IngestionJob, error)

	// ListByRepository pages through the repository's jobs in creation
	// order, starting after the cursor. pageSize bounds the page length.
	ListByRepository(ctx context.Context, repositoryID string, pageSize int, cursor Cursor) (*JobPage, error)

	// CountActiveDeletions counts the repository's jobs currently in the
	// DELETING state. Cleanup polls this until it reaches zero.
	CountActiveDeletions(ctx context.Context, repositoryID string) (int, error)

	// Close releases repository resources.
	Close() error
}

// DocumentRepository persists the documents known to a repository.
type DocumentRepository interface {
	// Put inserts or overwrites a document record.
	Put(ctx context.Context, doc *core.Document) error

	// Get returns the document or nil when absent.
	Get(ctx context.Context, id core.DocumentID) (*core.Document, error)

	// ListByRepository pages through the repository's documents in path
	// order, starting after the cursor.
	ListByRepository(ctx context.Context, repositoryID string, pageSize int, cursor Cursor) (*DocumentPage, error)

	// Delete removes the document record. Deleting a missing document is
	// not an error.
	Delete(ctx context.Context, id core.DocumentID) error

	// Close releases repository resources.
	Close() error
}
