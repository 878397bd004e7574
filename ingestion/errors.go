package ingestion

import "errors"

var (
	// ErrJobRepositoryRequired is returned when a job repository is not provided.
	ErrJobRepositoryRequired = errors.New("job repository required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrBlobStoreRequired is returned when a blob store is not provided.
	ErrBlobStoreRequired = errors.New("blob store required")

	// ErrInvalidMaxAttempts is returned when a retry budget is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrUnsplittableChunk is returned when a single chunk is rejected as
	// oversize. It cannot be split further; the failure is terminal for the
	// job and must be reported, never dropped.
	ErrUnsplittableChunk = errors.New("single chunk exceeds embedding payload limit")

	// ErrRetriesExhausted is returned when a batch kept failing transiently
	// past the retry budget. The job moves to its failed terminal state.
	ErrRetriesExhausted = errors.New("embedding retries exhausted")

	// ErrResultMismatch is returned when the embedding service responded
	// with a different number of vectors than texts sent. The ordering
	// invariant cannot be guaranteed, so this is always a hard failure.
	ErrResultMismatch = errors.New("embedding result count mismatch")
)
