// Package vectorstore defines the narrow contract the ingestion pipeline
// uses to persist and remove embedding vectors.
package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable indicates the vector store backend cannot be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)

// Record pairs an embedding vector with the metadata stored alongside it.
type Record struct {
	Vector   []float32
	Metadata map[string]string
}

// Filter selects stored vectors by exact metadata match. All entries must
// match for a vector to be selected.
type Filter map[string]string

// Store writes and deletes embedding vectors in a named collection.
// Implementations must be thread-safe.
type Store interface {
	// Add appends the records to the collection. Records are written in the
	// order given; a failure leaves no guarantee about partial writes and
	// the caller must treat the batch as failed.
	Add(ctx context.Context, collection string, records []Record) error

	// DeleteByFilter removes every vector in the collection whose metadata
	// matches the filter.
	DeleteByFilter(ctx context.Context, collection string, filter Filter) error
}
