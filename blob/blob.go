// Package blob defines the contract for the object store holding source
// documents, used during ingestion reads and bulk cleanup.
package blob

import (
	"context"
	"errors"
)

var (
	// ErrObjectNotFound indicates the object does not exist at the given path.
	ErrObjectNotFound = errors.New("object not found")
)

// Store accesses source document objects by path.
// Implementations must be thread-safe.
type Store interface {
	// Get returns the object's contents.
	Get(ctx context.Context, path string) ([]byte, error)

	// Copy duplicates an object to a new path within the store.
	Copy(ctx context.Context, srcPath, dstPath string) error

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}
