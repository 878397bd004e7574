package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/corpus/blob"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/vectorstore"
)

// DefaultCleanupPageSize bounds how many documents one cleanup step touches.
const DefaultCleanupPageSize = 100

// CleanupPage removes one page of a repository's documents: their vectors,
// their source blobs and their records. It returns the number of documents
// removed and the wire cursor for the next page; an empty next cursor means
// the repository is clean. Callers drive the loop so that a long cleanup can
// be resumed or abandoned between pages. When an archive prefix is
// configured, each source object is copied under that prefix before it is
// deleted.
func (s *Service) CleanupPage(ctx context.Context, repositoryID string, cursor string) (int, string, error) {
	if repositoryID == "" {
		return 0, "", fmt.Errorf("%w: repository id required", core.ErrValidation)
	}
	decoded, err := storage.DecodeCursor(cursor)
	if err != nil {
		return 0, "", err
	}

	page, err := s.documents.ListByRepository(ctx, repositoryID, DefaultCleanupPageSize, decoded)
	if err != nil {
		return 0, "", err
	}

	removed := 0
	for _, doc := range page.Documents {
		collection := doc.CollectionId
		if collection == "" {
			collection = doc.RepositoryId
		}
		filter := vectorstore.Filter{
			MetaRepositoryId: doc.RepositoryId,
			MetaSourcePath:   doc.SourcePath,
		}
		if err := s.vectors.DeleteByFilter(ctx, collection, filter); err != nil {
			return removed, "", fmt.Errorf("deleting vectors for %s: %w", doc.SourcePath, err)
		}
		if s.archivePrefix != "" {
			dst := s.archivePrefix + doc.SourcePath
			err := s.blobs.Copy(ctx, doc.SourcePath, dst)
			if err != nil && !errors.Is(err, blob.ErrObjectNotFound) {
				return removed, "", fmt.Errorf("archiving object %s: %w", doc.SourcePath, err)
			}
		}
		if err := s.blobs.Delete(ctx, doc.SourcePath); err != nil {
			return removed, "", fmt.Errorf("deleting object %s: %w", doc.SourcePath, err)
		}
		if err := s.documents.Delete(ctx, doc.Id); err != nil {
			return removed, "", fmt.Errorf("deleting record %d: %w", doc.Id, err)
		}
		removed++
	}

	next, err := storage.EncodeCursor(page.Next)
	if err != nil {
		return removed, "", err
	}

	s.logger.Info("cleanup page done",
		"repository", repositoryID, "removed", removed, "more", next != "")
	return removed, next, nil
}

// PendingDeletionsComplete reports whether the repository has no jobs still
// in the DELETING state. Cleanup waits for this before declaring the
// repository clean.
func (s *Service) PendingDeletionsComplete(ctx context.Context, repositoryID string) (bool, error) {
	count, err := s.jobs.CountActiveDeletions(ctx, repositoryID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
