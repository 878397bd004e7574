package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{backend: backend}
}

// Close implements storage.DocumentRepository.
func (r *DocumentRepository) Close() error {
	return nil
}

// Put inserts or overwrites a document record and its listing index entry.
func (r *DocumentRepository) Put(ctx context.Context, doc *core.Document) error {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentRepoKey(doc.RepositoryId, doc.SourcePath), documentIDValue(doc.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return wrapBackendErr(err)
}

// Get returns the document or nil when absent.
func (r *DocumentRepository) Get(ctx context.Context, id core.DocumentID) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, makeDocumentKey(id))
		return err
	}, false)
	if err != nil {
		return nil, wrapBackendErr(err)
	}
	return doc, nil
}

// ListByRepository pages through the repository's documents in path order.
func (r *DocumentRepository) ListByRepository(ctx context.Context, repositoryID string, pageSize int, cursor storage.Cursor) (*storage.DocumentPage, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive", core.ErrValidation)
	}

	prefix := makePartialDocumentRepoKey(repositoryID)
	seek, err := cursorSeekKey(cursor, prefix)
	if err != nil {
		return nil, err
	}

	page := &storage.DocumentPage{}
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var lastKey []byte
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			if len(page.Documents) == pageSize {
				next, err := encodeCursorKey(lastKey)
				if err != nil {
					return err
				}
				page.Next = next
				return nil
			}

			item := iter.Item()
			err := item.Value(func(val []byte) error {
				id, err := documentIDFromValue(val)
				if err != nil {
					return err
				}
				doc, err := readDocument(tx, makeDocumentKey(id))
				if err != nil {
					return err
				}
				if doc != nil {
					page.Documents = append(page.Documents, doc)
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

// Delete removes the document record and its index entry. Missing documents
// are not an error.
func (r *DocumentRepository) Delete(ctx context.Context, id core.DocumentID) error {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if doc == nil {
			return nil
		}
		if err := tx.Delete(makeDocumentRepoKey(doc.RepositoryId, doc.SourcePath)); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return wrapBackendErr(err)
}

// readDocument reads and unmarshals a document record. Returns nil when absent.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// documentIDValue encodes a DocumentID for index values.
func documentIDValue(id core.DocumentID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// documentIDFromValue decodes an index value back into a DocumentID.
func documentIDFromValue(val []byte) (core.DocumentID, error) {
	if len(val) != 8 {
		return 0, fmt.Errorf("%w: malformed document index value", storage.ErrSerializationFailed)
	}
	return core.DocumentID(binary.BigEndian.Uint64(val)), nil
}
