package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
// Source documents are an append-only log; rows are never updated.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{
		backend: backend,
	}
}

// AppendDocuments stores source documents. Row IDs are derived from the
// embedding id plus content, so identical chunks from distinct embedding
// entries never collide.
func (r *DocumentRepository) AppendDocuments(ctx context.Context, documents ...*core.SourceDocument) ([]*core.SourceDocument, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, document := range documents {
			if document.ID == 0 {
				document.ID = core.IDFromContent(document.EmbeddingID + "\x00" + document.Content)
			}
			if document.IngestedAt.IsZero() {
				document.IngestedAt = time.Now().UTC()
			}

			value, err := storage.MarshalSourceDocument(document)
			if err != nil {
				return err
			}
			if err := tx.Set(makeDocumentKey(document.ID), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return documents, err
}

// ListDocuments returns up to limit stored documents.
func (r *DocumentRepository) ListDocuments(ctx context.Context, limit int) ([]*core.SourceDocument, error) {
	var results []*core.SourceDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}

			var document *core.SourceDocument
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				document, unmarshalErr = storage.UnmarshalSourceDocument(val)
				return unmarshalErr
			})
			if err != nil {
				return fmt.Errorf("reading document log: %w", err)
			}
			results = append(results, document)
		}
		return nil
	}, false)
	return results, err
}
