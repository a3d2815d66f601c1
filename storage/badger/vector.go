package badger

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
//
// Each collection is a key-prefix namespace of embedding entries plus a
// registry key. Queries scan the collection and rank by cosine distance;
// collections are small enough (one person's archive per checkpoint) that
// a linear scan is the whole index.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) *VectorRepository {
	return &VectorRepository{
		backend: backend,
	}
}

// EnsureCollection creates the collection registry entry if it does not
// exist.
func (r *VectorRepository) EnsureCollection(ctx context.Context, name string, metadata map[string]any) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCollectionKey(name)
		_, err := tx.Get(key)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		value, err := storage.MarshalEmbeddingEntry(&core.EmbeddingEntry{
			ID:       name,
			Metadata: metadata,
		})
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AddEntries inserts entries into a collection, creating it if needed.
func (r *VectorRepository) AddEntries(ctx context.Context, collection string, entries ...*core.EmbeddingEntry) error {
	if err := r.EnsureCollection(ctx, collection, nil); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			value, err := storage.MarshalEmbeddingEntry(entry)
			if err != nil {
				return err
			}
			if err := tx.Set(makeEntryKey(collection, entry.ID), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// QueryCollection returns up to limit entries nearest to vector, ranked
// by ascending cosine distance.
func (r *VectorRepository) QueryCollection(ctx context.Context, collection string, vector []float32, limit int) ([]*core.QueryMatch, error) {
	results := []*core.QueryMatch{}
	if limit <= 0 {
		return results, nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEntryScanPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *core.EmbeddingEntry
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				entry, unmarshalErr = storage.UnmarshalEmbeddingEntry(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}

			// Skip entries without vectors
			if len(entry.Vector) == 0 {
				continue
			}

			results = append(results, &core.QueryMatch{
				Document: entry.Document,
				Metadata: entry.Metadata,
				Distance: cosineDistance(vector, entry.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by distance ascending (nearest first)
	slices.SortFunc(results, func(a, b *core.QueryMatch) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CountEntries returns the number of entries in a collection.
func (r *VectorRepository) CountEntries(ctx context.Context, collection string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEntryScanPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// ListEntries returns every entry of a collection.
func (r *VectorRepository) ListEntries(ctx context.Context, collection string) ([]*core.EmbeddingEntry, error) {
	var results []*core.EmbeddingEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEntryScanPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *core.EmbeddingEntry
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				entry, unmarshalErr = storage.UnmarshalEmbeddingEntry(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)
	return results, err
}

// UpdateEntryVectors overwrites the vectors of existing entries.
func (r *VectorRepository) UpdateEntryVectors(ctx context.Context, collection string, entries ...*core.EmbeddingEntry) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			key := makeEntryKey(collection, entry.ID)

			item, err := tx.Get(key)
			if err != nil {
				if err == badger.ErrKeyNotFound {
					return storage.ErrNotFound
				}
				return err
			}

			var stored *core.EmbeddingEntry
			err = item.Value(func(val []byte) error {
				var unmarshalErr error
				stored, unmarshalErr = storage.UnmarshalEmbeddingEntry(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}

			stored.Vector = entry.Vector
			value, err := storage.MarshalEmbeddingEntry(stored)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteCollection removes a collection and all of its entries.
// Deleting a collection that does not exist is not an error.
func (r *VectorRepository) DeleteCollection(ctx context.Context, name string) error {
	// Bulk-drop the entries first; DropPrefix runs outside transactions
	// and tolerates an empty prefix range.
	if err := r.backend.DropPrefix(makeEntryScanPrefix(name)); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		err := tx.Delete(makeCollectionKey(name))
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListCollections returns the names of all collections.
func (r *VectorRepository) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(collectionPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefixLen := len(collectionPrefix) + 1
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			names = append(names, strings.Clone(string(key[prefixLen:])))
		}
		return nil
	}, false)
	return names, err
}

// cosineDistance returns 1 - cosine similarity. Zero-norm vectors get
// the maximum distance of 1.
func cosineDistance(a, b []float32) float32 {
	var dot, normA, normB float64
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}
