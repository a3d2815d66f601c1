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

package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/revenant/ai"
	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
)

// Document is a text fragment to be embedded and stored.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Store pairs an embedder with a vector repository. Each checkpoint owns
// one collection; the store embeds text on write and on query so callers
// never handle raw vectors.
type Store struct {
	vectors  storage.VectorRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewStore creates a Store over the given repository and embedder.
func NewStore(vectors storage.VectorRepository, embedder ai.Embedder) *Store {
	return &Store{
		vectors:  vectors,
		embedder: embedder,
		logger:   slog.Default().With("component", "vectorstore"),
	}
}

// CollectionName derives the collection name for a checkpoint version.
// Dots are replaced because downstream identifiers disallow them, so
// "0.1" maps to "ghost_0_1".
func CollectionName(version string) string {
	return "ghost_" + strings.ReplaceAll(version, ".", "_")
}

// EnsureCollection creates the checkpoint's collection if missing.
func (s *Store) EnsureCollection(ctx context.Context, version string) error {
	return s.vectors.EnsureCollection(ctx, CollectionName(version), map[string]any{
		"checkpoint_version": version,
	})
}

// AddDocuments embeds and stores documents one at a time. Documents with
// an empty ID get a positional id "doc_<i>" unique within the call, so
// they cannot overwrite each other. Documents inserted before a failure
// stay committed; the caller may retry the remainder.
func (s *Store) AddDocuments(ctx context.Context, version string, documents ...Document) (int, error) {
	collection := CollectionName(version)
	if err := s.vectors.EnsureCollection(ctx, collection, map[string]any{
		"checkpoint_version": version,
	}); err != nil {
		return 0, err
	}

	stored := 0
	for i, document := range documents {
		if document.ID == "" {
			document.ID = fmt.Sprintf("doc_%d", i)
		}
		vector, err := s.embedder.EmbedText(ctx, document.Text)
		if err != nil {
			s.logger.Error("embedding failed", "collection", collection, "id", document.ID, "err", err)
			return stored, err
		}

		entry := &core.EmbeddingEntry{
			ID:       document.ID,
			Document: document.Text,
			Vector:   vector,
			Metadata: document.Metadata,
		}
		if err := s.vectors.AddEntries(ctx, collection, entry); err != nil {
			return stored, err
		}
		stored++
	}

	s.logger.Debug("stored documents", "collection", collection, "count", stored)
	return stored, nil
}

// Query embeds the text and returns up to limit nearest entries from the
// checkpoint's collection, nearest first. A missing or empty collection
// yields an empty result, not an error.
func (s *Store) Query(ctx context.Context, version string, text string, limit int) ([]*core.QueryMatch, error) {
	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	return s.vectors.QueryCollection(ctx, CollectionName(version), vector, limit)
}

// Count returns the number of entries in the checkpoint's collection.
func (s *Store) Count(ctx context.Context, version string) (int, error) {
	return s.vectors.CountEntries(ctx, CollectionName(version))
}

// DeleteCollection removes the checkpoint's collection and its entries.
// Deleting a collection that was never created is not an error.
func (s *Store) DeleteCollection(ctx context.Context, version string) error {
	return s.vectors.DeleteCollection(ctx, CollectionName(version))
}

// ListCollections returns all collection names in the store.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	return s.vectors.ListCollections(ctx)
}
