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

package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
	"github.com/poiesic/revenant/vectorstore"
)

// DefaultExtensions are the file extensions ingested from directories
// when the caller does not specify a set.
var DefaultExtensions = []string{".txt", ".md", ".json", ".csv"}

// Pipeline ingests archive material into a checkpoint's collection.
// Every ingested chunk is embedded into the vector store and recorded as
// a source document row for auditability.
type Pipeline struct {
	store     *vectorstore.Store
	documents storage.DocumentRepository
	chunker   *Chunker
	logger    *slog.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(store *vectorstore.Store, documents storage.DocumentRepository) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	return &Pipeline{
		store:     store,
		documents: documents,
		chunker:   NewChunker(),
		logger:    slog.Default().With("component", "ingestion"),
	}, nil
}

// IngestFile chunks a single text file into the checkpoint's collection.
// Chunk ids are "<file stem>_<index>". Returns the ids of the chunks stored.
func (p *Pipeline) IngestFile(ctx context.Context, version, path, sourceType string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	chunks := p.chunker.Chunk(string(content))
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	documents := make([]vectorstore.Document, 0, len(chunks))
	for i, chunk := range chunks {
		documents = append(documents, vectorstore.Document{
			ID:   fmt.Sprintf("%s_%d", stem, i),
			Text: chunk,
			Metadata: map[string]any{
				"filename":    path,
				"source_type": sourceType,
				"chunk_index": i,
			},
		})
	}

	stored, err := p.store.AddDocuments(ctx, version, documents...)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, stored)
	rows := make([]*core.SourceDocument, 0, stored)
	for _, document := range documents[:stored] {
		ids = append(ids, document.ID)
		rows = append(rows, &core.SourceDocument{
			SourceType:  sourceType,
			Content:     document.Text,
			Metadata:    document.Metadata,
			EmbeddingID: document.ID,
		})
	}
	if len(rows) > 0 {
		if _, err := p.documents.AppendDocuments(ctx, rows...); err != nil {
			return ids, err
		}
	}

	p.logger.Info("ingested file", "path", path, "chunks", len(ids), "checkpoint", version)
	return ids, nil
}

// IngestDirectory recursively ingests every file under dir whose extension
// matches. A file that fails to ingest is logged and skipped; the rest of
// the directory still loads. Returns the ids of all chunks stored.
func (p *Pipeline) IngestDirectory(ctx context.Context, version, dir, sourceType string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	var allIDs []string
	matched := 0
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !slices.Contains(extensions, filepath.Ext(path)) {
			return nil
		}
		matched++

		ids, err := p.IngestFile(ctx, version, path, sourceType)
		if err != nil {
			p.logger.Warn("skipping file", "path", path, "err", err)
			return nil
		}
		allIDs = append(allIDs, ids...)
		return nil
	})
	if err != nil {
		return allIDs, err
	}
	if matched == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoIngestableFiles, dir)
	}

	p.logger.Info("ingested directory", "dir", dir, "chunks", len(allIDs), "checkpoint", version)
	return allIDs, nil
}

// IngestMessages loads messages from a JSON export (a single object or an
// array of objects) and ingests each message's text field whole, without
// chunking. Objects missing the field are skipped. Ids are "msg_<index>".
func (p *Pipeline) IngestMessages(ctx context.Context, version, path, messageField string) ([]string, error) {
	if messageField == "" {
		messageField = "text"
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var messages []map[string]any
	if err := json.Unmarshal(content, &messages); err != nil {
		var single map[string]any
		if err := json.Unmarshal(content, &single); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		messages = []map[string]any{single}
	}

	var ids []string
	for i, message := range messages {
		text, ok := message[messageField].(string)
		if !ok {
			continue
		}

		metadata := map[string]any{
			"source_type":   "message",
			"message_index": i,
		}
		for key, value := range message {
			if key != messageField {
				metadata[key] = value
			}
		}

		id := fmt.Sprintf("msg_%d", i)
		stored, err := p.store.AddDocuments(ctx, version, vectorstore.Document{
			ID:       id,
			Text:     text,
			Metadata: metadata,
		})
		if err != nil {
			return ids, err
		}
		if stored == 0 {
			continue
		}

		_, err = p.documents.AppendDocuments(ctx, &core.SourceDocument{
			SourceType:  "message",
			Content:     text,
			Metadata:    metadata,
			EmbeddingID: id,
		})
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}

	p.logger.Info("ingested messages", "path", path, "messages", len(ids), "checkpoint", version)
	return ids, nil
}
