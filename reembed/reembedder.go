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

package reembed

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/revenant/ai"
	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
	"github.com/poiesic/revenant/vectorstore"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of entries embedded per API call
	BatchSize int

	// Workers is the size of the worker pool processing batches
	Workers int

	// MaxRetries is the maximum number of retry attempts for failed embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	return &Config{
		BatchSize:  50,
		Workers:    workers,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// Reembedder regenerates the vectors of a checkpoint's collection with the
// configured embedder. Used offline after switching embedding models, so
// stored documents don't have to be re-ingested from source.
type Reembedder struct {
	vectors  storage.VectorRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(vectors storage.VectorRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		vectors:  vectors,
		embedder: embedder,
		config:   config,
		progress: progress,
	}, nil
}

// Run re-embeds every entry of the checkpoint's collection. Batches are
// processed concurrently on a worker pool; the first batch error aborts
// nothing else in flight but is reported after all workers finish.
func (r *Reembedder) Run(ctx context.Context, version string) error {
	collection := vectorstore.CollectionName(version)

	entries, err := r.vectors.ListEntries(ctx, collection)
	if err != nil {
		return fmt.Errorf("listing entries for %s: %w", collection, err)
	}

	total := len(entries)
	if total == 0 {
		fmt.Fprintf(r.progress, "Collection %s is empty, nothing to reembed\n", collection)
		return nil
	}

	fmt.Fprintf(r.progress, "Reembedding %d entries in %s (batch size: %d, workers: %d)\n",
		total, collection, r.config.BatchSize, r.config.Workers)

	pool, err := ants.NewPool(r.config.Workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
		firstErr  error
	)
	started := time.Now()

	for start := 0; start < total; start += r.config.BatchSize {
		end := start + r.config.BatchSize
		if end > total {
			end = total
		}
		batch := entries[start:end]

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			err := r.processBatch(ctx, collection, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
				return
			}
			processed += len(batch)
			fmt.Fprintf(r.progress, "  %d/%d entries reembedded\n", processed, total)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}

	wg.Wait()
	if firstErr != nil {
		return firstErr
	}

	elapsed := time.Since(started)
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d entries in %v\n",
		total, elapsed.Round(time.Millisecond))
	return nil
}

// processBatch embeds one batch of entries and writes the new vectors back.
// Vectors are normalized to unit length for cosine similarity.
func (r *Reembedder) processBatch(ctx context.Context, collection string, batch []*core.EmbeddingEntry) error {
	texts := make([]string, len(batch))
	for i, entry := range batch {
		texts[i] = entry.Document
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = r.embedder.EmbedTexts(ctx, texts)
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("embedding batch after %d attempts: %w", r.config.MaxRetries, err)
	}

	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
	}

	updates := make([]*core.EmbeddingEntry, len(batch))
	for i, entry := range batch {
		updates[i] = &core.EmbeddingEntry{
			ID:     entry.ID,
			Vector: NormalizeVector(vectors[i]),
		}
	}

	return r.vectors.UpdateEntryVectors(ctx, collection, updates...)
}
