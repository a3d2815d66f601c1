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

// Package revenant persists a person's written archive and answers in
// their voice. A Database bundles the storage backend, the AI provider,
// and constructors for the engine, ingestion pipeline, and checkpoint
// manager.
package revenant

import (
	"io"
	"log/slog"

	"github.com/poiesic/revenant/ai"
	"github.com/poiesic/revenant/ai/openai"
	"github.com/poiesic/revenant/checkpoint"
	"github.com/poiesic/revenant/engine"
	"github.com/poiesic/revenant/ingestion"
	"github.com/poiesic/revenant/reembed"
	"github.com/poiesic/revenant/storage"
	"github.com/poiesic/revenant/storage/badger"
	"github.com/poiesic/revenant/vectorstore"
)

type Database struct {
	backend        *badger.Backend
	checkpointRepo storage.CheckpointRepository
	messageRepo    storage.MessageRepository
	documentRepo   storage.DocumentRepository
	vectorRepo     storage.VectorRepository
	provider       ai.AIProvider
	store          *vectorstore.Store
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider injects a pre-built AI provider, bypassing the OpenAI
// client construction. Used by tests with mock providers.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// NewDatabase opens the storage at filePath and wires the AI services.
// An empty filePath opens an in-memory database.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, filePath == "")
	if err != nil {
		return nil, err
	}

	messageRepo, err := badger.NewMessageRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	checkpointRepo := badger.NewCheckpointRepository(backend)
	documentRepo := badger.NewDocumentRepository(backend)
	vectorRepo := badger.NewVectorRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			messageRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:        backend,
		checkpointRepo: checkpointRepo,
		messageRepo:    messageRepo,
		documentRepo:   documentRepo,
		vectorRepo:     vectorRepo,
		provider:       provider,
		store:          vectorstore.NewStore(vectorRepo, provider.Embedder()),
		logger:         slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.messageRepo.Close(); err != nil {
		db.logger.Error("error closing message repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

func (db *Database) MessageRepository() storage.MessageRepository {
	return db.messageRepo
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.documentRepo
}

func (db *Database) VectorStore() *vectorstore.Store {
	return db.store
}

func (db *Database) NewCheckpointManager() *checkpoint.Manager {
	return checkpoint.NewManager(db.checkpointRepo, db.messageRepo, db.store)
}

func (db *Database) NewEngine(opts ...engine.Option) *engine.Engine {
	return engine.NewEngine(db.store, db.checkpointRepo, db.messageRepo, db.provider.Completer(), opts...)
}

func (db *Database) NewIngestionPipeline() (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.store, db.documentRepo)
}

func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.vectorRepo, db.provider.Embedder(), config, progress)
}
