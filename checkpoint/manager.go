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

package checkpoint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
	"github.com/poiesic/revenant/vectorstore"
)

// Stats summarizes one checkpoint's accumulated state.
type Stats struct {
	CheckpointVersion string `json:"checkpoint_version"`
	TotalMessages     int    `json:"total_messages"`
	ConversationCount int    `json:"conversation_count"`
	DocumentChunks    int    `json:"document_chunks"`
}

// Manager owns the checkpoint lifecycle. A checkpoint couples a record in
// storage with an embedding collection in the vector store; the manager
// keeps the two in step.
type Manager struct {
	checkpoints storage.CheckpointRepository
	messages    storage.MessageRepository
	store       *vectorstore.Store
	logger      *slog.Logger
}

// NewManager creates a checkpoint manager.
func NewManager(checkpoints storage.CheckpointRepository, messages storage.MessageRepository, store *vectorstore.Store) *Manager {
	return &Manager{
		checkpoints: checkpoints,
		messages:    messages,
		store:       store,
		logger:      slog.Default().With("component", "checkpoint"),
	}
}

// Create registers a new checkpoint version. Versions whose normalized
// collection names collide (such as "0.1" and "0_1") are rejected as
// duplicates, since they would share an embedding collection.
func (m *Manager) Create(ctx context.Context, version, description string, config, metadata map[string]any) (*core.Checkpoint, error) {
	if version == "" {
		return nil, core.ErrEmptyVersion
	}

	existing, err := m.checkpoints.ListCheckpoints(ctx)
	if err != nil {
		return nil, err
	}
	collection := vectorstore.CollectionName(version)
	for _, other := range existing {
		if vectorstore.CollectionName(other.Version) == collection {
			return nil, fmt.Errorf("%w: %q collides with existing version %q", core.ErrDuplicateVersion, version, other.Version)
		}
	}

	checkpoint := &core.Checkpoint{
		Version:     version,
		Description: description,
		Config:      config,
		Metadata:    metadata,
	}
	if err := m.checkpoints.CreateCheckpoint(ctx, checkpoint); err != nil {
		return nil, err
	}

	m.logger.Info("created checkpoint", "version", version)
	return checkpoint, nil
}

// Get returns a checkpoint by version.
func (m *Manager) Get(ctx context.Context, version string) (*core.Checkpoint, error) {
	return m.checkpoints.GetCheckpoint(ctx, version)
}

// List returns all checkpoints, newest first.
func (m *Manager) List(ctx context.Context) ([]*core.Checkpoint, error) {
	return m.checkpoints.ListCheckpoints(ctx)
}

// Activate makes the given checkpoint the single active one.
func (m *Manager) Activate(ctx context.Context, version string) error {
	if err := m.checkpoints.ActivateCheckpoint(ctx, version); err != nil {
		return err
	}
	m.logger.Info("activated checkpoint", "version", version)
	return nil
}

// GetActive returns the active checkpoint, or nil, nil if none is set.
func (m *Manager) GetActive(ctx context.Context) (*core.Checkpoint, error) {
	return m.checkpoints.GetActiveCheckpoint(ctx)
}

// UpdateConfig replaces a checkpoint's persona config wholesale.
func (m *Manager) UpdateConfig(ctx context.Context, version string, config map[string]any) error {
	if err := m.checkpoints.UpdateCheckpointConfig(ctx, version, config); err != nil {
		return err
	}
	m.logger.Info("updated checkpoint config", "version", version)
	return nil
}

// Delete removes a checkpoint and its embedding collection. The
// collection goes first: if that fails the record is kept, so a retry
// can finish the job. Source document rows are an audit log and are not
// touched.
func (m *Manager) Delete(ctx context.Context, version string) error {
	if _, err := m.checkpoints.GetCheckpoint(ctx, version); err != nil {
		return err
	}

	if err := m.store.DeleteCollection(ctx, version); err != nil {
		return fmt.Errorf("deleting collection for %s: %w", version, err)
	}

	if err := m.checkpoints.DeleteCheckpoint(ctx, version); err != nil {
		return err
	}

	m.logger.Info("deleted checkpoint", "version", version)
	return nil
}

// Stats reports message and archive counts for a checkpoint.
func (m *Manager) Stats(ctx context.Context, version string) (*Stats, error) {
	if _, err := m.checkpoints.GetCheckpoint(ctx, version); err != nil {
		return nil, err
	}

	messageCount, err := m.messages.CountMessages(ctx, version)
	if err != nil {
		return nil, err
	}

	chunkCount, err := m.store.Count(ctx, version)
	if err != nil {
		return nil, err
	}

	return &Stats{
		CheckpointVersion: version,
		TotalMessages:     messageCount,
		// A conversation is one user turn plus one reply
		ConversationCount: messageCount / 2,
		DocumentChunks:    chunkCount,
	}, nil
}
