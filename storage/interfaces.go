package storage

import (
	"context"

	"github.com/poiesic/revenant/core"
)

// CheckpointRepository provides lifecycle operations for checkpoint records.
// Implementations must guarantee that at most one checkpoint is active at
// any time, across all operations.
type CheckpointRepository interface {
	// CreateCheckpoint inserts a new checkpoint with IsActive=false.
	// Returns core.ErrDuplicateVersion if the version already exists;
	// the existing record is left unchanged.
	CreateCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// GetCheckpoint retrieves a checkpoint by version.
	// Returns core.ErrNotFound if the version does not exist.
	GetCheckpoint(ctx context.Context, version string) (*core.Checkpoint, error)

	// ListCheckpoints returns all checkpoints, newest first.
	ListCheckpoints(ctx context.Context) ([]*core.Checkpoint, error)

	// ActivateCheckpoint deactivates every checkpoint and activates the
	// target, atomically. Returns core.ErrNotFound if the version does
	// not exist; no checkpoint changes activity in that case.
	ActivateCheckpoint(ctx context.Context, version string) error

	// GetActiveCheckpoint returns the active checkpoint, or nil, nil if
	// none is active. Having no active checkpoint is a valid state.
	GetActiveCheckpoint(ctx context.Context) (*core.Checkpoint, error)

	// UpdateCheckpointConfig replaces a checkpoint's config wholesale.
	// Returns core.ErrNotFound if the version does not exist.
	UpdateCheckpointConfig(ctx context.Context, version string, config map[string]any) error

	// DeleteCheckpoint removes the checkpoint record. If the checkpoint
	// was active, no checkpoint is active afterwards.
	// Returns core.ErrNotFound if the version does not exist.
	DeleteCheckpoint(ctx context.Context, version string) error
}

// MessageRepository provides the ordered per-checkpoint conversation log.
type MessageRepository interface {
	// AppendMessages appends messages in order, assigning sequence IDs
	// and timestamps. The assigned order is monotonic per insert.
	// Returns the messages with IDs and timestamps populated.
	AppendMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error)

	// RecentMessages returns up to limit most recent messages for a
	// checkpoint, oldest first.
	RecentMessages(ctx context.Context, version string, limit int) ([]*core.Message, error)

	// DeleteLatestMessage removes the single most recent message for a
	// checkpoint. Returns storage.ErrNotFound if the log is empty.
	DeleteLatestMessage(ctx context.Context, version string) (*core.Message, error)

	// CountMessages returns the number of messages logged for a checkpoint.
	CountMessages(ctx context.Context, version string) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// DocumentRepository is the durable append-only log of ingested chunks.
type DocumentRepository interface {
	// AppendDocuments stores source documents, assigning content-derived
	// IDs and ingestion timestamps where missing.
	AppendDocuments(ctx context.Context, documents ...*core.SourceDocument) ([]*core.SourceDocument, error)

	// ListDocuments returns up to limit stored documents (no ordering
	// guarantee beyond insertion key order).
	ListDocuments(ctx context.Context, limit int) ([]*core.SourceDocument, error)
}

// VectorRepository stores per-collection embedding entries and answers
// nearest-neighbor queries by cosine distance.
type VectorRepository interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, name string, metadata map[string]any) error

	// AddEntries inserts entries into a collection, creating the
	// collection if needed. Entries already inserted stay committed if a
	// later entry in the same call fails.
	AddEntries(ctx context.Context, collection string, entries ...*core.EmbeddingEntry) error

	// QueryCollection returns up to limit entries nearest to vector,
	// ranked by ascending cosine distance. An empty or missing collection
	// yields an empty result, not an error.
	QueryCollection(ctx context.Context, collection string, vector []float32, limit int) ([]*core.QueryMatch, error)

	// CountEntries returns the number of entries in a collection.
	CountEntries(ctx context.Context, collection string) (int, error)

	// ListEntries returns every entry of a collection.
	ListEntries(ctx context.Context, collection string) ([]*core.EmbeddingEntry, error)

	// UpdateEntryVectors overwrites the vectors of existing entries.
	UpdateEntryVectors(ctx context.Context, collection string, entries ...*core.EmbeddingEntry) error

	// DeleteCollection removes a collection and all of its entries.
	// Deleting a collection that does not exist is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)
}
