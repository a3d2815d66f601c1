package revenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/revenant/ai/mock"
	"github.com/poiesic/revenant/vectorstore"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase("", WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseEndToEnd(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	manager := db.NewCheckpointManager()
	_, err := manager.Create(ctx, "0.1", "first import", map[string]any{"personality_note": "dry"}, nil)
	require.NoError(t, err)
	require.NoError(t, manager.Activate(ctx, "0.1"))

	// Ingest some archive text directly; the pipeline wraps this
	_, err = db.VectorStore().AddDocuments(ctx, "0.1",
		vectorstore.Document{ID: "doc_0", Text: "I kept bees behind the barn."},
	)
	require.NoError(t, err)

	ghost := db.NewEngine()
	result, err := ghost.Generate(ctx, "", "Tell me something")
	require.NoError(t, err)
	assert.Equal(t, "0.1", result.CheckpointVersion)
	assert.NotEmpty(t, result.Response)

	history, err := db.MessageRepository().RecentMessages(ctx, "0.1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	stats, err := manager.Stats(ctx, "0.1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalMessages)
}

func TestDatabaseConstructors(t *testing.T) {
	db := newTestDatabase(t)

	assert.NotNil(t, db.CheckpointRepository())
	assert.NotNil(t, db.MessageRepository())
	assert.NotNil(t, db.DocumentRepository())
	assert.NotNil(t, db.VectorStore())

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	assert.NotNil(t, pipeline)

	reembedder, err := db.NewReembedder(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, reembedder)
}
