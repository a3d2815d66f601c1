package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/revenant/ai/mock"
	"github.com/poiesic/revenant/core"
	badgerstore "github.com/poiesic/revenant/storage/badger"
	"github.com/poiesic/revenant/vectorstore"
)

func newTestManager(t *testing.T) (*Manager, *vectorstore.Store, *badgerstore.MemoryRepositories) {
	t.Helper()

	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(repos.Close)

	store := vectorstore.NewStore(repos.Vectors, mock.NewMockEmbedder())
	return NewManager(repos.Checkpoints, repos.Messages, store), store, repos
}

func TestCreateAndGet(t *testing.T) {
	manager, _, _ := newTestManager(t)
	ctx := context.Background()

	created, err := manager.Create(ctx, "0.1", "first import", map[string]any{"personality_note": "dry"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.1", created.Version)
	assert.False(t, created.CreatedAt.IsZero())

	retrieved, err := manager.Get(ctx, "0.1")
	require.NoError(t, err)
	assert.Equal(t, "first import", retrieved.Description)
}

func TestCreateValidation(t *testing.T) {
	manager, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Create(ctx, "", "empty", nil, nil)
	assert.ErrorIs(t, err, core.ErrEmptyVersion)

	_, err = manager.Create(ctx, "0.1", "first", nil, nil)
	require.NoError(t, err)

	_, err = manager.Create(ctx, "0.1", "again", nil, nil)
	assert.ErrorIs(t, err, core.ErrDuplicateVersion)

	// "0_1" would share the "0.1" collection after normalization
	_, err = manager.Create(ctx, "0_1", "collides", nil, nil)
	assert.ErrorIs(t, err, core.ErrDuplicateVersion)
}

func TestActivationScenario(t *testing.T) {
	manager, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Create(ctx, "0.1", "first", nil, nil)
	require.NoError(t, err)
	require.NoError(t, manager.Activate(ctx, "0.1"))

	_, err = manager.Create(ctx, "0.2", "second", nil, nil)
	require.NoError(t, err)
	require.NoError(t, manager.Activate(ctx, "0.2"))

	active, err := manager.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "0.2", active.Version)

	first, err := manager.Get(ctx, "0.1")
	require.NoError(t, err)
	assert.False(t, first.IsActive)
}

func TestActivateUnknown(t *testing.T) {
	manager, _, _ := newTestManager(t)

	err := manager.Activate(context.Background(), "9.9")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateConfig(t *testing.T) {
	manager, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Create(ctx, "0.1", "first", map[string]any{"personality_note": "dry"}, nil)
	require.NoError(t, err)

	require.NoError(t, manager.UpdateConfig(ctx, "0.1", map[string]any{"temperature_note": "short replies"}))

	retrieved, err := manager.Get(ctx, "0.1")
	require.NoError(t, err)
	assert.Equal(t, "short replies", retrieved.Config["temperature_note"])
	assert.NotContains(t, retrieved.Config, "personality_note")

	err = manager.UpdateConfig(ctx, "9.9", map[string]any{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteRemovesCollection(t *testing.T) {
	manager, store, _ := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Create(ctx, "0.1", "first", nil, nil)
	require.NoError(t, err)

	_, err = store.AddDocuments(ctx, "0.1", vectorstore.Document{ID: "doc_0", Text: "archived text"})
	require.NoError(t, err)

	require.NoError(t, manager.Delete(ctx, "0.1"))

	checkpoints, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, checkpoints)

	count, err := store.Count(ctx, "0.1")
	require.NoError(t, err)
	assert.Zero(t, count)

	err = manager.Delete(ctx, "0.1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStats(t *testing.T) {
	manager, store, repos := newTestManager(t)
	ctx := context.Background()

	_, err := manager.Create(ctx, "0.1", "first", nil, nil)
	require.NoError(t, err)

	_, err = store.AddDocuments(ctx, "0.1",
		vectorstore.Document{ID: "doc_0", Text: "one"},
		vectorstore.Document{ID: "doc_1", Text: "two"},
	)
	require.NoError(t, err)

	_, err = repos.Messages.AppendMessages(ctx,
		&core.Message{CheckpointVersion: "0.1", Role: core.RoleUser, Content: "hi"},
		&core.Message{CheckpointVersion: "0.1", Role: core.RoleAssistant, Content: "hello"},
		&core.Message{CheckpointVersion: "0.1", Role: core.RoleUser, Content: "again"},
	)
	require.NoError(t, err)

	stats, err := manager.Stats(ctx, "0.1")
	require.NoError(t, err)
	assert.Equal(t, "0.1", stats.CheckpointVersion)
	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, 1, stats.ConversationCount)
	assert.Equal(t, 2, stats.DocumentChunks)

	_, err = manager.Stats(ctx, "9.9")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
