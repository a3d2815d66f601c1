package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/revenant/ai/mock"
	"github.com/poiesic/revenant/core"
	badgerstore "github.com/poiesic/revenant/storage/badger"
	"github.com/poiesic/revenant/vectorstore"
)

func TestNormalizeVector(t *testing.T) {
	t.Run("normalizes to unit length", func(t *testing.T) {
		result := NormalizeVector([]float32{3, 4})

		var magnitude float32
		for _, v := range result {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, magnitude, 0.0001)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		result := NormalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, result)
	})

	t.Run("empty vector", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
	})
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return nil
		}, 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after retries", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}, 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		failure := errors.New("permanent")
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return failure
		}, 3, time.Millisecond)
		assert.ErrorIs(t, err, failure)
		assert.Equal(t, 3, calls)
	})

	t.Run("invalid attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return nil }, 0, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := RetryWithBackoff(cancelled, func() error { return errors.New("nope") }, 3, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReembedderRun(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	collection := vectorstore.CollectionName("0.1")

	entries := []*core.EmbeddingEntry{
		{ID: "doc_0", Document: "first", Vector: []float32{9, 9}},
		{ID: "doc_1", Document: "second", Vector: []float32{9, 9}},
		{ID: "doc_2", Document: "third", Vector: []float32{9, 9}},
	}
	require.NoError(t, repos.Vectors.AddEntries(ctx, collection, entries...))

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{3, 4}
		}
		return vectors, nil
	}

	var progress bytes.Buffer
	reembedder, err := NewReembedder(repos.Vectors, embedder, &Config{
		BatchSize:  2,
		Workers:    2,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}, &progress)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(ctx, "0.1"))

	updated, err := repos.Vectors.ListEntries(ctx, collection)
	require.NoError(t, err)
	require.Len(t, updated, 3)
	for _, entry := range updated {
		// New vectors are normalized {3,4} -> {0.6,0.8}
		assert.InDelta(t, 0.6, entry.Vector[0], 0.0001)
		assert.InDelta(t, 0.8, entry.Vector[1], 0.0001)
		assert.NotEmpty(t, entry.Document)
	}
	assert.Contains(t, progress.String(), "Reembedding complete")
}

func TestReembedderEmptyCollection(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	var progress bytes.Buffer
	reembedder, err := NewReembedder(repos.Vectors, mock.NewMockEmbedder(), nil, &progress)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(context.Background(), "0.1"))
	assert.Contains(t, progress.String(), "nothing to reembed")
}

func TestReembedderEmbeddingFailure(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	collection := vectorstore.CollectionName("0.1")
	require.NoError(t, repos.Vectors.AddEntries(ctx, collection,
		&core.EmbeddingEntry{ID: "doc_0", Document: "text", Vector: []float32{1}},
	))

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service down")
	}

	reembedder, err := NewReembedder(repos.Vectors, embedder, &Config{
		BatchSize:  10,
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, nil)
	require.NoError(t, err)

	err = reembedder.Run(ctx, "0.1")
	assert.ErrorContains(t, err, "service down")
}

func TestNewReembedderValidation(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	_, err = NewReembedder(nil, mock.NewMockEmbedder(), nil, nil)
	assert.ErrorIs(t, err, ErrVectorRepositoryRequired)

	_, err = NewReembedder(repos.Vectors, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
