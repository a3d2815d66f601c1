package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedTextDeterministic(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	first, err := embedder.EmbedText(ctx, "the same text")
	require.NoError(t, err)
	second, err := embedder.EmbedText(ctx, "the same text")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := embedder.EmbedText(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
	assert.Equal(t, 3, embedder.CallCount())
}

func TestEmbedTextUnitNorm(t *testing.T) {
	embedder := NewMockEmbedder()

	vector, err := embedder.EmbedText(context.Background(), "some archive text")
	require.NoError(t, err)
	require.Len(t, vector, 384)

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-4)
}

func TestEmbedTextsMatchesEmbedText(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	single, err := embedder.EmbedText(ctx, "alpha")
	require.NoError(t, err)

	batch, err := embedder.EmbedTexts(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, single, batch[0])
	assert.NotEqual(t, batch[0], batch[1])
}
