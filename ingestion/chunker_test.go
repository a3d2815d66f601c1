package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmpty(t *testing.T) {
	chunker := NewChunker()

	assert.Empty(t, chunker.Chunk(""))
	assert.Empty(t, chunker.Chunk("   \n\t  "))
}

func TestChunkShortText(t *testing.T) {
	chunker := NewChunker()

	chunks := chunker.Chunk("  A single short thought.  ")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A single short thought.", chunks[0])
}

func TestChunkLongUniformText(t *testing.T) {
	chunker := NewChunker()

	// 2500 characters with no sentence boundaries forces hard splits
	text := strings.Repeat("a", 2500)
	chunks := chunker.Chunk(text)

	assert.GreaterOrEqual(t, len(chunks), 3)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), DefaultChunkSize, "chunk %d too long", i)
		assert.NotEmpty(t, chunk)
	}
}

func TestChunkBreaksAtSentence(t *testing.T) {
	chunker := NewChunker()

	// A period lands past the midpoint of the first chunk
	first := strings.Repeat("b", 800) + "."
	text := first + " " + strings.Repeat("c", 900)
	chunks := chunker.Chunk(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, first, chunks[0])
}

func TestChunkIgnoresEarlyBoundary(t *testing.T) {
	chunker := NewChunker()

	// The only period sits before the midpoint, so the split is at the
	// size limit instead
	text := strings.Repeat("d", 100) + "." + strings.Repeat("e", 1400)
	chunks := chunker.Chunk(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Len(t, chunks[0], DefaultChunkSize)
}

func TestChunkOverlap(t *testing.T) {
	chunker := NewChunker()

	text := strings.Repeat("f", 1600)
	chunks := chunker.Chunk(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	// Consecutive chunks share the overlap region
	tail := chunks[0][len(chunks[0])-DefaultChunkOverlap:]
	assert.True(t, strings.HasPrefix(chunks[1], tail))
}

func TestChunkReconstructsText(t *testing.T) {
	chunker := NewChunker()

	// Mixed sentence lengths so some splits land on boundaries and some
	// on the size limit
	text := strings.Repeat(
		"The bees worked the clover all morning. Rain held off until dusk. "+
			strings.Repeat("h", 300)+". ",
		12,
	)
	chunks := chunker.Chunk(text)
	require.GreaterOrEqual(t, len(chunks), 2)

	// Dropping each chunk's declared overlap prefix and concatenating the
	// rest must recover most of the original: chunking may trim whitespace
	// but never loses characters beyond the overlap
	reconstructed := len(chunks[0])
	for _, chunk := range chunks[1:] {
		suffix := len(chunk) - DefaultChunkOverlap
		if suffix < 0 {
			suffix = 0
		}
		reconstructed += suffix
	}
	assert.GreaterOrEqual(t, float64(reconstructed), 0.8*float64(len(text)))
}

func TestChunkDegenerateSettings(t *testing.T) {
	// Overlap >= size must not loop forever
	chunker := &Chunker{Size: 10, Overlap: 10}

	chunks := chunker.Chunk(strings.Repeat("g", 50))
	assert.NotEmpty(t, chunks)
}
