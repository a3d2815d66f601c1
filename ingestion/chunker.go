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

import "strings"

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is how many characters consecutive chunks share.
	DefaultChunkOverlap = 200
)

// Chunker splits text into overlapping chunks, preferring to break at
// sentence boundaries.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker creates a Chunker with the default size and overlap.
func NewChunker() *Chunker {
	return &Chunker{
		Size:    DefaultChunkSize,
		Overlap: DefaultChunkOverlap,
	}
}

// Chunk splits text into overlapping chunks. Each chunk ends at the last
// period or newline past the chunk's midpoint when one exists, otherwise
// at the size limit. Chunks are whitespace-trimmed and empty chunks are
// dropped, so whitespace-only input yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	chunks := []string{}
	runes := []rune(text)
	textLen := len(runes)

	start := 0
	for start < textLen {
		end := start + c.Size
		if end > textLen {
			end = textLen
		}
		chunk := runes[start:end]

		// Break at a sentence boundary when one lands past the midpoint
		if end < textLen {
			breakPoint := lastBoundary(chunk)
			if breakPoint > c.Size/2 {
				chunk = chunk[:breakPoint+1]
				end = start + breakPoint + 1
			}
		}

		if trimmed := strings.TrimSpace(string(chunk)); trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		next := end - c.Overlap
		if end >= textLen {
			break
		}
		// Degenerate size/overlap settings must still make progress
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// lastBoundary returns the index of the last period or newline in the
// chunk, or -1 if none.
func lastBoundary(chunk []rune) int {
	for i := len(chunk) - 1; i >= 0; i-- {
		if chunk[i] == '.' || chunk[i] == '\n' {
			return i
		}
	}
	return -1
}
