package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored rows.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser is the operator talking to the ghost.
	RoleUser Role = "user"
	// RoleAssistant is the generated persona.
	RoleAssistant Role = "assistant"
	// RoleSystem is reserved for injected instructions.
	RoleSystem Role = "system"
)

// Checkpoint is a named, independently configured snapshot of persona
// behavior: its own config, embedded corpus, and conversation history.
// At most one checkpoint is active at any time.
type Checkpoint struct {
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"` // Opaque tuning knobs, JSON-serialized at rest
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"` // Immutable after creation
	IsActive    bool           `json:"is_active"`
}

// Message is a single conversation turn belonging to a checkpoint.
// Messages are appended by the response engine and only ever removed
// as part of regeneration.
type Message struct {
	ID                ID
	CheckpointVersion string
	Role              Role
	Content           string
	Timestamp         time.Time
}

// SourceDocument is one ingested chunk of archived writing. Rows are
// immutable once created and carry the embedding-store id of the chunk
// for cross-reference.
type SourceDocument struct {
	ID          ID
	SourceType  string // text, message, email, ...
	Content     string
	Metadata    map[string]any
	IngestedAt  time.Time
	EmbeddingID string
}

// EmbeddingEntry is a (text, vector, metadata) triple inside a
// checkpoint's collection. The id is unique within the collection.
type EmbeddingEntry struct {
	ID       string
	Document string
	Vector   []float32
	Metadata map[string]any
}

// QueryMatch is a single ranked result from a vector-store query.
// Distance uses cosine semantics: 0 is identical, larger is less similar.
type QueryMatch struct {
	Document string
	Metadata map[string]any
	Distance float32
}

// Source is a retrieved chunk as surfaced to callers alongside a
// generated response. Relevance is 1 - distance.
type Source struct {
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	Relevance float32        `json:"relevance"`
}
