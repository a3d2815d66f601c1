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


package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/poiesic/revenant/core"
)

// Records carry open string-keyed config/metadata maps, so values are
// encoded as JSON rather than a fixed-shape binary format.

// MarshalID serializes an ID to 8 big-endian bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("%w: id needs 8 bytes, got %d", ErrSerializationFailed, len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
// The IsActive flag is NOT stored with the record; activity is held in a
// single active-pointer key so the single-active invariant cannot drift.
func MarshalCheckpoint(checkpoint *core.Checkpoint) ([]byte, error) {
	return marshal(checkpoint)
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	return unmarshal[core.Checkpoint](data)
}

// MarshalMessage serializes a Message to bytes.
func MarshalMessage(message *core.Message) ([]byte, error) {
	return marshal(message)
}

// UnmarshalMessage deserializes a Message from bytes.
func UnmarshalMessage(data []byte) (*core.Message, error) {
	return unmarshal[core.Message](data)
}

// MarshalSourceDocument serializes a SourceDocument to bytes.
func MarshalSourceDocument(document *core.SourceDocument) ([]byte, error) {
	return marshal(document)
}

// UnmarshalSourceDocument deserializes a SourceDocument from bytes.
func UnmarshalSourceDocument(data []byte) (*core.SourceDocument, error) {
	return unmarshal[core.SourceDocument](data)
}

// MarshalEmbeddingEntry serializes an EmbeddingEntry to bytes.
func MarshalEmbeddingEntry(entry *core.EmbeddingEntry) ([]byte, error) {
	return marshal(entry)
}

// UnmarshalEmbeddingEntry deserializes an EmbeddingEntry from bytes.
func UnmarshalEmbeddingEntry(data []byte) (*core.EmbeddingEntry, error) {
	return unmarshal[core.EmbeddingEntry](data)
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshal[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return &v, nil
}
