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

package badger

// MemoryRepositories bundles in-memory repositories for testing.
// Caller must Close when done.
type MemoryRepositories struct {
	Checkpoints *CheckpointRepository
	Messages    *MessageRepository
	Documents   *DocumentRepository
	Vectors     *VectorRepository
	Backend     *Backend
}

// Close releases the message sequence and the backing store.
func (m *MemoryRepositories) Close() {
	m.Messages.Close()
	m.Backend.Close()
}

// NewMemoryRepositories creates in-memory repositories for testing.
func NewMemoryRepositories() (*MemoryRepositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	messageRepo, err := NewMessageRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &MemoryRepositories{
		Checkpoints: NewCheckpointRepository(backend),
		Messages:    messageRepo,
		Documents:   NewDocumentRepository(backend),
		Vectors:     NewVectorRepository(backend),
		Backend:     backend,
	}, nil
}
