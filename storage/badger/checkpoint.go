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

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
)

// CheckpointRepository implements storage.CheckpointRepository for BadgerDB.
//
// Activity is not stored on the checkpoint record. A single pointer key
// names the active version, so "deactivate all, then activate one" is one
// key write inside one transaction and the single-active invariant holds
// structurally.
type CheckpointRepository struct {
	backend *Backend
}

var _ storage.CheckpointRepository = (*CheckpointRepository)(nil)

// NewCheckpointRepository creates a new CheckpointRepository.
func NewCheckpointRepository(backend *Backend) *CheckpointRepository {
	return &CheckpointRepository{
		backend: backend,
	}
}

// CreateCheckpoint inserts a new checkpoint with IsActive=false.
func (r *CheckpointRepository) CreateCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCheckpointKey(checkpoint.Version)

		_, err := tx.Get(key)
		if err == nil {
			return core.ErrDuplicateVersion
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		if checkpoint.CreatedAt.IsZero() {
			checkpoint.CreatedAt = time.Now().UTC()
		}
		checkpoint.IsActive = false

		value, err := storage.MarshalCheckpoint(checkpoint)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetCheckpoint retrieves a checkpoint by version.
func (r *CheckpointRepository) GetCheckpoint(ctx context.Context, version string) (*core.Checkpoint, error) {
	var result *core.Checkpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		checkpoint, err := readCheckpoint(tx, version)
		if err != nil {
			return err
		}
		if checkpoint == nil {
			return core.ErrNotFound
		}

		active, err := readActiveVersion(tx)
		if err != nil {
			return err
		}
		checkpoint.IsActive = active == checkpoint.Version
		result = checkpoint
		return nil
	}, false)
	return result, err
}

// ListCheckpoints returns all checkpoints, newest first.
func (r *CheckpointRepository) ListCheckpoints(ctx context.Context) ([]*core.Checkpoint, error) {
	var results []*core.Checkpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		active, err := readActiveVersion(tx)
		if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(checkpointPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var checkpoint *core.Checkpoint
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				checkpoint, unmarshalErr = storage.UnmarshalCheckpoint(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			checkpoint.IsActive = active == checkpoint.Version
			results = append(results, checkpoint)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Checkpoint) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return results, nil
}

// ActivateCheckpoint atomically makes the target checkpoint the only
// active one.
func (r *CheckpointRepository) ActivateCheckpoint(ctx context.Context, version string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		checkpoint, err := readCheckpoint(tx, version)
		if err != nil {
			return err
		}
		if checkpoint == nil {
			return core.ErrNotFound
		}

		if err := tx.Set([]byte(activeCheckpointKey), []byte(version)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetActiveCheckpoint returns the active checkpoint, or nil, nil if none.
func (r *CheckpointRepository) GetActiveCheckpoint(ctx context.Context) (*core.Checkpoint, error) {
	var result *core.Checkpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		active, err := readActiveVersion(tx)
		if err != nil {
			return err
		}
		if active == "" {
			return nil
		}

		checkpoint, err := readCheckpoint(tx, active)
		if err != nil {
			return err
		}
		if checkpoint == nil {
			// Stale pointer to a deleted checkpoint; treat as none active.
			return nil
		}
		checkpoint.IsActive = true
		result = checkpoint
		return nil
	}, false)
	return result, err
}

// UpdateCheckpointConfig replaces a checkpoint's config wholesale.
func (r *CheckpointRepository) UpdateCheckpointConfig(ctx context.Context, version string, config map[string]any) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		checkpoint, err := readCheckpoint(tx, version)
		if err != nil {
			return err
		}
		if checkpoint == nil {
			return core.ErrNotFound
		}

		checkpoint.Config = config

		value, err := storage.MarshalCheckpoint(checkpoint)
		if err != nil {
			return err
		}
		if err := tx.Set(makeCheckpointKey(version), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteCheckpoint removes the checkpoint record, clearing the active
// pointer if it names this version.
func (r *CheckpointRepository) DeleteCheckpoint(ctx context.Context, version string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		checkpoint, err := readCheckpoint(tx, version)
		if err != nil {
			return err
		}
		if checkpoint == nil {
			return core.ErrNotFound
		}

		active, err := readActiveVersion(tx)
		if err != nil {
			return err
		}
		if active == version {
			if err := tx.Delete([]byte(activeCheckpointKey)); err != nil {
				return err
			}
		}

		if err := tx.Delete(makeCheckpointKey(version)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readCheckpoint reads a checkpoint record inside a transaction.
// Returns nil, nil if the record does not exist.
func readCheckpoint(tx *badger.Txn, version string) (*core.Checkpoint, error) {
	item, err := tx.Get(makeCheckpointKey(version))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var checkpoint *core.Checkpoint
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		checkpoint, unmarshalErr = storage.UnmarshalCheckpoint(val)
		return unmarshalErr
	})
	return checkpoint, err
}

// readActiveVersion reads the active-pointer key inside a transaction.
// Returns "" if no checkpoint is active.
func readActiveVersion(tx *badger.Txn) (string, error) {
	item, err := tx.Get([]byte(activeCheckpointKey))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return "", nil
		}
		return "", err
	}

	var version string
	err = item.Value(func(val []byte) error {
		version = string(val)
		return nil
	})
	return version, err
}
