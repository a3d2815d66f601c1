package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
)

// MessageRepository implements storage.MessageRepository for BadgerDB.
//
// Messages are keyed by (version, sequence). The sequence is global and
// monotonic, so per-checkpoint key order is insertion order and the most
// recent message is always the last key under the version's prefix.
type MessageRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(backend *Backend) (*MessageRepository, error) {
	idSeq, err := backend.GetSequence(messageIDSeq)
	if err != nil {
		return nil, err
	}

	return &MessageRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *MessageRepository) Close() error {
	return r.idSeq.Release()
}

// AppendMessages appends messages in order, assigning sequence IDs and
// timestamps.
func (r *MessageRepository) AppendMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, message := range messages {
			if err := core.ValidateMessage(message); err != nil {
				return err
			}

			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			message.ID = core.ID(nextID)
			message.Timestamp = time.Now().UTC()

			key := makeMessageKey(message.CheckpointVersion, message.ID)
			value, err := storage.MarshalMessage(message)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return messages, err
}

// RecentMessages returns up to limit most recent messages for a
// checkpoint, oldest first.
func (r *MessageRepository) RecentMessages(ctx context.Context, version string, limit int) ([]*core.Message, error) {
	if limit <= 0 {
		return []*core.Message{}, nil
	}

	var newestFirst []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := makeMessageScanPrefix(version)
		// Seek past the last possible key under the prefix.
		seekKey := append(append([]byte{}, prefix...), 0xFF)

		for iter.Seek(seekKey); iter.Valid() && len(newestFirst) < limit; iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}

			var message *core.Message
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				message, unmarshalErr = storage.UnmarshalMessage(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			newestFirst = append(newestFirst, message)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order
	oldestFirst := make([]*core.Message, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		oldestFirst = append(oldestFirst, newestFirst[i])
	}
	return oldestFirst, nil
}

// DeleteLatestMessage removes the single most recent message for a
// checkpoint and returns it.
func (r *MessageRepository) DeleteLatestMessage(ctx context.Context, version string) (*core.Message, error) {
	var deleted *core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)

		prefix := makeMessageScanPrefix(version)
		seekKey := append(append([]byte{}, prefix...), 0xFF)

		iter.Seek(seekKey)
		if !iter.Valid() || !bytes.HasPrefix(iter.Item().Key(), prefix) {
			iter.Close()
			return storage.ErrNotFound
		}

		var message *core.Message
		err := iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			message, unmarshalErr = storage.UnmarshalMessage(val)
			return unmarshalErr
		})
		if err != nil {
			iter.Close()
			return err
		}

		key := append([]byte{}, iter.Item().Key()...)
		// The iterator must be closed before the transaction commits.
		iter.Close()

		if err := tx.Delete(key); err != nil {
			return err
		}

		deleted = message
		return tx.Commit()
	}, true)
	return deleted, err
}

// CountMessages returns the number of messages logged for a checkpoint.
func (r *MessageRepository) CountMessages(ctx context.Context, version string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeMessageScanPrefix(version)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}
