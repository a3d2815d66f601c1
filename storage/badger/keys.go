package badger

import (
	"fmt"

	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
)

// Key prefixes for different data types
const (
	checkpointPrefix    = "ckpt"
	activeCheckpointKey = "ckptactive"
	messagePrefix       = "msg"
	messageIDSeq        = "msgseq"
	documentPrefix      = "srcdoc"
	collectionPrefix    = "veccol"
	entryPrefix         = "vecent"
)

// makeCheckpointKey generates a key for a checkpoint record by version.
func makeCheckpointKey(version string) []byte {
	return []byte(fmt.Sprintf("%s:%s", checkpointPrefix, version))
}

// makeMessageKey generates a composite key for a message.
// Format: prefix:version:sequence, with the sequence encoded via
// storage.MarshalID so lexicographic key order matches insertion order.
func makeMessageKey(version string, id core.ID) []byte {
	prefix := []byte(messagePrefix + ":" + version + ":")
	return append(prefix, storage.MarshalID(id)...)
}

// makeMessageScanPrefix generates the iteration prefix for one
// checkpoint's message log.
func makeMessageScanPrefix(version string) []byte {
	return []byte(messagePrefix + ":" + version + ":")
}

// makeDocumentKey generates a key for a source document row.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeCollectionKey generates the registry key for a collection.
func makeCollectionKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionPrefix, name))
}

// makeEntryKey generates a key for an embedding entry within a collection.
func makeEntryKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", entryPrefix, collection, id))
}

// makeEntryScanPrefix generates the iteration prefix for a collection's
// entries.
func makeEntryScanPrefix(collection string) []byte {
	return []byte(entryPrefix + ":" + collection + ":")
}
