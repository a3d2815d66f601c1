package badger

import (
	"bytes"
	"testing"

	"github.com/poiesic/revenant/core"
)

func TestMessageKeyOrder(t *testing.T) {
	// Lexicographic key order must match numeric sequence order, so
	// iteration walks the log in insertion order
	previous := makeMessageKey("0.1", 1)
	for _, id := range []uint64{2, 9, 10, 255, 256, 70000} {
		key := makeMessageKey("0.1", core.ID(id))
		if bytes.Compare(previous, key) >= 0 {
			t.Fatalf("Key for id %d does not sort after its predecessor", id)
		}
		previous = key
	}
}

func TestMessageKeyHasScanPrefix(t *testing.T) {
	key := makeMessageKey("0.1", 42)
	if !bytes.HasPrefix(key, makeMessageScanPrefix("0.1")) {
		t.Fatalf("Message key %q missing scan prefix", key)
	}
}
