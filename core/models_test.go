package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContentDeterministic(t *testing.T) {
	a := IDFromContent("some chunk of text")
	b := IDFromContent("some chunk of text")
	c := IDFromContent("a different chunk")

	assert.Equal(t, a, b, "same content must produce the same ID")
	assert.NotEqual(t, a, c, "different content should produce different IDs")
	assert.NotZero(t, a)
}

func TestIDFromContentEmpty(t *testing.T) {
	// Empty content still hashes to a stable value.
	assert.Equal(t, IDFromContent(""), IDFromContent(""))
}
