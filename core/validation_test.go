package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessage(t *testing.T) {
	valid := &Message{
		CheckpointVersion: "0.1",
		Role:              RoleUser,
		Content:           "hello",
	}
	require.NoError(t, ValidateMessage(valid))

	tests := []struct {
		name    string
		msg     *Message
		wantErr error
	}{
		{"nil message", nil, ErrInvalidMessage},
		{"empty version", &Message{Role: RoleUser, Content: "hi"}, ErrEmptyVersion},
		{"empty content", &Message{CheckpointVersion: "0.1", Role: RoleUser}, ErrEmptyContent},
		{"bad role", &Message{CheckpointVersion: "0.1", Role: Role("bot"), Content: "hi"}, ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.msg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateRole(t *testing.T) {
	for _, role := range []Role{RoleUser, RoleAssistant, RoleSystem} {
		assert.NoError(t, ValidateRole(role))
	}
	assert.ErrorIs(t, ValidateRole(Role("narrator")), ErrInvalidRole)
}
