package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/storage"
)

func TestAppendAndRecentMessages(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	messages := []*core.Message{
		{CheckpointVersion: "0.1", Role: core.RoleUser, Content: "Hello"},
		{CheckpointVersion: "0.1", Role: core.RoleAssistant, Content: "Hi there"},
		{CheckpointVersion: "0.1", Role: core.RoleUser, Content: "How are you?"},
	}

	added, err := repos.Messages.AppendMessages(ctx, messages...)
	if err != nil {
		t.Fatalf("Failed to append messages: %v", err)
	}

	for i, message := range added {
		if message.ID == 0 {
			t.Fatalf("Expected non-zero ID for message %d", i)
		}
		if message.Timestamp.IsZero() {
			t.Fatalf("Expected timestamp for message %d", i)
		}
	}

	recent, err := repos.Messages.RecentMessages(ctx, "0.1", 10)
	if err != nil {
		t.Fatalf("Failed to get recent messages: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(recent))
	}

	// Oldest first
	if recent[0].Content != "Hello" {
		t.Errorf("Expected 'Hello' first, got '%s'", recent[0].Content)
	}
	if recent[2].Content != "How are you?" {
		t.Errorf("Expected 'How are you?' last, got '%s'", recent[2].Content)
	}
}

func TestRecentMessagesWindow(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	for i := 0; i < 30; i++ {
		_, err := repos.Messages.AppendMessages(ctx, &core.Message{
			CheckpointVersion: "0.1",
			Role:              core.RoleUser,
			Content:           fmt.Sprintf("Message %d", i),
		})
		if err != nil {
			t.Fatalf("Failed to append message %d: %v", i, err)
		}
	}

	recent, err := repos.Messages.RecentMessages(ctx, "0.1", 20)
	if err != nil {
		t.Fatalf("Failed to get recent messages: %v", err)
	}
	if len(recent) != 20 {
		t.Fatalf("Expected 20 messages, got %d", len(recent))
	}

	// Window keeps the most recent 20, oldest of them first
	if recent[0].Content != "Message 10" {
		t.Errorf("Expected 'Message 10' first, got '%s'", recent[0].Content)
	}
	if recent[19].Content != "Message 29" {
		t.Errorf("Expected 'Message 29' last, got '%s'", recent[19].Content)
	}
}

func TestMessagesIsolatedByVersion(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	_, err = repos.Messages.AppendMessages(ctx,
		&core.Message{CheckpointVersion: "0.1", Role: core.RoleUser, Content: "v1 message"},
		&core.Message{CheckpointVersion: "0.2", Role: core.RoleUser, Content: "v2 message"},
	)
	if err != nil {
		t.Fatalf("Failed to append messages: %v", err)
	}

	recent, err := repos.Messages.RecentMessages(ctx, "0.1", 10)
	if err != nil {
		t.Fatalf("Failed to get recent messages: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("Expected 1 message for 0.1, got %d", len(recent))
	}
	if recent[0].Content != "v1 message" {
		t.Fatalf("Expected 'v1 message', got '%s'", recent[0].Content)
	}

	count, err := repos.Messages.CountMessages(ctx, "0.2")
	if err != nil {
		t.Fatalf("Failed to count messages: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 message for 0.2, got %d", count)
	}
}

func TestDeleteLatestMessage(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	_, err = repos.Messages.AppendMessages(ctx,
		&core.Message{CheckpointVersion: "0.1", Role: core.RoleUser, Content: "Question"},
		&core.Message{CheckpointVersion: "0.1", Role: core.RoleAssistant, Content: "Answer"},
	)
	if err != nil {
		t.Fatalf("Failed to append messages: %v", err)
	}

	deleted, err := repos.Messages.DeleteLatestMessage(ctx, "0.1")
	if err != nil {
		t.Fatalf("Failed to delete latest message: %v", err)
	}
	if deleted.Content != "Answer" {
		t.Fatalf("Expected 'Answer' deleted, got '%s'", deleted.Content)
	}

	recent, err := repos.Messages.RecentMessages(ctx, "0.1", 10)
	if err != nil {
		t.Fatalf("Failed to get recent messages: %v", err)
	}
	if len(recent) != 1 || recent[0].Content != "Question" {
		t.Fatalf("Expected only 'Question' to remain, got %v", recent)
	}
}

func TestDeleteLatestMessageEmpty(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	_, err = repos.Messages.DeleteLatestMessage(ctx, "0.1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestAppendMessagesValidation(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	_, err = repos.Messages.AppendMessages(ctx, &core.Message{
		CheckpointVersion: "0.1",
		Role:              core.RoleUser,
		Content:           "",
	})
	if !errors.Is(err, core.ErrEmptyContent) {
		t.Fatalf("Expected ErrEmptyContent, got %v", err)
	}

	_, err = repos.Messages.AppendMessages(ctx, &core.Message{
		CheckpointVersion: "0.1",
		Role:              "narrator",
		Content:           "Meanwhile...",
	})
	if !errors.Is(err, core.ErrInvalidRole) {
		t.Fatalf("Expected ErrInvalidRole, got %v", err)
	}
}
