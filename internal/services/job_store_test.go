package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/connecthub/roadmap-backend/internal/domain"
	errs "github.com/connecthub/roadmap-backend/internal/pkg/errors"
)

func TestMemoryJobStore_JobRoundTrip(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	job := &domain.JobState{
		ID:        "job-1",
		Status:    domain.JobProcessing,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.PutJob(ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.JobProcessing {
		t.Fatalf("expected processing, got %q", got.Status)
	}

	// Mutating the returned snapshot must not leak back into the store.
	got.Status = domain.JobFailed
	again, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Status != domain.JobProcessing {
		t.Fatalf("snapshot mutation leaked into the store")
	}
}

func TestMemoryJobStore_GetMissingJob(t *testing.T) {
	store := NewMemoryJobStore()
	_, err := store.GetJob(context.Background(), "nope")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryJobStore_RejectsEmptyID(t *testing.T) {
	store := NewMemoryJobStore()
	if err := store.PutJob(context.Background(), &domain.JobState{}); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if err := store.PutConversation(context.Background(), &domain.Conversation{}); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMemoryJobStore_ConversationMessagesAreCopied(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	conv := &domain.Conversation{
		ID: "conv-1",
		Messages: []domain.ChatMessage{
			{Role: "assistant", Content: "Hello!"},
		},
	}
	if err := store.PutConversation(ctx, conv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Appending to the caller's slice after the put must not affect the store.
	conv.Messages = append(conv.Messages, domain.ChatMessage{Role: "user", Content: "hi"})

	got, err := store.GetConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(got.Messages))
	}

	// And mutating the returned slice must not affect later reads.
	got.Messages[0].Content = "tampered"
	again, _ := store.GetConversation(ctx, "conv-1")
	if again.Messages[0].Content != "Hello!" {
		t.Fatalf("returned slice aliased the stored one")
	}
}

func TestMemoryJobStore_OverwriteUpdatesJob(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	created := time.Now().UTC().Add(-time.Minute)
	if err := store.PutJob(ctx, &domain.JobState{ID: "job-2", Status: domain.JobProcessing, CreatedAt: created}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.PutJob(ctx, &domain.JobState{ID: "job-2", Status: domain.JobCompleted, CreatedAt: created}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetJob(ctx, "job-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.JobCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("expected CreatedAt preserved")
	}
}
