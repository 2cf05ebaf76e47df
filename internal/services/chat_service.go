package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/connecthub/roadmap-backend/internal/domain"
	"github.com/connecthub/roadmap-backend/internal/logger"
	errs "github.com/connecthub/roadmap-backend/internal/pkg/errors"
)

const chatSystemPrompt = `Your primary purpose is to solve educational doubts for students. Be helpful, informative, and adapt your explanations to the user's academic level. Always provide accurate information and encourage critical thinking.

When explaining concepts, use examples and analogies to help students understand better. If you don't know the answer to a question, admit it rather than providing incorrect information.

Always return the answer in a structured manner, formatted as Markdown.`

const chatGreeting = "Hi there! I'm your Educational Roadmap Assistant. How can I help in your learning journey today?"

const chatFallbackReply = "I'm having trouble connecting to my knowledge base right now. Could you try asking your question again in a moment?"

// Conversation history beyond this many turns is dropped from the prompt.
const chatHistoryWindow = 10

// ChatService is the roadmap assistant. Conversations live in the shared
// key->state store under the same single-writer discipline as jobs.
type ChatService interface {
	Send(ctx context.Context, conversationID, message string) (*domain.ChatMessage, string, error)
	Messages(ctx context.Context, conversationID string) (*domain.Conversation, error)
	Clear(ctx context.Context) (*domain.Conversation, error)
}

type chatService struct {
	log   *logger.Logger
	ai    GeminiClient
	store JobStore
}

func NewChatService(baseLog *logger.Logger, ai GeminiClient, store JobStore) ChatService {
	return &chatService{
		log:   baseLog.With("service", "ChatService"),
		ai:    ai,
		store: store,
	}
}

func (s *chatService) Send(ctx context.Context, conversationID, message string) (*domain.ChatMessage, string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, "", fmt.Errorf("empty message: %w", errs.ErrInvalidArgument)
	}

	conv, err := s.getOrCreate(ctx, conversationID)
	if err != nil {
		return nil, "", err
	}

	conv.Messages = append(conv.Messages, domain.ChatMessage{Role: "user", Content: message})

	reply, err := s.ai.GenerateText(ctx, buildChatPrompt(conv.Messages))
	if err != nil {
		// The assistant degrades to a canned reply instead of erroring out.
		s.log.Warn("chat oracle failed, using fallback reply", "conversation_id", conv.ID, "error", err)
		reply = chatFallbackReply
	}

	botMessage := domain.ChatMessage{Role: "assistant", Content: strings.TrimSpace(reply)}
	conv.Messages = append(conv.Messages, botMessage)
	if err := s.store.PutConversation(ctx, conv); err != nil {
		return nil, "", fmt.Errorf("store conversation: %w", err)
	}
	return &botMessage, conv.ID, nil
}

func (s *chatService) Messages(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	return s.store.GetConversation(ctx, conversationID)
}

func (s *chatService) Clear(ctx context.Context) (*domain.Conversation, error) {
	conv := &domain.Conversation{
		ID:        uuid.New().String(),
		Messages:  []domain.ChatMessage{{Role: "assistant", Content: "Chat cleared! Start a new conversation."}},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.PutConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *chatService) getOrCreate(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	if conversationID != "" {
		conv, err := s.store.GetConversation(ctx, conversationID)
		if err == nil {
			return conv, nil
		}
	}
	conv := &domain.Conversation{
		ID:        uuid.New().String(),
		Messages:  []domain.ChatMessage{{Role: "assistant", Content: chatGreeting}},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.PutConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// buildChatPrompt flattens the windowed history into a single prompt with
// the system instructions up front.
func buildChatPrompt(messages []domain.ChatMessage) string {
	window := messages
	if len(window) > chatHistoryWindow {
		window = window[len(window)-chatHistoryWindow:]
	}

	var b strings.Builder
	b.WriteString(chatSystemPrompt)
	b.WriteString("\n\nConversation so far:\n")
	for _, m := range window {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	b.WriteString("assistant:")
	return b.String()
}
