package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/mklancir/orbit/internal/domain"
	"github.com/mklancir/orbit/internal/service"
)

// ServiceStore adapts the message and typing services to the session's
// Store interface.
type ServiceStore struct {
	Messages *service.MessageService
	Typing   *service.TypingService
}

func (s ServiceStore) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, after *uuid.UUID, limit int) (*service.MessageListResponse, error) {
	return s.Messages.List(ctx, conversationID, userID, after, limit)
}

func (s ServiceStore) AppendMessage(ctx context.Context, conversationID, senderID uuid.UUID, payload domain.MessagePayload, replyToID *uuid.UUID) (*domain.Message, error) {
	return s.Messages.Append(ctx, conversationID, senderID, payload, replyToID)
}

func (s ServiceStore) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	return s.Messages.MarkRead(ctx, messageID, userID)
}

func (s ServiceStore) SetTyping(ctx context.Context, conversationID, userID uuid.UUID, typing bool) error {
	return s.Typing.Set(ctx, conversationID, userID, typing)
}
