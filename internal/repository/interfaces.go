package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mklancir/orbit/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type ConversationRepository interface {
	// Create inserts the conversation row and all participant rows in one
	// transaction; on any failure nothing is visible.
	Create(ctx context.Context, conv *domain.Conversation, participants []domain.Participant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	// GetDirectByKey looks a direct conversation up by its canonical
	// unordered-pair key.
	GetDirectByKey(ctx context.Context, directKey string) (*domain.Conversation, error)
	ListSummaries(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error)
	GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Participant, error)
	ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error)
	SetMuted(ctx context.Context, conversationID, userID uuid.UUID, muted bool) error
}

type MessageRepository interface {
	// Create inserts the message and advances the conversation's
	// last_message_at to the message's created_at in one transaction.
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListAfter pages ascending by (created_at, id), restartable from the
	// message identified by after. Tombstoned rows are included.
	ListAfter(ctx context.Context, conversationID uuid.UUID, after *uuid.UUID, limit int) ([]domain.Message, error)
	Update(ctx context.Context, msg *domain.Message) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type ReceiptRepository interface {
	// Upsert records the receipt (no-op when it already exists) and
	// advances the participant's last_read_at watermark monotonically,
	// never backward.
	Upsert(ctx context.Context, messageID, userID uuid.UUID, messageCreatedAt time.Time) error
	ListForMessage(ctx context.Context, messageID uuid.UUID) ([]domain.ReadReceipt, error)
}

type TypingRepository interface {
	Upsert(ctx context.Context, conversationID, userID uuid.UUID) error
	Delete(ctx context.Context, conversationID, userID uuid.UUID) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.TypingSignal, error)
}
