package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/apperr"
	"github.com/mklancir/orbit/internal/domain"
	"github.com/mklancir/orbit/internal/metrics"
	"github.com/mklancir/orbit/internal/repository"
)

var (
	ErrMessageNotFound = fmt.Errorf("%w: message", apperr.ErrNotFound)
	ErrNotMessageOwner = fmt.Errorf("%w: only the message sender can perform this action", apperr.ErrPermission)
	ErrBadPayload      = fmt.Errorf("%w: exactly one payload kind must be set", apperr.ErrValidation)
	ErrBadSharedRef    = fmt.Errorf("%w: a share references exactly one of post, reel, story", apperr.ErrValidation)
	ErrBadReplyTarget  = fmt.Errorf("%w: reply target is not in this conversation", apperr.ErrValidation)
	ErrMessageDeleted  = fmt.Errorf("%w: message is deleted", apperr.ErrValidation)
)

// MessageService owns the single write path all message creation funnels
// through, and the read path the session reconciles against.
type MessageService struct {
	messages repository.MessageRepository
	convs    repository.ConversationRepository
	receipts repository.ReceiptRepository
	notifier Notifier
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewMessageService(
	messages repository.MessageRepository,
	convs repository.ConversationRepository,
	receipts repository.ReceiptRepository,
	log *zap.SugaredLogger,
) *MessageService {
	return &MessageService{
		messages: messages,
		convs:    convs,
		receipts: receipts,
		log:      log,
		now:      time.Now,
	}
}

// SetNotifier sets the change-feed notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type MessageListResponse struct {
	Messages []domain.Message `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

// Append validates and persists one message. Text, media, shares, story
// reactions and replies all come through here; nothing else writes messages.
func (s *MessageService) Append(ctx context.Context, conversationID, senderID uuid.UUID, payload domain.MessagePayload, replyToID *uuid.UUID) (*domain.Message, error) {
	kind := payload.Kind()
	if kind == "" {
		return nil, ErrBadPayload
	}
	if payload.Shared != nil && !validSharedRef(payload.Shared) {
		return nil, ErrBadSharedRef
	}

	if err := s.checkParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	if replyToID != nil {
		target, err := s.messages.GetByID(ctx, *replyToID)
		if err != nil {
			return nil, err
		}
		if target == nil || target.ConversationID != conversationID {
			return nil, ErrBadReplyTarget
		}
	}

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		ReplyToID:      replyToID,
		CreatedAt:      s.now().UTC(),
	}
	payload.Apply(msg)
	msg.UpdatedAt = msg.CreatedAt

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}
	metrics.MessagesAppended.Inc()

	full, err := s.messages.GetByID(ctx, msg.ID)
	if err != nil || full == nil {
		// The write committed; hand back what we have.
		s.log.Warnw("failed to re-fetch appended message", "message_id", msg.ID, "error", err)
		full = msg
	}

	if s.notifier != nil {
		s.notifier.NotifyMessageInserted(conversationID, full.ID)
	}
	return full, nil
}

// List pages a conversation ascending by (created_at, id), restartable from
// the after cursor. Tombstoned messages come back redacted, in place.
func (s *MessageService) List(ctx context.Context, conversationID, userID uuid.UUID, after *uuid.UUID, limit int) (*MessageListResponse, error) {
	if err := s.checkParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	messages, err := s.messages.ListAfter(ctx, conversationID, after, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	for i := range messages {
		messages[i].Redact()
	}

	return &MessageListResponse{Messages: messages, HasMore: hasMore}, nil
}

// MarkRead upserts a read receipt and advances the reader's last_read_at
// watermark; re-marking and out-of-order marking never move it backward.
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if err := s.checkParticipant(ctx, msg.ConversationID, userID); err != nil {
		return err
	}
	return s.receipts.Upsert(ctx, messageID, userID, msg.CreatedAt)
}

// Edit mutates a message's text. Owner-only, and tombstones are immutable.
func (s *MessageService) Edit(ctx context.Context, messageID, userID uuid.UUID, content string) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return nil, ErrNotMessageOwner
	}
	if msg.IsDeleted {
		return nil, ErrMessageDeleted
	}

	msg.Content = &content
	msg.IsEdited = true
	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}

	updated, err := s.messages.GetByID(ctx, messageID)
	if err != nil || updated == nil {
		updated = msg
	}
	if s.notifier != nil {
		s.notifier.NotifyMessageUpdated(updated.ConversationID, updated.ID)
	}
	return updated, nil
}

// SoftDelete tombstones a message. The row stays so reply references remain
// resolvable and the list shows the deletion in place.
func (s *MessageService) SoftDelete(ctx context.Context, messageID, userID uuid.UUID) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return ErrNotMessageOwner
	}

	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NotifyMessageUpdated(msg.ConversationID, messageID)
	}
	return nil
}

func (s *MessageService) checkParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	p, err := s.convs.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotParticipant
	}
	return nil
}

func validSharedRef(ref *domain.SharedRef) bool {
	n := 0
	if ref.PostID != nil {
		n++
	}
	if ref.ReelID != nil {
		n++
	}
	if ref.StoryID != nil {
		n++
	}
	return n == 1
}
