package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/domain"
	"github.com/mklancir/orbit/internal/repository"
)

// TypingTTL is how long a typing signal stays valid without a refresh.
// Clients drop older signals from the rendered set even when no explicit
// stop ever arrives, which bounds the disconnect-mid-type failure mode.
const TypingTTL = 3 * time.Second

// TypingService maintains the ephemeral per-conversation typing set. Writes
// are last-write-wins: this is a best-effort UX signal, not correctness-
// bearing state.
type TypingService struct {
	typing   repository.TypingRepository
	convs    repository.ConversationRepository
	notifier Notifier
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewTypingService(typing repository.TypingRepository, convs repository.ConversationRepository, log *zap.SugaredLogger) *TypingService {
	return &TypingService{
		typing: typing,
		convs:  convs,
		log:    log,
		now:    time.Now,
	}
}

func (s *TypingService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Set upserts or clears the caller's typing signal. Idempotent both ways.
func (s *TypingService) Set(ctx context.Context, conversationID, userID uuid.UUID, typing bool) error {
	p, err := s.convs.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotParticipant
	}

	if typing {
		err = s.typing.Upsert(ctx, conversationID, userID)
	} else {
		err = s.typing.Delete(ctx, conversationID, userID)
	}
	if err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.NotifyTyping(conversationID, userID, typing)
	}
	return nil
}

// Active returns the users currently typing in a conversation, with stale
// signals already filtered out.
func (s *TypingService) Active(ctx context.Context, conversationID uuid.UUID) ([]domain.TypingSignal, error) {
	signals, err := s.typing.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-TypingTTL)
	fresh := signals[:0]
	for _, sig := range signals {
		if sig.StartedAt.After(cutoff) {
			fresh = append(fresh, sig)
		}
	}
	return fresh, nil
}
