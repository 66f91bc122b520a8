package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/apperr"
	"github.com/mklancir/orbit/internal/domain"
	"github.com/mklancir/orbit/internal/repository"
)

var (
	ErrConversationNotFound = fmt.Errorf("%w: conversation", apperr.ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("%w: user", apperr.ErrNotFound)
	ErrNotParticipant       = fmt.Errorf("%w: not a conversation participant", apperr.ErrPermission)
	ErrCannotMessageSelf    = fmt.Errorf("%w: cannot start a conversation with yourself", apperr.ErrValidation)
	ErrGroupTooSmall        = fmt.Errorf("%w: a group needs at least three participants", apperr.ErrValidation)
	ErrGroupNeedsName       = fmt.Errorf("%w: a group conversation needs a name", apperr.ErrValidation)
)

// ConversationService is the single place direct conversations are resolved.
// Every caller that needs "the conversation with user X" — the messages
// screen, the share dialog, the story-reply bar — goes through
// FindOrCreateDirect, so the dedup race is handled once.
type ConversationService struct {
	convs repository.ConversationRepository
	users repository.UserRepository
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewConversationService(convs repository.ConversationRepository, users repository.UserRepository, log *zap.SugaredLogger) *ConversationService {
	return &ConversationService{
		convs: convs,
		users: users,
		log:   log,
		now:   time.Now,
	}
}

// FindOrCreateDirect returns the single direct conversation between two
// users, creating it when absent. Concurrent calls from both ends of the
// pair can race to create; the unique index on the canonical pair key makes
// one of them lose with a conflict, and the loser re-resolves to the
// winner's row instead of erroring.
func (s *ConversationService) FindOrCreateDirect(ctx context.Context, userID, otherUserID uuid.UUID) (*domain.Conversation, error) {
	if userID == otherUserID {
		return nil, ErrCannotMessageSelf
	}

	other, err := s.users.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, ErrUserNotFound
	}

	key := domain.DirectKey(userID, otherUserID)
	conv, err := s.convs.GetDirectByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	now := s.now().UTC()
	conv = &domain.Conversation{
		ID:        uuid.New(),
		IsGroup:   false,
		CreatedBy: userID,
		DirectKey: &key,
		CreatedAt: now,
		UpdatedAt: now,
	}
	participants := []domain.Participant{
		{ID: uuid.New(), ConversationID: conv.ID, UserID: userID, Role: domain.RoleMember, JoinedAt: now},
		{ID: uuid.New(), ConversationID: conv.ID, UserID: otherUserID, Role: domain.RoleMember, JoinedAt: now},
	}

	err = s.convs.Create(ctx, conv, participants)
	if errors.Is(err, apperr.ErrConflict) {
		// Lost the creation race; the winner's row is authoritative.
		s.log.Debugw("direct conversation race lost, re-resolving", "direct_key", key)
		winner, rerr := s.convs.GetDirectByKey(ctx, key)
		if rerr != nil {
			return nil, rerr
		}
		if winner == nil {
			return nil, fmt.Errorf("%w: direct conversation vanished after conflict", apperr.ErrTransient)
		}
		return winner, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating direct conversation: %w", err)
	}

	return conv, nil
}

// CreateGroup creates a named group conversation. No dedup: two groups with
// the same members are two groups.
func (s *ConversationService) CreateGroup(ctx context.Context, creatorID uuid.UUID, participantIDs []uuid.UUID, name string) (*domain.Conversation, error) {
	if name == "" {
		return nil, ErrGroupNeedsName
	}

	seen := map[uuid.UUID]struct{}{creatorID: {}}
	members := []uuid.UUID{creatorID}
	for _, id := range participantIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) < 3 {
		return nil, ErrGroupTooSmall
	}

	now := s.now().UTC()
	conv := &domain.Conversation{
		ID:        uuid.New(),
		IsGroup:   true,
		Name:      &name,
		CreatedBy: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	participants := make([]domain.Participant, 0, len(members))
	for _, id := range members {
		role := domain.RoleMember
		if id == creatorID {
			role = domain.RoleAdmin
		}
		participants = append(participants, domain.Participant{
			ID: uuid.New(), ConversationID: conv.ID, UserID: id, Role: role, JoinedAt: now,
		})
	}

	if err := s.convs.Create(ctx, conv, participants); err != nil {
		return nil, fmt.Errorf("creating group conversation: %w", err)
	}
	return conv, nil
}

// List returns the user's conversations ordered by last activity.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	summaries, err := s.convs.ListSummaries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []domain.ConversationSummary{}
	}
	return summaries, nil
}

// GetForUser fetches a conversation the user participates in.
func (s *ConversationService) GetForUser(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	p, err := s.convs.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

// SetMuted flips the caller's mute flag. Muting suppresses notification
// surfacing, never delivery.
func (s *ConversationService) SetMuted(ctx context.Context, conversationID, userID uuid.UUID, muted bool) error {
	return s.convs.SetMuted(ctx, conversationID, userID, muted)
}
