package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mklancir/orbit/internal/apperr"
	"github.com/mklancir/orbit/internal/domain"
)

// Content kinds a message can embed.
const (
	ContentKindPost  = "post"
	ContentKindReel  = "reel"
	ContentKindStory = "story"
)

var ErrBadContentKind = fmt.Errorf("%w: content kind must be one of post, reel, story", apperr.ErrValidation)

// ShareService bridges content surfaces (feed, reels, stories) into
// messaging. Shares and story reactions are ordinary messages; story flows
// resolve the direct conversation with the story owner through the single
// conversation resolver rather than duplicating the lookup per call site.
type ShareService struct {
	messages      *MessageService
	conversations *ConversationService
}

func NewShareService(messages *MessageService, conversations *ConversationService) *ShareService {
	return &ShareService{messages: messages, conversations: conversations}
}

// ShareContent appends a shared_content message referencing one post, reel,
// or story, with an optional caption.
func (s *ShareService) ShareContent(ctx context.Context, conversationID, senderID uuid.UUID, contentKind string, contentID uuid.UUID, caption *string) (*domain.Message, error) {
	ref := &domain.SharedRef{Caption: caption}
	switch contentKind {
	case ContentKindPost:
		ref.PostID = &contentID
	case ContentKindReel:
		ref.ReelID = &contentID
	case ContentKindStory:
		ref.StoryID = &contentID
	default:
		return nil, ErrBadContentKind
	}
	return s.messages.Append(ctx, conversationID, senderID, domain.MessagePayload{Shared: ref}, nil)
}

// SendStoryReaction delivers an emoji reaction to a story as a direct
// message to the story's owner.
func (s *ShareService) SendStoryReaction(ctx context.Context, senderID, storyOwnerID, storyID uuid.UUID, emoji string) (*domain.Message, error) {
	conv, err := s.conversations.FindOrCreateDirect(ctx, senderID, storyOwnerID)
	if err != nil {
		return nil, err
	}
	payload := domain.MessagePayload{
		StoryReaction: &domain.StoryRef{StoryID: storyID, Content: emoji},
	}
	return s.messages.Append(ctx, conv.ID, senderID, payload, nil)
}

// SendStoryReply delivers a text reply to a story as a direct message to the
// story's owner.
func (s *ShareService) SendStoryReply(ctx context.Context, senderID, storyOwnerID, storyID uuid.UUID, text string) (*domain.Message, error) {
	conv, err := s.conversations.FindOrCreateDirect(ctx, senderID, storyOwnerID)
	if err != nil {
		return nil, err
	}
	payload := domain.MessagePayload{
		StoryReply: &domain.StoryRef{StoryID: storyID, Content: text},
	}
	return s.messages.Append(ctx, conv.ID, senderID, payload, nil)
}
