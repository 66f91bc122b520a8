package domain

import (
	"github.com/google/uuid"
)

// SharedRef references exactly one of post, reel, or story. The caption is
// optional free text carried alongside the share.
type SharedRef struct {
	PostID  *uuid.UUID `json:"post_id,omitempty"`
	ReelID  *uuid.UUID `json:"reel_id,omitempty"`
	StoryID *uuid.UUID `json:"story_id,omitempty"`
	Caption *string    `json:"caption,omitempty"`
}

// StoryRef ties a story reaction or reply to the story it answers.
type StoryRef struct {
	StoryID uuid.UUID `json:"story_id"`
	Content string    `json:"content"`
}

// MessagePayload is the single write-side shape all message creation funnels
// through. Exactly one of the five kind fields must be set.
type MessagePayload struct {
	Text          *string    `json:"text,omitempty"`
	MediaURLs     []string   `json:"media_urls,omitempty"`
	Shared        *SharedRef `json:"shared,omitempty"`
	StoryReaction *StoryRef  `json:"story_reaction,omitempty"`
	StoryReply    *StoryRef  `json:"story_reply,omitempty"`
}

// Kind returns the populated payload kind, or "" when zero or more than one
// kind is set.
func (p *MessagePayload) Kind() string {
	var kinds []string
	if p.Text != nil {
		kinds = append(kinds, MessageTypeText)
	}
	if len(p.MediaURLs) > 0 {
		kinds = append(kinds, MessageTypeMedia)
	}
	if p.Shared != nil {
		kinds = append(kinds, MessageTypeSharedContent)
	}
	if p.StoryReaction != nil {
		kinds = append(kinds, MessageTypeStoryReaction)
	}
	if p.StoryReply != nil {
		kinds = append(kinds, MessageTypeStoryReply)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Apply writes the payload onto a message. Callers must have validated the
// payload first; Apply assumes exactly one kind is set.
func (p *MessagePayload) Apply(m *Message) {
	switch m.Type = p.Kind(); m.Type {
	case MessageTypeText:
		m.Content = p.Text
	case MessageTypeMedia:
		m.MediaURLs = p.MediaURLs
	case MessageTypeSharedContent:
		m.Content = p.Shared.Caption
		m.SharedPostID = p.Shared.PostID
		m.SharedReelID = p.Shared.ReelID
		m.SharedStoryID = p.Shared.StoryID
	case MessageTypeStoryReaction:
		c := p.StoryReaction.Content
		m.Content = &c
		id := p.StoryReaction.StoryID
		m.SharedStoryID = &id
	case MessageTypeStoryReply:
		c := p.StoryReply.Content
		m.Content = &c
		id := p.StoryReply.StoryID
		m.SharedStoryID = &id
	}
}
