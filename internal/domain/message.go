package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message types form a closed set; exactly one payload kind is populated per
// message (enforced before any insert).
const (
	MessageTypeText          = "text"
	MessageTypeMedia         = "media"
	MessageTypeSharedContent = "shared_content"
	MessageTypeStoryReaction = "story_reaction"
	MessageTypeStoryReply    = "story_reply"
)

type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	Type           string     `json:"message_type"`
	Content        *string    `json:"content,omitempty"`
	MediaURLs      []string   `json:"media_urls,omitempty"`
	SharedPostID   *uuid.UUID `json:"shared_post_id,omitempty"`
	SharedReelID   *uuid.UUID `json:"shared_reel_id,omitempty"`
	SharedStoryID  *uuid.UUID `json:"shared_story_id,omitempty"`
	ReplyToID      *uuid.UUID `json:"reply_to_id,omitempty"`
	IsEdited       bool       `json:"is_edited"`
	IsDeleted      bool       `json:"is_deleted"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	// Joined fields
	SenderUsername  string  `json:"sender_username,omitempty"`
	SenderAvatarURL *string `json:"sender_avatar_url,omitempty"`
}

// Redact blanks a tombstoned message's payload in place. The row itself stays
// in the list so deletion is visible without leaving a gap, and reply
// references stay resolvable.
func (m *Message) Redact() {
	if !m.IsDeleted {
		return
	}
	m.Content = nil
	m.MediaURLs = nil
	m.SharedPostID = nil
	m.SharedReelID = nil
	m.SharedStoryID = nil
}

type ReadReceipt struct {
	ID        uuid.UUID `json:"id"`
	MessageID uuid.UUID `json:"message_id"`
	UserID    uuid.UUID `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

// TypingSignal is ephemeral: a fresh signal overwrites any prior one for the
// same (conversation, user) pair, and clients treat anything older than the
// typing TTL as expired regardless of server state.
type TypingSignal struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	StartedAt      time.Time `json:"started_at"`
}
