package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type Conversation struct {
	ID            uuid.UUID  `json:"id"`
	IsGroup       bool       `json:"is_group"`
	Name          *string    `json:"name,omitempty"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	DirectKey     *string    `json:"-"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Participant struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Role           string     `json:"role"`
	IsMuted        bool       `json:"is_muted"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`
	JoinedAt       time.Time  `json:"joined_at"`
}

// ConversationSummary is what the conversation list screen renders: the
// conversation itself plus, for direct conversations, the other participant's
// profile, and the unread high-water count derived from last_read_at.
type ConversationSummary struct {
	Conversation
	OtherUserID    *uuid.UUID `json:"other_user_id,omitempty"`
	OtherUsername  *string    `json:"other_username,omitempty"`
	OtherAvatarURL *string    `json:"other_avatar_url,omitempty"`
	UnreadCount    int        `json:"unread_count"`
	IsMuted        bool       `json:"is_muted"`
}

// DirectKey returns the canonical unordered-pair key for a direct
// conversation between two users. Both ends of the pair compute the same key,
// which is what the partial unique index on conversations enforces.
func DirectKey(a, b uuid.UUID) string {
	s1, s2 := a.String(), b.String()
	if s1 > s2 {
		s1, s2 = s2, s1
	}
	return strings.Join([]string{s1, s2}, ":")
}
