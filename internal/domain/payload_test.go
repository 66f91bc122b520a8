package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPayloadKind_ExactlyOne(t *testing.T) {
	t.Parallel()

	text := "hi"
	postID := uuid.New()

	require.Equal(t, "", (&MessagePayload{}).Kind())
	require.Equal(t, MessageTypeText, (&MessagePayload{Text: &text}).Kind())
	require.Equal(t, MessageTypeMedia, (&MessagePayload{MediaURLs: []string{"u"}}).Kind())
	require.Equal(t, MessageTypeSharedContent, (&MessagePayload{Shared: &SharedRef{PostID: &postID}}).Kind())
	require.Equal(t, MessageTypeStoryReaction, (&MessagePayload{StoryReaction: &StoryRef{}}).Kind())
	require.Equal(t, MessageTypeStoryReply, (&MessagePayload{StoryReply: &StoryRef{}}).Kind())

	// Two kinds at once is not a kind.
	require.Equal(t, "", (&MessagePayload{Text: &text, MediaURLs: []string{"u"}}).Kind())
}

func TestPayloadApply(t *testing.T) {
	t.Parallel()

	storyID := uuid.New()
	p := MessagePayload{StoryReaction: &StoryRef{StoryID: storyID, Content: "❤️"}}

	var m Message
	p.Apply(&m)
	require.Equal(t, MessageTypeStoryReaction, m.Type)
	require.Equal(t, "❤️", *m.Content)
	require.Equal(t, storyID, *m.SharedStoryID)
}

func TestRedact(t *testing.T) {
	t.Parallel()

	text := "secret"
	postID := uuid.New()
	m := Message{
		Content:      &text,
		MediaURLs:    []string{"https://cdn.example.com/a.jpg"},
		SharedPostID: &postID,
	}

	// Live messages are untouched.
	m.Redact()
	require.NotNil(t, m.Content)

	m.IsDeleted = true
	m.Redact()
	require.Nil(t, m.Content)
	require.Nil(t, m.MediaURLs)
	require.Nil(t, m.SharedPostID)
	require.True(t, m.IsDeleted)
}

func TestDirectKey_Canonical(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	require.Equal(t, DirectKey(a, b), DirectKey(b, a))

	parts := strings.Split(DirectKey(a, b), ":")
	require.Len(t, parts, 2)
	require.Less(t, parts[0], parts[1])
}
