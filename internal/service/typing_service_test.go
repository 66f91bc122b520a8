package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mklancir/orbit/internal/domain"
)

func newTypingFixture(t *testing.T, now func() time.Time) (*TypingService, *fakeTypingRepo, uuid.UUID, uuid.UUID, uuid.UUID) {
	t.Helper()

	convs := newFakeConversationRepo()
	typing := newFakeTypingRepo(now)

	alice, bob := uuid.New(), uuid.New()
	key := domain.DirectKey(alice, bob)
	conv := &domain.Conversation{ID: uuid.New(), DirectKey: &key, CreatedBy: alice}
	require.NoError(t, convs.Create(context.Background(), conv, []domain.Participant{
		{ID: uuid.New(), ConversationID: conv.ID, UserID: alice},
		{ID: uuid.New(), ConversationID: conv.ID, UserID: bob},
	}))

	svc := NewTypingService(typing, convs, testLogger(t))
	if now != nil {
		svc.now = now
	}
	return svc, typing, conv.ID, alice, bob
}

func TestTypingSet_RequiresParticipant(t *testing.T) {
	t.Parallel()

	svc, _, convID, _, _ := newTypingFixture(t, nil)
	err := svc.Set(context.Background(), convID, uuid.New(), true)
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestTypingActive_FiltersExpired(t *testing.T) {
	t.Parallel()

	current := time.Now().UTC()
	now := func() time.Time { return current }
	svc, _, convID, alice, bob := newTypingFixture(t, now)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, convID, alice, true))

	// Advance just under the TTL: still visible.
	current = current.Add(TypingTTL - time.Millisecond)
	require.NoError(t, svc.Set(ctx, convID, bob, true))

	active, err := svc.Active(ctx, convID)
	require.NoError(t, err)
	require.Len(t, active, 2)

	// Cross the TTL for alice's signal; bob's refresh keeps his alive.
	current = current.Add(2 * time.Millisecond)
	require.NoError(t, svc.Set(ctx, convID, bob, true))

	current = current.Add(TypingTTL - time.Millisecond)
	active, err = svc.Active(ctx, convID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, bob, active[0].UserID)
}

func TestTypingSet_StopClears(t *testing.T) {
	t.Parallel()

	svc, repo, convID, alice, _ := newTypingFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, convID, alice, true))
	signals, err := repo.ListByConversation(ctx, convID)
	require.NoError(t, err)
	require.Len(t, signals, 1)

	require.NoError(t, svc.Set(ctx, convID, alice, false))
	signals, err = repo.ListByConversation(ctx, convID)
	require.NoError(t, err)
	require.Empty(t, signals)

	// Clearing when already clear is fine.
	require.NoError(t, svc.Set(ctx, convID, alice, false))
}

func TestTypingSet_Notifies(t *testing.T) {
	t.Parallel()

	svc, _, convID, alice, _ := newTypingFixture(t, nil)
	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)

	require.NoError(t, svc.Set(context.Background(), convID, alice, true))
	require.Len(t, notifier.typing, 1)
	require.Equal(t, alice, notifier.typing[0].UserID)
	require.Equal(t, convID, notifier.typing[0].ConversationID)
}
