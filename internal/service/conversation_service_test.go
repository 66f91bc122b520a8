package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/apperr"
	"github.com/mklancir/orbit/internal/domain"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger.Sugar()
}

func seedUser(t *testing.T, users *fakeUserRepo, username string) uuid.UUID {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Email: username + "@example.com", Username: username}
	require.NoError(t, users.Create(context.Background(), u))
	return u.ID
}

func TestFindOrCreateDirect_CreatesOnce(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	convs := newFakeConversationRepo()
	svc := NewConversationService(convs, users, testLogger(t))

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	ctx := context.Background()
	first, err := svc.FindOrCreateDirect(ctx, alice, bob)
	require.NoError(t, err)
	require.False(t, first.IsGroup)
	require.NotNil(t, first.DirectKey)

	// Same pair from either end resolves to the same conversation.
	second, err := svc.FindOrCreateDirect(ctx, bob, alice)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	parts, err := convs.ListParticipants(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, parts, 2)
}

func TestFindOrCreateDirect_Self(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	svc := NewConversationService(newFakeConversationRepo(), users, testLogger(t))
	alice := seedUser(t, users, "alice")

	_, err := svc.FindOrCreateDirect(context.Background(), alice, alice)
	require.ErrorIs(t, err, ErrCannotMessageSelf)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFindOrCreateDirect_UnknownUser(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	svc := NewConversationService(newFakeConversationRepo(), users, testLogger(t))
	alice := seedUser(t, users, "alice")

	_, err := svc.FindOrCreateDirect(context.Background(), alice, uuid.New())
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindOrCreateDirect_RaceLoserResolvesWinner(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	convs := newFakeConversationRepo()
	svc := NewConversationService(convs, users, testLogger(t))

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	ctx := context.Background()

	// Simulate the other end winning the creation race between our existence
	// check and our insert: the winner's row lands just before our insert, so
	// the insert conflicts and the re-resolve finds the winner.
	key := domain.DirectKey(alice, bob)
	winner := &domain.Conversation{ID: uuid.New(), CreatedBy: bob, DirectKey: &key}
	convs.createHook = func(_ *domain.Conversation, _ []domain.Participant) error {
		convs.convs[winner.ID] = winner
		convs.participants[winner.ID] = []domain.Participant{
			{ID: uuid.New(), ConversationID: winner.ID, UserID: bob, Role: domain.RoleMember},
			{ID: uuid.New(), ConversationID: winner.ID, UserID: alice, Role: domain.RoleMember},
		}
		return fmt.Errorf("%w: direct conversation already exists", apperr.ErrConflict)
	}

	resolved, err := svc.FindOrCreateDirect(ctx, alice, bob)
	require.NoError(t, err)
	require.Equal(t, winner.ID, resolved.ID)
}

func TestCreateGroup_Rules(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	convs := newFakeConversationRepo()
	svc := NewConversationService(convs, users, testLogger(t))

	creator := seedUser(t, users, "creator")
	m1 := seedUser(t, users, "m1")
	m2 := seedUser(t, users, "m2")
	ctx := context.Background()

	_, err := svc.CreateGroup(ctx, creator, []uuid.UUID{m1, m2}, "")
	require.ErrorIs(t, err, ErrGroupNeedsName)

	_, err = svc.CreateGroup(ctx, creator, []uuid.UUID{m1}, "too small")
	require.ErrorIs(t, err, ErrGroupTooSmall)

	// Duplicates and the creator in the member list collapse.
	conv, err := svc.CreateGroup(ctx, creator, []uuid.UUID{m1, m1, creator, m2}, "weekend plans")
	require.NoError(t, err)
	require.True(t, conv.IsGroup)

	parts, err := convs.ListParticipants(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	for _, p := range parts {
		if p.UserID == creator {
			require.Equal(t, domain.RoleAdmin, p.Role)
		} else {
			require.Equal(t, domain.RoleMember, p.Role)
		}
	}
}

func TestCreateGroup_NoDedup(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	convs := newFakeConversationRepo()
	svc := NewConversationService(convs, users, testLogger(t))

	creator := seedUser(t, users, "creator")
	m1 := seedUser(t, users, "m1")
	m2 := seedUser(t, users, "m2")
	ctx := context.Background()

	a, err := svc.CreateGroup(ctx, creator, []uuid.UUID{m1, m2}, "book club")
	require.NoError(t, err)
	b, err := svc.CreateGroup(ctx, creator, []uuid.UUID{m1, m2}, "book club")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}

func TestGetForUser_Permissions(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	convs := newFakeConversationRepo()
	svc := NewConversationService(convs, users, testLogger(t))

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	mallory := seedUser(t, users, "mallory")
	ctx := context.Background()

	conv, err := svc.FindOrCreateDirect(ctx, alice, bob)
	require.NoError(t, err)

	_, err = svc.GetForUser(ctx, conv.ID, mallory)
	require.ErrorIs(t, err, ErrNotParticipant)
	require.ErrorIs(t, err, apperr.ErrPermission)

	_, err = svc.GetForUser(ctx, uuid.New(), alice)
	require.ErrorIs(t, err, ErrConversationNotFound)

	got, err := svc.GetForUser(ctx, conv.ID, alice)
	require.NoError(t, err)
	require.Equal(t, conv.ID, got.ID)
}
