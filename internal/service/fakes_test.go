package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mklancir/orbit/internal/apperr"
	"github.com/mklancir/orbit/internal/domain"
)

// In-memory repositories mirroring the semantics the postgres layer provides:
// nil-on-missing lookups, conflict on duplicate direct keys, transactional
// last_message_at bumps, monotonic read watermarks.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeConversationRepo struct {
	mu           sync.Mutex
	convs        map[uuid.UUID]*domain.Conversation
	participants map[uuid.UUID][]domain.Participant

	// createHook, when set, replaces the next Create call. It runs with the
	// repo lock held, so it may touch the maps directly but must not call
	// repo methods.
	createHook func(conv *domain.Conversation, participants []domain.Participant) error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		convs:        make(map[uuid.UUID]*domain.Conversation),
		participants: make(map[uuid.UUID][]domain.Participant),
	}
}

func (r *fakeConversationRepo) Create(_ context.Context, conv *domain.Conversation, participants []domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createHook != nil {
		hook := r.createHook
		r.createHook = nil
		return hook(conv, participants)
	}
	if !conv.IsGroup && len(participants) != 2 {
		return fmt.Errorf("%w: a direct conversation has exactly two participants", apperr.ErrValidation)
	}
	if conv.DirectKey != nil {
		for _, existing := range r.convs {
			if existing.DirectKey != nil && *existing.DirectKey == *conv.DirectKey {
				return fmt.Errorf("%w: direct conversation already exists", apperr.ErrConflict)
			}
		}
	}
	cp := *conv
	r.convs[conv.ID] = &cp
	r.participants[conv.ID] = append([]domain.Participant(nil), participants...)
	return nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConversationRepo) GetDirectByKey(_ context.Context, directKey string) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.convs {
		if c.DirectKey != nil && *c.DirectKey == directKey {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) ListSummaries(_ context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ConversationSummary
	for id, parts := range r.participants {
		for _, p := range parts {
			if p.UserID == userID {
				out = append(out, domain.ConversationSummary{Conversation: *r.convs[id], IsMuted: p.IsMuted})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt, out[j].CreatedAt
		if out[i].LastMessageAt != nil {
			ti = *out[i].LastMessageAt
		}
		if out[j].LastMessageAt != nil {
			tj = *out[j].LastMessageAt
		}
		return ti.After(tj)
	})
	return out, nil
}

func (r *fakeConversationRepo) GetParticipant(_ context.Context, conversationID, userID uuid.UUID) (*domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants[conversationID] {
		if p.UserID == userID {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) ListParticipants(_ context.Context, conversationID uuid.UUID) ([]domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Participant(nil), r.participants[conversationID]...), nil
}

func (r *fakeConversationRepo) SetMuted(_ context.Context, conversationID, userID uuid.UUID, muted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	parts := r.participants[conversationID]
	for i := range parts {
		if parts[i].UserID == userID {
			parts[i].IsMuted = muted
			return nil
		}
	}
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*domain.Message
	convs    *fakeConversationRepo
}

func newFakeMessageRepo(convs *fakeConversationRepo) *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*domain.Message), convs: convs}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	r.messages[msg.ID] = &cp
	if r.convs != nil {
		r.convs.mu.Lock()
		if c, ok := r.convs.convs[msg.ConversationID]; ok {
			t := msg.CreatedAt
			c.LastMessageAt = &t
			c.UpdatedAt = t
		}
		r.convs.mu.Unlock()
	}
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMessageRepo) ListAfter(_ context.Context, conversationID uuid.UUID, after *uuid.UUID, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			all = append(all, *m)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	if after != nil {
		idx := -1
		for i, m := range all {
			if m.ID == *after {
				idx = i
				break
			}
		}
		if idx >= 0 {
			all = all[idx+1:]
		}
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeMessageRepo) Update(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.messages[msg.ID]; ok {
		cp := *msg
		cp.UpdatedAt = time.Now().UTC()
		cp.CreatedAt = existing.CreatedAt
		r.messages[msg.ID] = &cp
	}
	return nil
}

func (r *fakeMessageRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		m.IsDeleted = true
	}
	return nil
}

type fakeReceiptRepo struct {
	mu       sync.Mutex
	receipts map[uuid.UUID]map[uuid.UUID]time.Time // messageID → userID → readAt
	// watermarks tracks last_read_at per (user) to assert monotonicity.
	watermarks map[uuid.UUID]time.Time
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{
		receipts:   make(map[uuid.UUID]map[uuid.UUID]time.Time),
		watermarks: make(map[uuid.UUID]time.Time),
	}
}

func (r *fakeReceiptRepo) Upsert(_ context.Context, messageID, userID uuid.UUID, messageCreatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.receipts[messageID] == nil {
		r.receipts[messageID] = make(map[uuid.UUID]time.Time)
	}
	if _, ok := r.receipts[messageID][userID]; !ok {
		r.receipts[messageID][userID] = time.Now().UTC()
	}
	if messageCreatedAt.After(r.watermarks[userID]) {
		r.watermarks[userID] = messageCreatedAt
	}
	return nil
}

func (r *fakeReceiptRepo) ListForMessage(_ context.Context, messageID uuid.UUID) ([]domain.ReadReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ReadReceipt
	for userID, readAt := range r.receipts[messageID] {
		out = append(out, domain.ReadReceipt{MessageID: messageID, UserID: userID, ReadAt: readAt})
	}
	return out, nil
}

type fakeTypingRepo struct {
	mu      sync.Mutex
	signals map[uuid.UUID]map[uuid.UUID]time.Time // conversationID → userID → startedAt
	now     func() time.Time
}

func newFakeTypingRepo(now func() time.Time) *fakeTypingRepo {
	if now == nil {
		now = time.Now
	}
	return &fakeTypingRepo{signals: make(map[uuid.UUID]map[uuid.UUID]time.Time), now: now}
}

func (r *fakeTypingRepo) Upsert(_ context.Context, conversationID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.signals[conversationID] == nil {
		r.signals[conversationID] = make(map[uuid.UUID]time.Time)
	}
	r.signals[conversationID][userID] = r.now()
	return nil
}

func (r *fakeTypingRepo) Delete(_ context.Context, conversationID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.signals[conversationID], userID)
	return nil
}

func (r *fakeTypingRepo) ListByConversation(_ context.Context, conversationID uuid.UUID) ([]domain.TypingSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TypingSignal
	for userID, startedAt := range r.signals[conversationID] {
		out = append(out, domain.TypingSignal{ConversationID: conversationID, UserID: userID, StartedAt: startedAt})
	}
	return out, nil
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	inserted []uuid.UUID
	updated  []uuid.UUID
	typing   []domain.TypingSignal
}

func (n *recordingNotifier) NotifyMessageInserted(_, messageID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inserted = append(n.inserted, messageID)
}

func (n *recordingNotifier) NotifyMessageUpdated(_, messageID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, messageID)
}

func (n *recordingNotifier) NotifyTyping(conversationID, userID uuid.UUID, typing bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if typing {
		n.typing = append(n.typing, domain.TypingSignal{ConversationID: conversationID, UserID: userID})
	}
}
