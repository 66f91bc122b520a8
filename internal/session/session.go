// Package session is the client-facing messaging facade: one Session per
// open conversation, composing history loading, the live change feed,
// optimistic sends, and typing presence into a small state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/apperr"
	"github.com/mklancir/orbit/internal/delivery"
	"github.com/mklancir/orbit/internal/domain"
	"github.com/mklancir/orbit/internal/service"
)

type State int

const (
	StateClosed State = iota
	StateLoading
	StateReady
)

var (
	ErrNotOpen     = errors.New("session is not open")
	ErrAlreadyOpen = errors.New("session is already open")
)

const (
	historyPageSize    = 100
	defaultSendTimeout = 15 * time.Second
)

// Store is the durable side of the facade. The conversation store is the
// single source of truth; the session never holds authoritative state.
type Store interface {
	ListMessages(ctx context.Context, conversationID, userID uuid.UUID, after *uuid.UUID, limit int) (*service.MessageListResponse, error)
	AppendMessage(ctx context.Context, conversationID, senderID uuid.UUID, payload domain.MessagePayload, replyToID *uuid.UUID) (*domain.Message, error)
	MarkRead(ctx context.Context, messageID, userID uuid.UUID) error
	SetTyping(ctx context.Context, conversationID, userID uuid.UUID, typing bool) error
}

// Channel is the live side: the delivery channel's subscribe primitive.
type Channel interface {
	Subscribe(conversationID uuid.UUID) *delivery.Subscription
}

// Session is a per-open-conversation state machine:
// Closed → Loading → Ready → Closed. Sends pass through a transient
// optimistic sub-state per message: append locally, confirm against the
// store, reconcile or roll back.
type Session struct {
	conversationID uuid.UUID
	userID         uuid.UUID
	store          Store
	channel        Channel
	log            *zap.SugaredLogger
	now            func() time.Time
	sendTimeout    time.Duration

	mu         sync.Mutex
	state      State
	messages   []domain.Message // authoritative order, server-confirmed
	optimistic []domain.Message // in-flight sends, in send order
	typing     *TypingSet
	sub        *delivery.Subscription
	cancel     context.CancelFunc
	loopDone   chan struct{}
}

func New(store Store, channel Channel, conversationID, userID uuid.UUID, log *zap.SugaredLogger) *Session {
	now := time.Now
	return &Session{
		conversationID: conversationID,
		userID:         userID,
		store:          store,
		channel:        channel,
		log:            log,
		now:            now,
		sendTimeout:    defaultSendTimeout,
		typing:         NewTypingSet(service.TypingTTL, now),
	}
}

// Open loads the conversation history and subscribes to its change feed.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateClosed {
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	s.state = StateLoading
	s.mu.Unlock()

	history, err := s.loadHistory(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		return err
	}

	sub := s.channel.Subscribe(s.conversationID)
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.messages = history
	s.sub = sub
	s.cancel = cancel
	s.loopDone = done
	s.state = StateReady
	s.mu.Unlock()

	go s.eventLoop(loopCtx, sub, done)
	return nil
}

func (s *Session) loadHistory(ctx context.Context) ([]domain.Message, error) {
	var history []domain.Message
	var after *uuid.UUID
	for {
		page, err := s.store.ListMessages(ctx, s.conversationID, s.userID, after, historyPageSize)
		if err != nil {
			return nil, err
		}
		history = append(history, page.Messages...)
		if !page.HasMore || len(page.Messages) == 0 {
			return history, nil
		}
		last := page.Messages[len(page.Messages)-1].ID
		after = &last
	}
}

// Send optimistically appends the message locally, then confirms it against
// the store. On success the optimistic entry is replaced by the
// server-assigned row; on failure it is removed and the error surfaced —
// never auto-retried.
func (s *Session) Send(ctx context.Context, payload domain.MessagePayload, replyToID *uuid.UUID) (*domain.Message, error) {
	local := domain.Message{
		ID:             uuid.New(),
		ConversationID: s.conversationID,
		SenderID:       s.userID,
		ReplyToID:      replyToID,
		CreatedAt:      s.now().UTC(),
	}
	payload.Apply(&local)
	local.UpdatedAt = local.CreatedAt

	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return nil, ErrNotOpen
	}
	s.optimistic = append(s.optimistic, local)
	s.mu.Unlock()

	sendCtx, cancelSend := context.WithTimeout(ctx, s.sendTimeout)
	defer cancelSend()
	confirmed, err := s.store.AppendMessage(sendCtx, s.conversationID, s.userID, payload, replyToID)

	s.mu.Lock()
	s.removeOptimisticLocked(local.ID)
	if err == nil && s.state == StateReady {
		s.messages = insertOrdered(s.messages, *confirmed)
	}
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: send timed out: %v", apperr.ErrTransient, err)
		}
		return nil, err
	}
	return confirmed, nil
}

// MarkRead is best-effort: failures are logged and dropped, never surfaced.
func (s *Session) MarkRead(ctx context.Context, messageID uuid.UUID) {
	if err := s.store.MarkRead(ctx, messageID, s.userID); err != nil {
		s.log.Warnw("mark read failed", "message_id", messageID, "error", err)
	}
}

// SetTyping is best-effort: failures are logged and dropped, never surfaced.
func (s *Session) SetTyping(ctx context.Context, typing bool) {
	if err := s.store.SetTyping(ctx, s.conversationID, s.userID, typing); err != nil {
		s.log.Warnw("set typing failed", "conversation_id", s.conversationID, "error", err)
	}
}

// Messages returns the rendered view: the authoritative sequence merged with
// optimistic entries still awaiting confirmation.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reconcile(s.messages, s.optimistic)
}

// TypingUsers returns who is typing right now, stale signals excluded.
func (s *Session) TypingUsers() []uuid.UUID {
	return s.typing.Active()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down: unsubscribes, stops the event loop, and
// discards in-memory state. Idempotent; late events after Close are never
// applied.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	sub, cancel, done := s.sub, s.cancel, s.loopDone
	s.sub, s.cancel, s.loopDone = nil, nil, nil
	s.messages = nil
	s.optimistic = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Session) eventLoop(ctx context.Context, sub *delivery.Subscription, done chan struct{}) {
	defer close(done)
	for {
		ev, err := sub.Next(ctx)
		if err != nil {
			return
		}
		s.apply(ctx, ev)
	}
}

// apply reacts to one change event. Events are signals: message changes
// trigger a re-fetch rather than trusting any pushed payload.
func (s *Session) apply(ctx context.Context, ev delivery.Event) {
	switch ev.Type {
	case delivery.EventTyping:
		if ev.UserID == s.userID {
			return
		}
		if ev.Typing {
			s.typing.Mark(ev.UserID)
		} else {
			s.typing.Clear(ev.UserID)
		}
	case delivery.EventMessageInserted, delivery.EventMessageUpdated, delivery.EventResync:
		s.refresh(ctx)
	}
}

func (s *Session) refresh(ctx context.Context) {
	var after *uuid.UUID
	var authoritative []domain.Message
	for {
		page, err := s.store.ListMessages(ctx, s.conversationID, s.userID, after, historyPageSize)
		if err != nil {
			s.log.Warnw("refresh failed", "conversation_id", s.conversationID, "error", err)
			return
		}
		authoritative = append(authoritative, page.Messages...)
		if !page.HasMore || len(page.Messages) == 0 {
			break
		}
		last := page.Messages[len(page.Messages)-1].ID
		after = &last
	}

	s.mu.Lock()
	// Liveness guard: a refresh racing a Close must not resurrect state.
	if s.state == StateReady {
		s.messages = authoritative
	}
	s.mu.Unlock()
}

func (s *Session) removeOptimisticLocked(id uuid.UUID) {
	for i, m := range s.optimistic {
		if m.ID == id {
			s.optimistic = append(s.optimistic[:i], s.optimistic[i+1:]...)
			return
		}
	}
}
