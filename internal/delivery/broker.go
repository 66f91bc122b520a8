// Package delivery is the message delivery channel: an in-process broker
// that fans change notifications out to every session subscribed to a
// conversation. Delivery is at-least-once — a subscriber that falls behind
// gets its queue collapsed into a single resync event rather than losing the
// fact that something changed.
package delivery

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/metrics"
)

var ErrSubscriptionClosed = errors.New("subscription closed")

// maxQueue bounds a subscriber's unread backlog before coalescing kicks in.
const maxQueue = 256

type Broker struct {
	log *zap.SugaredLogger

	mu   sync.RWMutex
	subs map[uuid.UUID]map[*Subscription]struct{}
}

func NewBroker(log *zap.SugaredLogger) *Broker {
	return &Broker{
		log:  log,
		subs: make(map[uuid.UUID]map[*Subscription]struct{}),
	}
}

// Subscription is a scoped acquisition: every Subscribe must be paired with a
// Close on session teardown, on every exit path. Close is idempotent.
type Subscription struct {
	broker         *Broker
	conversationID uuid.UUID

	mu       sync.Mutex
	queue    []Event
	overflow bool
	closed   bool
	notify   chan struct{}
}

// Subscribe registers interest in a conversation's change feed.
func (b *Broker) Subscribe(conversationID uuid.UUID) *Subscription {
	sub := &Subscription{
		broker:         b,
		conversationID: conversationID,
		notify:         make(chan struct{}, 1),
	}

	b.mu.Lock()
	if b.subs[conversationID] == nil {
		b.subs[conversationID] = make(map[*Subscription]struct{})
	}
	b.subs[conversationID][sub] = struct{}{}
	b.mu.Unlock()

	metrics.Subscriptions.Inc()
	return sub
}

// Publish fans an event out to every subscriber of its conversation.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs[ev.ConversationID]))
	for sub := range b.subs[ev.ConversationID] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.push(ev)
	}
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	if set, ok := b.subs[sub.conversationID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.conversationID)
		}
	}
	b.mu.Unlock()
}

func (s *Subscription) push(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.overflow || len(s.queue) >= maxQueue {
		// Keep the fact of the change without unbounded memory: drop the
		// backlog and let the consumer resync. While the resync is still
		// pending, further events are covered by it too.
		s.queue = s.queue[:0]
		s.overflow = true
		metrics.EventsCoalesced.Inc()
	} else {
		s.queue = append(s.queue, ev)
	}
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until an event is available, the context ends, or the
// subscription is closed. After an overflow it returns a single Resync event
// in place of everything that was dropped.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	for {
		s.mu.Lock()
		if s.overflow {
			s.overflow = false
			conv := s.conversationID
			s.mu.Unlock()
			metrics.EventsDelivered.Inc()
			return Event{Type: EventResync, ConversationID: conv}, nil
		}
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			metrics.EventsDelivered.Inc()
			return ev, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return Event{}, ErrSubscriptionClosed
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Close tears the subscription down and unblocks any pending Next.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.broker.remove(s)
	metrics.Subscriptions.Dec()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}
