package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/metrics"
)

// TypingSink persists typing signals coming in over the socket so that
// REST pollers and freshly opened sessions see them too.
type TypingSink interface {
	Set(ctx context.Context, conversationID, userID uuid.UUID, typing bool) error
}

// Hub manages all active WebSocket clients and routes events to them.
type Hub struct {
	// clients maps userID → client.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg

	typing TypingSink
	log    *zap.SugaredLogger
}

type broadcastMsg struct {
	conversationID uuid.UUID
	data           []byte
	excludeID      *uuid.UUID // optional: skip this user (e.g. sender)
}

func NewHub(typing TypingSink, log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
		typing:     typing,
		log:        log,
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			// A reconnect supersedes the previous connection for this user.
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
				close(old.done)
				metrics.WSConnections.Dec()
			}
			h.clients[client.userID] = client
			metrics.WSConnections.Inc()
			h.log.Infow("ws client connected", "user_id", client.userID, "total", len(h.clients))

			h.broadcastPresence(client.userID, "online")

		case client := <-h.unregister:
			// Only the current connection may tear down the map entry; a
			// superseded connection's late unregister must not touch its
			// replacement.
			if h.clients[client.userID] == client {
				delete(h.clients, client.userID)
				close(client.send)
				close(client.done)
				metrics.WSConnections.Dec()
				h.log.Infow("ws client disconnected", "user_id", client.userID, "total", len(h.clients))

				h.broadcastPresence(client.userID, "offline")
			}

		case msg := <-h.broadcast:
			for _, client := range h.clients {
				if msg.excludeID != nil && client.userID == *msg.excludeID {
					continue
				}
				if !client.IsSubscribed(msg.conversationID) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					delete(h.clients, client.userID)
					close(client.send)
					close(client.done)
					metrics.WSConnections.Dec()
				}
			}
		}
	}
}

// BroadcastToConversation sends an event to all subscribers of a conversation.
func (h *Hub) BroadcastToConversation(conversationID uuid.UUID, event *Event, excludeUserID *uuid.UUID) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Errorw("ws hub marshal error", "error", err)
		return
	}
	h.broadcast <- &broadcastMsg{
		conversationID: conversationID,
		data:           data,
		excludeID:      excludeUserID,
	}
}

// handleTyping persists a typing flip from a socket client. The persist path
// notifies the services' notifier chain, which is what fans the signal back
// out to other subscribers; the hub never broadcasts typing directly.
func (h *Hub) handleTyping(sender *Client, conversationID uuid.UUID, typing bool) {
	if h.typing == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.typing.Set(ctx, conversationID, sender.userID, typing); err != nil {
		h.log.Debugw("ws typing persist failed",
			"user_id", sender.userID, "conversation_id", conversationID, "error", err)
	}
}

// broadcastPresence sends online/offline to all other connected clients.
func (h *Hub) broadcastPresence(userID uuid.UUID, status string) {
	evt, err := NewEvent(EventTypePresence, nil, PresencePayload{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	for _, client := range h.clients {
		if client.userID == userID {
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}
