package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Client represents a single WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	// subscriptions tracks which conversations this client listens to.
	subscriptions map[uuid.UUID]struct{}
	mu            sync.RWMutex

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		userID:        userID,
		subscriptions: make(map[uuid.UUID]struct{}),
		send:          make(chan []byte, sendBufSize),
		done:          make(chan struct{}),
	}
}

// IsSubscribed checks if this client is subscribed to a conversation.
func (c *Client) IsSubscribed(conversationID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[conversationID]
	return ok
}

// Subscribe adds a conversation subscription.
func (c *Client) Subscribe(conversationID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[conversationID] = struct{}{}
}

// Unsubscribe removes a conversation subscription.
func (c *Client) Unsubscribe(conversationID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, conversationID)
}

// ReadPump reads events from the WebSocket and routes them to the Hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.hub.log.Debugw("ws client closed", "user_id", c.userID)
			} else {
				c.hub.log.Debugw("ws read error", "user_id", c.userID, "error", err)
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes events from the send channel to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.log.Debugw("ws write error", "user_id", c.userID, "error", err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.hub.log.Debugw("ws ping error", "user_id", c.userID, "error", err)
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes an incoming client event.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeSubscribe:
		var p ConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid conversation.subscribe payload")
			return
		}
		c.Subscribe(p.ConversationID)

	case EventTypeUnsubscribe:
		var p ConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid conversation.unsubscribe payload")
			return
		}
		c.Unsubscribe(p.ConversationID)

	case EventTypeTypingStart, EventTypeTypingStop:
		if event.ConversationID == nil {
			c.sendError("INVALID_PAYLOAD", "conversation_id required for typing events")
			return
		}
		c.hub.handleTyping(c, *event.ConversationID, event.Type == EventTypeTypingStart)

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong})
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, nil, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
