package ws

import (
	"github.com/google/uuid"
)

// HubNotifier implements service.Notifier on the WebSocket Hub. Events carry
// identities only; connected clients re-fetch through the REST API.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyMessageInserted(conversationID, messageID uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageNew, &conversationID, MessageRefPayload{MessageID: messageID})
	if err != nil {
		n.hub.log.Errorw("ws notifier marshal error", "error", err)
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, nil)
}

func (n *HubNotifier) NotifyMessageUpdated(conversationID, messageID uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageUpdated, &conversationID, MessageRefPayload{MessageID: messageID})
	if err != nil {
		n.hub.log.Errorw("ws notifier marshal error", "error", err)
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, nil)
}

// NotifyTyping excludes the typing user: their own signal is never useful to
// them, and excluding it here keeps socket-originated typing from echoing.
func (n *HubNotifier) NotifyTyping(conversationID, userID uuid.UUID, typing bool) {
	evt, err := NewEvent(EventTypeTyping, &conversationID, TypingPayload{UserID: userID, Typing: typing})
	if err != nil {
		n.hub.log.Errorw("ws notifier marshal error", "error", err)
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, &userID)
}
