package delivery

import "github.com/google/uuid"

// The broker doubles as the services' Notifier, translating store mutations
// into change events for subscribed sessions.

func (b *Broker) NotifyMessageInserted(conversationID, messageID uuid.UUID) {
	b.Publish(Event{Type: EventMessageInserted, ConversationID: conversationID, MessageID: messageID})
}

func (b *Broker) NotifyMessageUpdated(conversationID, messageID uuid.UUID) {
	b.Publish(Event{Type: EventMessageUpdated, ConversationID: conversationID, MessageID: messageID})
}

func (b *Broker) NotifyTyping(conversationID, userID uuid.UUID, typing bool) {
	b.Publish(Event{Type: EventTyping, ConversationID: conversationID, UserID: userID, Typing: typing})
}
