package service

import "github.com/google/uuid"

// Notifier pushes change signals to live subscribers. Notifications carry
// identities only; consumers re-query the store for authoritative state.
type Notifier interface {
	NotifyMessageInserted(conversationID, messageID uuid.UUID)
	NotifyMessageUpdated(conversationID, messageID uuid.UUID)
	NotifyTyping(conversationID, userID uuid.UUID, typing bool)
}

// MultiNotifier fans a notification out to several notifiers (the in-process
// broker for sessions, the websocket hub for browsers).
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyMessageInserted(conversationID, messageID uuid.UUID) {
	for _, n := range m {
		n.NotifyMessageInserted(conversationID, messageID)
	}
}

func (m MultiNotifier) NotifyMessageUpdated(conversationID, messageID uuid.UUID) {
	for _, n := range m {
		n.NotifyMessageUpdated(conversationID, messageID)
	}
}

func (m MultiNotifier) NotifyTyping(conversationID, userID uuid.UUID, typing bool) {
	for _, n := range m {
		n.NotifyTyping(conversationID, userID, typing)
	}
}
