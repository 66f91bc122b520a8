package delivery

import "github.com/google/uuid"

// Event types pushed to subscribers. Events are signals, not state: they
// carry identities only, and consumers reconcile by re-querying the store.
const (
	EventMessageInserted = "message.inserted"
	EventMessageUpdated  = "message.updated"
	EventTyping          = "typing"
	// EventResync replaces a run of events a slow subscriber missed; the
	// consumer should re-fetch the conversation instead of applying deltas.
	EventResync = "resync"
)

type Event struct {
	Type           string
	ConversationID uuid.UUID
	MessageID      uuid.UUID
	UserID         uuid.UUID
	Typing         bool
}
