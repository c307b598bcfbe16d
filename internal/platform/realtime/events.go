// Package realtime implements the WebSocket gateway: authenticated
// connections, a presence registry mapping users to live connections, and
// best-effort routing of chat events between peers. Delivery here is a
// notification hint only; the HTTP-persisted message log is the source of
// truth and clients reconcile against it.
package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types accepted from clients.
const (
	EventSendMessage = "send-message"
	EventTyping      = "typing"
)

// Event types pushed to clients.
const (
	EventReceiveMessage = "receive-message"
	EventUserTyping     = "user-typing"
	EventUserOnline     = "user-online"
	EventUserOffline    = "user-offline"
)

// Envelope is the wire frame for every gateway event in either direction.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is the client request to push a message to a peer.
// ConversationID is accepted for wire compatibility but ignored; the gateway
// re-derives the key from the authenticated sender and the receiver.
type SendMessagePayload struct {
	ReceiverID     uuid.UUID `json:"receiverId"`
	Message        string    `json:"message"`
	ConversationID string    `json:"conversationId,omitempty"`
}

// TypingPayload is the client notification that the sender started or
// stopped typing to a peer.
type TypingPayload struct {
	ReceiverID uuid.UUID `json:"receiverId"`
	IsTyping   bool      `json:"isTyping"`
}

// ReceiveMessagePayload is pushed to the receiver of a send-message event.
// SenderID always reflects the authenticated identity of the sending
// connection, never the payload.
type ReceiveMessagePayload struct {
	SenderID       uuid.UUID `json:"senderId"`
	Message        string    `json:"message"`
	ConversationID string    `json:"conversationId"`
	Timestamp      time.Time `json:"timestamp"`
}

// UserTypingPayload is pushed to the receiver of a typing event.
type UserTypingPayload struct {
	SenderID uuid.UUID `json:"senderId"`
	IsTyping bool      `json:"isTyping"`
}

// PresencePayload announces a user coming online or going offline. It is
// fanned out to every connection, not just conversation peers.
type PresencePayload struct {
	UserID uuid.UUID `json:"userId"`
}

// NewEnvelope marshals a payload into a typed envelope frame.
func NewEnvelope(eventType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{Type: eventType, Data: data})
}
