package chat

import (
	"time"

	"github.com/google/uuid"
)

// Participant is the slice of a user the chat surface exposes.
type Participant struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Role  string    `json:"role"`
}

// Message is one persisted chat message. Seq breaks ordering ties between
// messages created within the same timestamp.
type Message struct {
	ID             uuid.UUID `json:"id"`
	Seq            int64     `json:"-"`
	ConversationID string    `json:"conversationId"`
	SenderID       uuid.UUID `json:"senderId"`
	ReceiverID     uuid.UUID `json:"receiverId"`
	Body           string    `json:"message"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`

	Sender   *Participant `json:"sender,omitempty"`
	Receiver *Participant `json:"receiver,omitempty"`
}

// Conversation is a directory entry: one row per user pair, caching the last
// message so the inbox renders without touching the message log.
type Conversation struct {
	ID             uuid.UUID `json:"id"`
	ConversationID string    `json:"conversationId"`

	// Stored in ConversationKey order.
	ParticipantLow  uuid.UUID `json:"-"`
	ParticipantHigh uuid.UUID `json:"-"`

	Participants  []Participant `json:"participants"`
	LastMessage   string        `json:"lastMessage"`
	LastMessageAt time.Time     `json:"lastMessageAt"`
}
