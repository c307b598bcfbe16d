package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRepository is the append-only message log.
type MessageRepository interface {
	Append(ctx context.Context, m *Message) error
	// ListByConversation returns the full history in ascending order,
	// created_at then seq.
	ListByConversation(ctx context.Context, conversationID string) ([]*Message, error)
	// MarkConversationRead flips every unread message addressed to receiverID
	// in the conversation. Idempotent; returns the number of rows changed.
	MarkConversationRead(ctx context.Context, conversationID string, receiverID uuid.UUID) (int64, error)
	// UnreadCount counts unread messages addressed to receiverID across all
	// conversations.
	UnreadCount(ctx context.Context, receiverID uuid.UUID) (int, error)
}

// ConversationRepository is the inbox directory.
type ConversationRepository interface {
	// Touch upserts the directory entry for the pair, refreshing the cached
	// last message. Repeated sends for the same pair keep a single row.
	Touch(ctx context.Context, a, b uuid.UUID, lastMessage string, at time.Time) error
	// ListForUser returns the user's conversations newest-first by
	// last_message_at.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)
}

// UserDirectory resolves participant details. The identity domain provides
// the production implementation.
type UserDirectory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*Participant, error)
	ListByRole(ctx context.Context, role string) ([]*Participant, error)
}
