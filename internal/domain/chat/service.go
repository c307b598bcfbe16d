package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// TxRunner executes fn atomically. Production wires db.InTx; tests pass nil
// and get plain sequential execution.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	messages MessageRepository
	convs    ConversationRepository
	users    UserDirectory
	inTx     TxRunner
}

func NewService(messages MessageRepository, convs ConversationRepository, users UserDirectory, inTx TxRunner) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{messages: messages, convs: convs, users: users, inTx: inTx}
}

// SendMessage persists a message and refreshes the conversation directory in
// one transaction, then returns the message enriched with both participants.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationErr("message body is required")
	}
	if receiverID == uuid.Nil {
		return nil, validationErr("receiverId is required")
	}
	if senderID == receiverID {
		return nil, validationErr("cannot send a message to yourself")
	}

	sender, err := s.users.Lookup(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.users.Lookup(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	// Patients talk to doctors and doctors to patients, never same-role pairs.
	if sender.Role == receiver.Role {
		return nil, ErrForbidden
	}

	m := &Message{
		ConversationID: ConversationKey(senderID, receiverID),
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           body,
	}
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.messages.Append(ctx, m); err != nil {
			return err
		}
		return s.convs.Touch(ctx, senderID, receiverID, m.Body, m.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	m.Sender = sender
	m.Receiver = receiver
	return m, nil
}

// ListMessages returns the full history with the peer in ascending order and
// then marks everything addressed to the caller as read. The returned
// messages carry their pre-read state, matching what the caller saw.
func (s *Service) ListMessages(ctx context.Context, userID, peerID uuid.UUID) ([]*Message, error) {
	if peerID == uuid.Nil {
		return nil, validationErr("peer id is required")
	}

	key := ConversationKey(userID, peerID)
	items, err := s.messages.ListByConversation(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := s.enrich(ctx, items); err != nil {
		return nil, err
	}

	if _, err := s.messages.MarkConversationRead(ctx, key, userID); err != nil {
		return nil, err
	}
	return items, nil
}

// ListConversations returns the caller's inbox, newest activity first, with
// participant details resolved.
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	items, err := s.convs.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cache := map[uuid.UUID]*Participant{}
	for _, cv := range items {
		for _, pid := range []uuid.UUID{cv.ParticipantLow, cv.ParticipantHigh} {
			p, ok := cache[pid]
			if !ok {
				p, err = s.users.Lookup(ctx, pid)
				if err != nil {
					return nil, err
				}
				cache[pid] = p
			}
			cv.Participants = append(cv.Participants, *p)
		}
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.messages.UnreadCount(ctx, userID)
}

// AvailableUsers lists who the caller may start a conversation with: the
// opposite role.
func (s *Service) AvailableUsers(ctx context.Context, callerRole string) ([]*Participant, error) {
	target := "patient"
	if callerRole == "patient" {
		target = "doctor"
	}
	return s.users.ListByRole(ctx, target)
}

// enrich resolves sender and receiver details for a message listing. Each
// distinct user is looked up once.
func (s *Service) enrich(ctx context.Context, items []*Message) error {
	cache := map[uuid.UUID]*Participant{}
	lookup := func(id uuid.UUID) (*Participant, error) {
		if p, ok := cache[id]; ok {
			return p, nil
		}
		p, err := s.users.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		cache[id] = p
		return p, nil
	}

	for _, m := range items {
		sender, err := lookup(m.SenderID)
		if err != nil {
			return err
		}
		receiver, err := lookup(m.ReceiverID)
		if err != nil {
			return err
		}
		m.Sender = sender
		m.Receiver = receiver
	}
	return nil
}
