package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/healthlink/healthlink/internal/domain/chat"
)

// ChatDirectory adapts the user repository to the chat domain's directory
// contract.
type ChatDirectory struct {
	repo Repository
}

func NewChatDirectory(repo Repository) *ChatDirectory {
	return &ChatDirectory{repo: repo}
}

func (d *ChatDirectory) Lookup(ctx context.Context, id uuid.UUID) (*chat.Participant, error) {
	u, err := d.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, chat.ErrNotFound
		}
		return nil, err
	}
	return &chat.Participant{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}, nil
}

func (d *ChatDirectory) ListByRole(ctx context.Context, role string) ([]*chat.Participant, error) {
	users, err := d.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	out := make([]*chat.Participant, 0, len(users))
	for _, u := range users {
		out = append(out, &chat.Participant{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
	}
	return out, nil
}
