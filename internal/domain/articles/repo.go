package articles

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows the published listing.
type ListFilter struct {
	Category string
	Search   string
}

type Repository interface {
	Create(ctx context.Context, a *Article) error
	GetByID(ctx context.Context, id uuid.UUID) (*Article, error)
	// ListPublished returns published articles newest-first.
	ListPublished(ctx context.Context, f ListFilter, limit, offset int) ([]*Article, int, error)
	Update(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IncrementViews bumps the counter without racing concurrent readers.
	IncrementViews(ctx context.Context, id uuid.UUID) error
}
