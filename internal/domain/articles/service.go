package articles

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Thumbnail string `json:"thumbnail"`
	Category  string `json:"category"`
}

func (s *Service) Create(ctx context.Context, authorID uuid.UUID, in CreateInput) (*Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)

	if in.Title == "" {
		return nil, validationErr("title is required")
	}
	if in.Content == "" {
		return nil, validationErr("content is required")
	}
	if in.Category == "" {
		in.Category = "general"
	}
	if !ValidCategory(in.Category) {
		return nil, validationErr("unknown category")
	}
	if in.Thumbnail == "" {
		in.Thumbnail = defaultThumbnail
	}

	a := &Article{
		Title:     in.Title,
		Content:   in.Content,
		Thumbnail: in.Thumbnail,
		Category:  in.Category,
		AuthorID:  authorID,
		Published: true,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListPublished(ctx context.Context, f ListFilter, limit, offset int) ([]*Article, int, error) {
	if f.Category != "" && !ValidCategory(f.Category) {
		return nil, 0, validationErr("unknown category")
	}
	return s.repo.ListPublished(ctx, f, limit, offset)
}

// Get returns an article and counts the read.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Article, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	a.Views++
	return a, nil
}

type UpdateInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Thumbnail string `json:"thumbnail"`
	Category  string `json:"category"`
	Published *bool  `json:"published"`
}

// Update applies the provided fields. Only the author may update.
func (s *Service) Update(ctx context.Context, id, requesterID uuid.UUID, in UpdateInput) (*Article, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != requesterID {
		return nil, ErrForbidden
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		a.Title = title
	}
	if content := strings.TrimSpace(in.Content); content != "" {
		a.Content = content
	}
	if in.Thumbnail != "" {
		a.Thumbnail = in.Thumbnail
	}
	if in.Category != "" {
		if !ValidCategory(in.Category) {
			return nil, validationErr("unknown category")
		}
		a.Category = in.Category
	}
	if in.Published != nil {
		a.Published = *in.Published
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes an article. Only the author may delete.
func (s *Service) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.AuthorID != requesterID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
