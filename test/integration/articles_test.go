package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/healthlink/healthlink/internal/domain/articles"
	"github.com/healthlink/healthlink/internal/domain/identity"
)

func TestArticleViewsAndListing(t *testing.T) {
	ctx := context.Background()
	repo := articles.NewRepoPG(globalPool)

	author := createTestUser(t, ctx, identity.RoleDoctor)
	marker := uuid.NewString()

	a := &articles.Article{
		Title:     "Managing seasonal allergies " + marker,
		Content:   "Antihistamines and avoidance.",
		Thumbnail: "https://example.test/thumb.jpg",
		Category:  "prevention",
		AuthorID:  author.ID,
		Published: true,
	}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Views != 0 {
		t.Fatalf("new article should start at 0 views, got %d", a.Views)
	}

	if err := repo.IncrementViews(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Views != 1 {
		t.Errorf("expected 1 view, got %d", got.Views)
	}
	if got.Author == nil || got.Author.ID != author.ID {
		t.Errorf("author not joined in: %+v", got.Author)
	}

	t.Run("SearchFilter", func(t *testing.T) {
		items, total, err := repo.ListPublished(ctx, articles.ListFilter{Search: marker}, 10, 0)
		if err != nil {
			t.Fatal(err)
		}
		if total != 1 || len(items) != 1 || items[0].ID != a.ID {
			t.Fatalf("search by marker should find exactly the one article, got %d", total)
		}
	})

	t.Run("UnpublishedHidden", func(t *testing.T) {
		got.Published = false
		if err := repo.Update(ctx, got); err != nil {
			t.Fatal(err)
		}
		_, total, err := repo.ListPublished(ctx, articles.ListFilter{Search: marker}, 10, 0)
		if err != nil {
			t.Fatal(err)
		}
		if total != 0 {
			t.Errorf("unpublished article must not be listed, got %d", total)
		}
	})
}
