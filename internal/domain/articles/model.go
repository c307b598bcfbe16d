// Package articles implements doctor-authored health education content with
// a published listing, category filter and per-article view counter.
package articles

import (
	"time"

	"github.com/google/uuid"
)

const defaultThumbnail = "https://images.unsplash.com/photo-1576091160399-112ba8d25d1d?w=800"

var categories = map[string]bool{
	"general":       true,
	"nutrition":     true,
	"mental-health": true,
	"fitness":       true,
	"diseases":      true,
	"prevention":    true,
}

// PersonRef is the joined-in summary of the author.
type PersonRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type Article struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Thumbnail string    `json:"thumbnail"`
	Category  string    `json:"category"`
	AuthorID  uuid.UUID `json:"authorId"`
	Published bool      `json:"published"`
	Views     int       `json:"views"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Author *PersonRef `json:"author,omitempty"`
}

func ValidCategory(c string) bool {
	return categories[c]
}
