package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	// PlaceholderTitle marks a book whose generation has not been reconciled yet.
	PlaceholderTitle = "Generating..."
	UntitledTitle    = "Untitled Storybook"
	// PlaceholderPageContent is stored when the story omitted a page body.
	PlaceholderPageContent = "Generating content..."
)

type Book struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Prompt     string
	Title      string
	Subtitle   sql.NullString
	TotalPages int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (b *Book) IsPlaceholder() bool {
	return b.Title == PlaceholderTitle && b.TotalPages == 0
}

type Page struct {
	ID         uuid.UUID
	BookID     uuid.UUID
	PageNumber int
	Title      string
	Content    string
	ImageURL   sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type BookWithPages struct {
	Book
	Pages []Page
}

// BookSummary is a bookshelf entry; Cover is the first page, if any.
type BookSummary struct {
	Book
	Cover *Page
}

// NewPage carries the values for one page insert.
type NewPage struct {
	BookID     uuid.UUID
	PageNumber int
	Title      string
	Content    string
}

// StoredImage is an object held by the durable image store.
type StoredImage struct {
	PublicID string
	URL      string
}
