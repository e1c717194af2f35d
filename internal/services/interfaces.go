package services

import (
	"context"

	"github.com/google/uuid"
	"storybook-backend/internal/imagen"
	"storybook-backend/internal/models"
)

// BookRepository is the relational store for books and pages. Every read is
// scoped to the owning user.
type BookRepository interface {
	CreateBook(ctx context.Context, userID uuid.UUID, prompt, title string) (*models.Book, error)
	CreatePage(ctx context.Context, p models.NewPage) (*models.Page, error)
	UpdatePageImage(ctx context.Context, pageID uuid.UUID, imageURL string) error
	UpdateBookResults(ctx context.Context, bookID uuid.UUID, title string, subtitle *string, totalPages int) error
	GetBook(ctx context.Context, bookID, userID uuid.UUID) (*models.BookWithPages, error)
	GetLatestBook(ctx context.Context, userID uuid.UUID) (*models.BookWithPages, error)
	ListBooks(ctx context.Context, userID uuid.UUID) ([]models.BookSummary, error)
}

// TextGenerator is one chat-style completion call.
type TextGenerator interface {
	GenerateText(ctx context.Context, req models.TextRequest) (string, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, opts imagen.Options) (string, error)
	DownloadFile(ctx context.Context, url string) ([]byte, error)
}

// ImageStore is durable public object storage for illustrations.
type ImageStore interface {
	Upload(ctx context.Context, dataURL, folder string) (*models.StoredImage, error)
	Delete(ctx context.Context, publicID string) error
}

type StoryGenerator interface {
	Generate(ctx context.Context, idea string) (*models.StoryStructure, error)
}

type Illustrator interface {
	Illustrate(ctx context.Context, description string) (*models.StoredImage, error)
	Discard(ctx context.Context, img *models.StoredImage) error
}

type BookshelfCache interface {
	Version(ctx context.Context, userID uuid.UUID) (int64, error)
	Get(ctx context.Context, userID uuid.UUID) ([]models.BookSummary, bool, error)
	Set(ctx context.Context, userID uuid.UUID, version int64, books []models.BookSummary) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// Invalidator is told once per successful generation which views are stale.
type Invalidator interface {
	BooksChanged(ctx context.Context, userID, bookID uuid.UUID, paths []string)
}

type Broadcaster interface {
	PublishUserEvent(ctx context.Context, userID uuid.UUID, event string, payload map[string]interface{}) error
}
