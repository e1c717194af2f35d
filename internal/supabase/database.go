package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"storybook-backend/internal/apierr"
	"storybook-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

const bookColumns = `id, user_id, prompt, title, subtitle, total_pages, created_at, updated_at`
const pageColumns = `id, book_id, page_number, title, content, image_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner, book *models.Book) error {
	return row.Scan(
		&book.ID, &book.UserID, &book.Prompt, &book.Title, &book.Subtitle,
		&book.TotalPages, &book.CreatedAt, &book.UpdatedAt,
	)
}

func scanPage(row rowScanner, page *models.Page) error {
	return row.Scan(
		&page.ID, &page.BookID, &page.PageNumber, &page.Title, &page.Content,
		&page.ImageURL, &page.CreatedAt, &page.UpdatedAt,
	)
}

func (d *DatabaseClient) CreateBook(ctx context.Context, userID uuid.UUID, prompt, title string) (*models.Book, error) {
	var book models.Book
	err := scanBook(d.db.QueryRowContext(ctx, `
		INSERT INTO books (id, user_id, prompt, title, subtitle, total_pages)
		VALUES ($1, $2, $3, $4, NULL, 0)
		RETURNING `+bookColumns,
		uuid.New(), userID, prompt, title,
	), &book)
	if err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	return &book, nil
}

func (d *DatabaseClient) CreatePage(ctx context.Context, p models.NewPage) (*models.Page, error) {
	var page models.Page
	err := scanPage(d.db.QueryRowContext(ctx, `
		INSERT INTO pages (id, book_id, page_number, title, content, image_url)
		VALUES ($1, $2, $3, $4, $5, NULL)
		RETURNING `+pageColumns,
		uuid.New(), p.BookID, p.PageNumber, p.Title, p.Content,
	), &page)
	if err != nil {
		return nil, fmt.Errorf("failed to create page %d: %w", p.PageNumber, err)
	}

	return &page, nil
}

func (d *DatabaseClient) UpdatePageImage(ctx context.Context, pageID uuid.UUID, imageURL string) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE pages
		SET image_url = $1
		WHERE id = $2
	`, imageURL, pageID)
	if err != nil {
		return fmt.Errorf("failed to update page image: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update page image: %w", apierr.ErrNotFound)
	}
	return nil
}

func (d *DatabaseClient) UpdateBookResults(ctx context.Context, bookID uuid.UUID, title string, subtitle *string, totalPages int) error {
	sub := sql.NullString{}
	if subtitle != nil {
		sub = sql.NullString{String: *subtitle, Valid: true}
	}

	_, err := d.db.ExecContext(ctx, `
		UPDATE books
		SET title = $1, subtitle = $2, total_pages = $3
		WHERE id = $4
	`, title, sub, totalPages, bookID)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	return nil
}

// GetBook returns the book with its pages in page order, scoped to its owner.
func (d *DatabaseClient) GetBook(ctx context.Context, bookID, userID uuid.UUID) (*models.BookWithPages, error) {
	var book models.BookWithPages
	err := scanBook(d.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE id = $1 AND user_id = $2
	`, bookID, userID), &book.Book)
	if err != nil {
		return nil, wrapNotFound("failed to get book", err)
	}

	book.Pages, err = d.listPages(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (d *DatabaseClient) GetLatestBook(ctx context.Context, userID uuid.UUID) (*models.BookWithPages, error) {
	var book models.BookWithPages
	err := scanBook(d.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, userID), &book.Book)
	if err != nil {
		return nil, wrapNotFound("failed to get latest book", err)
	}

	book.Pages, err = d.listPages(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns the user's books, most recently updated first, each with only its first page.
func (d *DatabaseClient) ListBooks(ctx context.Context, userID uuid.UUID) ([]models.BookSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.prompt, b.title, b.subtitle, b.total_pages, b.created_at, b.updated_at,
		       p.id, p.book_id, p.page_number, p.title, p.content, p.image_url, p.created_at, p.updated_at
		FROM books b
		LEFT JOIN LATERAL (
			SELECT * FROM pages
			WHERE pages.book_id = b.id
			ORDER BY page_number ASC
			LIMIT 1
		) p ON TRUE
		WHERE b.user_id = $1
		ORDER BY b.updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := make([]models.BookSummary, 0)
	for rows.Next() {
		var s models.BookSummary
		var cover nullablePage
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Prompt, &s.Title, &s.Subtitle, &s.TotalPages, &s.CreatedAt, &s.UpdatedAt,
			&cover.ID, &cover.BookID, &cover.PageNumber, &cover.Title, &cover.Content,
			&cover.ImageURL, &cover.CreatedAt, &cover.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		s.Cover = cover.page()
		books = append(books, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	return books, nil
}

func (d *DatabaseClient) listPages(ctx context.Context, bookID uuid.UUID) ([]models.Page, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+pageColumns+`
		FROM pages
		WHERE book_id = $1
		ORDER BY page_number ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	pages := make([]models.Page, 0)
	for rows.Next() {
		var page models.Page
		if err := scanPage(rows, &page); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}

	return pages, nil
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

// nullablePage receives the LEFT JOIN side of ListBooks.
type nullablePage struct {
	ID         uuid.NullUUID
	BookID     uuid.NullUUID
	PageNumber sql.NullInt64
	Title      sql.NullString
	Content    sql.NullString
	ImageURL   sql.NullString
	CreatedAt  sql.NullTime
	UpdatedAt  sql.NullTime
}

func (n nullablePage) page() *models.Page {
	if !n.ID.Valid {
		return nil
	}
	return &models.Page{
		ID:         n.ID.UUID,
		BookID:     n.BookID.UUID,
		PageNumber: int(n.PageNumber.Int64),
		Title:      n.Title.String,
		Content:    n.Content.String,
		ImageURL:   n.ImageURL,
		CreatedAt:  n.CreatedAt.Time,
		UpdatedAt:  n.UpdatedAt.Time,
	}
}

func wrapNotFound(msg string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, apierr.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
