package services_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storybook-backend/internal/apierr"
	"storybook-backend/internal/imagen"
	"storybook-backend/internal/models"
)

type fakeRepo struct {
	mu    sync.Mutex
	clock int64
	books map[uuid.UUID]*models.Book
	pages map[uuid.UUID][]models.Page

	pageCalls       int
	failPageInserts map[int]bool // 1-based CreatePage call numbers that fail
	failImageUpdate bool
	listCalls       int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		books:           map[uuid.UUID]*models.Book{},
		pages:           map[uuid.UUID][]models.Page{},
		failPageInserts: map[int]bool{},
	}
}

func (r *fakeRepo) tick() time.Time {
	r.clock++
	return time.Unix(1700000000+r.clock, 0).UTC()
}

func (r *fakeRepo) CreateBook(ctx context.Context, userID uuid.UUID, prompt, title string) (*models.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.tick()
	b := &models.Book{
		ID:        uuid.New(),
		UserID:    userID,
		Prompt:    prompt,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.books[b.ID] = b
	cp := *b
	return &cp, nil
}

func (r *fakeRepo) CreatePage(ctx context.Context, p models.NewPage) (*models.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageCalls++
	if r.failPageInserts[r.pageCalls] {
		return nil, errors.New("connection reset by peer")
	}
	for _, existing := range r.pages[p.BookID] {
		if existing.PageNumber == p.PageNumber {
			return nil, fmt.Errorf("duplicate page number %d", p.PageNumber)
		}
	}
	now := r.tick()
	page := models.Page{
		ID:         uuid.New(),
		BookID:     p.BookID,
		PageNumber: p.PageNumber,
		Title:      p.Title,
		Content:    p.Content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.pages[p.BookID] = append(r.pages[p.BookID], page)
	return &page, nil
}

func (r *fakeRepo) UpdatePageImage(ctx context.Context, pageID uuid.UUID, imageURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failImageUpdate {
		return errors.New("update failed")
	}
	for bookID, pages := range r.pages {
		for i := range pages {
			if pages[i].ID == pageID {
				r.pages[bookID][i].ImageURL = sql.NullString{String: imageURL, Valid: true}
				return nil
			}
		}
	}
	return apierr.ErrNotFound
}

func (r *fakeRepo) UpdateBookResults(ctx context.Context, bookID uuid.UUID, title string, subtitle *string, totalPages int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[bookID]
	if !ok {
		return apierr.ErrNotFound
	}
	b.Title = title
	b.Subtitle = sql.NullString{}
	if subtitle != nil {
		b.Subtitle = sql.NullString{String: *subtitle, Valid: true}
	}
	b.TotalPages = totalPages
	b.UpdatedAt = r.tick()
	return nil
}

func (r *fakeRepo) GetBook(ctx context.Context, bookID, userID uuid.UUID) (*models.BookWithPages, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[bookID]
	if !ok || b.UserID != userID {
		return nil, fmt.Errorf("failed to get book: %w", apierr.ErrNotFound)
	}
	return r.withPages(b), nil
}

func (r *fakeRepo) GetLatestBook(ctx context.Context, userID uuid.UUID) (*models.BookWithPages, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Book
	for _, b := range r.books {
		if b.UserID == userID && (latest == nil || b.UpdatedAt.After(latest.UpdatedAt)) {
			latest = b
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("failed to get latest book: %w", apierr.ErrNotFound)
	}
	return r.withPages(latest), nil
}

func (r *fakeRepo) ListBooks(ctx context.Context, userID uuid.UUID) ([]models.BookSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	out := []models.BookSummary{}
	for _, b := range r.books {
		if b.UserID != userID {
			continue
		}
		s := models.BookSummary{Book: *b}
		if full := r.withPages(b); len(full.Pages) > 0 {
			cover := full.Pages[0]
			s.Cover = &cover
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeRepo) withPages(b *models.Book) *models.BookWithPages {
	pages := append([]models.Page(nil), r.pages[b.ID]...)
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return &models.BookWithPages{Book: *b, Pages: pages}
}

func (r *fakeRepo) pagesOf(bookID uuid.UUID) []models.Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.withPages(r.books[bookID]).Pages
}

func (r *fakeRepo) onlyBook() *models.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		cp := *b
		return &cp
	}
	return nil
}

type fakeStories struct {
	story *models.StoryStructure
	err   error
	calls int
}

func (f *fakeStories) Generate(ctx context.Context, idea string) (*models.StoryStructure, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.story, nil
}

type fakeIllustrator struct {
	fail      map[string]bool
	calls     []string
	discarded []string
	n         int
}

func (f *fakeIllustrator) Illustrate(ctx context.Context, description string) (*models.StoredImage, error) {
	f.calls = append(f.calls, description)
	if f.fail[description] {
		return nil, imagen.ErrNoImage
	}
	f.n++
	return &models.StoredImage{
		PublicID: fmt.Sprintf("NovelSmith/img-%d.png", f.n),
		URL:      fmt.Sprintf("https://cdn.example.com/NovelSmith/img-%d.png", f.n),
	}, nil
}

func (f *fakeIllustrator) Discard(ctx context.Context, img *models.StoredImage) error {
	f.discarded = append(f.discarded, img.PublicID)
	return nil
}

type invalidation struct {
	userID, bookID uuid.UUID
	paths          []string
}

type fakeInvalidator struct {
	calls []invalidation
}

func (f *fakeInvalidator) BooksChanged(ctx context.Context, userID, bookID uuid.UUID, paths []string) {
	f.calls = append(f.calls, invalidation{userID: userID, bookID: bookID, paths: paths})
}

type cachedShelf struct {
	version int64
	books   []models.BookSummary
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]cachedShelf
	versions    map[uuid.UUID]int64
	getErr      error
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:  map[uuid.UUID]cachedShelf{},
		versions: map[uuid.UUID]int64{},
	}
}

func (c *fakeCache) Version(ctx context.Context, userID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[userID], nil
}

func (c *fakeCache) Get(ctx context.Context, userID uuid.UUID) ([]models.BookSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	e, ok := c.entries[userID]
	if !ok || e.version != c.versions[userID] {
		return nil, false, nil
	}
	return e.books, true, nil
}

func (c *fakeCache) Set(ctx context.Context, userID uuid.UUID, version int64, books []models.BookSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = cachedShelf{version: version, books: books}
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, userID)
	c.versions[userID]++
	delete(c.entries, userID)
	return nil
}

func strPtr(s string) *string { return &s }
