package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybook-backend/internal/apierr"
	"storybook-backend/internal/logger"
	"storybook-backend/internal/models"
	"storybook-backend/internal/prompts"
	"storybook-backend/internal/services"
)

func seedBook(t *testing.T, repo *fakeRepo, userID uuid.UUID, title string, pages int) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	b, err := repo.CreateBook(ctx, userID, "prompt "+title, models.PlaceholderTitle)
	require.NoError(t, err)
	for i := 1; i <= pages; i++ {
		_, err := repo.CreatePage(ctx, models.NewPage{BookID: b.ID, PageNumber: i, Title: title, Content: "c"})
		require.NoError(t, err)
	}
	require.NoError(t, repo.UpdateBookResults(ctx, b.ID, title, nil, pages))
	return b.ID
}

func TestQueryService_GetBookOwnership(t *testing.T) {
	repo := newFakeRepo()
	alice, bob := uuid.New(), uuid.New()
	bobsBook := seedBook(t, repo, bob, "Bob's Book", 1)
	svc := services.NewQueryService(repo, nil, prompts.Default(), logger.Nop())

	_, err := svc.GetBook(context.Background(), alice, &bobsBook)
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	book, err := svc.GetBook(context.Background(), bob, &bobsBook)
	require.NoError(t, err)
	assert.Equal(t, "Bob's Book", book.Title)
}

func TestQueryService_GetBookLatest(t *testing.T) {
	repo := newFakeRepo()
	userID := uuid.New()
	seedBook(t, repo, userID, "Old", 1)
	newest := seedBook(t, repo, userID, "New", 2)
	svc := services.NewQueryService(repo, nil, prompts.Default(), logger.Nop())

	book, err := svc.GetBook(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.Equal(t, newest, book.ID)
	assert.Len(t, book.Pages, 2)

	_, err = svc.GetBook(context.Background(), uuid.New(), nil)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestQueryService_GetBookIsRepeatable(t *testing.T) {
	repo := newFakeRepo()
	userID := uuid.New()
	id := seedBook(t, repo, userID, "Same", 3)
	svc := services.NewQueryService(repo, nil, prompts.Default(), logger.Nop())

	first, err := svc.GetBook(context.Background(), userID, &id)
	require.NoError(t, err)
	second, err := svc.GetBook(context.Background(), userID, &id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQueryService_Unauthenticated(t *testing.T) {
	svc := services.NewQueryService(newFakeRepo(), nil, prompts.Default(), logger.Nop())

	_, err := svc.GetBook(context.Background(), uuid.Nil, nil)
	assert.ErrorIs(t, err, apierr.ErrUnauthenticated)
	_, err = svc.GetUserBooks(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, apierr.ErrUnauthenticated)
}

func TestQueryService_GetUserBooks(t *testing.T) {
	repo := newFakeRepo()
	alice, bob := uuid.New(), uuid.New()
	first := seedBook(t, repo, alice, "First", 2)
	seedBook(t, repo, bob, "Bob's", 1)
	second := seedBook(t, repo, alice, "Second", 0)
	svc := services.NewQueryService(repo, nil, prompts.Default(), logger.Nop())

	books, err := svc.GetUserBooks(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, second, books[0].ID)
	assert.Nil(t, books[0].Cover)
	assert.Equal(t, first, books[1].ID)
	require.NotNil(t, books[1].Cover)
	assert.Equal(t, 1, books[1].Cover.PageNumber)
	for _, b := range books {
		assert.Equal(t, alice, b.UserID)
	}
}

func TestQueryService_GetUserBooksUsesCache(t *testing.T) {
	repo := newFakeRepo()
	userID := uuid.New()
	seedBook(t, repo, userID, "Cached", 1)
	cache := newFakeCache()
	svc := services.NewQueryService(repo, cache, prompts.Default(), logger.Nop())

	first, err := svc.GetUserBooks(context.Background(), userID)
	require.NoError(t, err)
	second, err := svc.GetUserBooks(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.listCalls)
	assert.Len(t, cache.entries[userID].books, 1)

	require.NoError(t, cache.Invalidate(context.Background(), userID))
	_, err = svc.GetUserBooks(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestQueryService_CacheErrorFallsBackToStore(t *testing.T) {
	repo := newFakeRepo()
	userID := uuid.New()
	seedBook(t, repo, userID, "Fallback", 1)
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	svc := services.NewQueryService(repo, cache, prompts.Default(), logger.Nop())

	books, err := svc.GetUserBooks(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestQueryService_ExamplePrompts(t *testing.T) {
	svc := services.NewQueryService(newFakeRepo(), nil, prompts.Default(), logger.Nop())
	assert.NotEmpty(t, svc.ExamplePrompts())
}

// blockingListRepo pauses the first ListBooks after it has read the store,
// then reports the caller's context error like a real driver would.
type blockingListRepo struct {
	*fakeRepo
	listed  chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingListRepo() *blockingListRepo {
	return &blockingListRepo{
		fakeRepo: newFakeRepo(),
		listed:   make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (r *blockingListRepo) ListBooks(ctx context.Context, userID uuid.UUID) ([]models.BookSummary, error) {
	books, err := r.fakeRepo.ListBooks(ctx, userID)
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.listed)
		<-r.release
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return books, err
}

func TestQueryService_FillRacingGenerationIsNotCached(t *testing.T) {
	repo := newBlockingListRepo()
	cache := newFakeCache()
	svc := services.NewQueryService(repo, cache, prompts.Default(), logger.Nop())
	orch := services.NewOrchestrator(repo,
		&fakeStories{story: &models.StoryStructure{Title: "Fresh", Pages: []models.StoryPage{page("a", "a", "")}}},
		&fakeIllustrator{fail: map[string]bool{}},
		services.NewCacheInvalidator(cache, nil, logger.Nop()),
		logger.Nop(),
		services.WithThrottle(0),
	)
	userID := uuid.New()

	before := make(chan []models.BookSummary, 1)
	go func() {
		books, err := svc.GetUserBooks(context.Background(), userID)
		assert.NoError(t, err)
		before <- books
	}()

	<-repo.listed
	_, err := orch.GenerateBook(context.Background(), userID, "a fresh story")
	require.NoError(t, err)
	close(repo.release)
	assert.Empty(t, <-before)

	books, err := svc.GetUserBooks(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Fresh", books[0].Title)
	assert.Equal(t, 2, repo.listCalls)
}

func TestQueryService_FillSurvivesLeaderCancellation(t *testing.T) {
	repo := newBlockingListRepo()
	userID := uuid.New()
	seedBook(t, repo.fakeRepo, userID, "Kept", 1)
	svc := services.NewQueryService(repo, newFakeCache(), prompts.Default(), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		books []models.BookSummary
		err   error
	}
	done := make(chan result, 1)
	go func() {
		books, err := svc.GetUserBooks(ctx, userID)
		done <- result{books, err}
	}()

	<-repo.listed
	cancel()
	close(repo.release)

	res := <-done
	require.NoError(t, res.err)
	assert.Len(t, res.books, 1)
}
