package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"storybook-backend/internal/apierr"
	"storybook-backend/internal/logger"
	"storybook-backend/internal/models"
	"storybook-backend/internal/prompts"
)

// QueryService serves the read side: single books, the bookshelf and example prompts.
type QueryService struct {
	repo    BookRepository
	cache   BookshelfCache
	prompts *prompts.Pack
	log     *logger.Logger
	group   singleflight.Group
}

// NewQueryService builds the read service. cache may be nil.
func NewQueryService(repo BookRepository, cache BookshelfCache, pack *prompts.Pack, log *logger.Logger) *QueryService {
	return &QueryService{
		repo:    repo,
		cache:   cache,
		prompts: pack,
		log:     log.With("service", "QueryService"),
	}
}

// GetBook returns the caller's book by id, or their most recently updated book
// when bookID is nil.
func (s *QueryService) GetBook(ctx context.Context, userID uuid.UUID, bookID *uuid.UUID) (*models.BookWithPages, error) {
	if userID == uuid.Nil {
		return nil, apierr.ErrUnauthenticated
	}

	var (
		book *models.BookWithPages
		err  error
	)
	if bookID != nil {
		book, err = s.repo.GetBook(ctx, *bookID, userID)
	} else {
		book, err = s.repo.GetLatestBook(ctx, userID)
	}
	if err != nil {
		return nil, classify(err)
	}
	return book, nil
}

// GetUserBooks lists the caller's books, most recently updated first, each with its cover page.
func (s *QueryService) GetUserBooks(ctx context.Context, userID uuid.UUID) ([]models.BookSummary, error) {
	if userID == uuid.Nil {
		return nil, apierr.ErrUnauthenticated
	}

	if s.cache != nil {
		books, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.log.Warn("bookshelf cache read failed", "user_id", userID.String(), "error", err)
		} else if ok {
			return books, nil
		}
	}

	v, err, _ := s.group.Do(userID.String(), func() (interface{}, error) {
		// The flight outlives any single caller.
		ctx := context.WithoutCancel(ctx)

		version, cacheable := int64(0), s.cache != nil
		if cacheable {
			var err error
			if version, err = s.cache.Version(ctx, userID); err != nil {
				s.log.Warn("bookshelf cache version read failed", "user_id", userID.String(), "error", err)
				cacheable = false
			}
		}

		books, err := s.repo.ListBooks(ctx, userID)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if err := s.cache.Set(ctx, userID, version, books); err != nil {
				s.log.Warn("bookshelf cache write failed", "user_id", userID.String(), "error", err)
			}
		}
		return books, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return v.([]models.BookSummary), nil
}

func (s *QueryService) ExamplePrompts() []prompts.Example {
	return s.prompts.Examples
}

// classify keeps typed errors and wraps anything else as INTERNAL_ERROR.
func classify(err error) error {
	var e *apierr.Error
	if errors.As(err, &e) {
		return err
	}
	return apierr.Internal(err)
}
