package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storybook-backend/internal/logger"
	"storybook-backend/internal/supabase"
)

const invalidateTimeout = 5 * time.Second

// CacheInvalidator drops the user's cached bookshelf and tells connected
// clients to refresh. Either collaborator may be nil. Failures are logged only.
type CacheInvalidator struct {
	cache       BookshelfCache
	broadcaster Broadcaster
	log         *logger.Logger
}

func NewCacheInvalidator(cache BookshelfCache, broadcaster Broadcaster, log *logger.Logger) *CacheInvalidator {
	return &CacheInvalidator{
		cache:       cache,
		broadcaster: broadcaster,
		log:         log.With("service", "CacheInvalidator"),
	}
}

func (i *CacheInvalidator) BooksChanged(ctx context.Context, userID, bookID uuid.UUID, paths []string) {
	ctx, cancel := context.WithTimeout(ctx, invalidateTimeout)
	defer cancel()

	if i.cache != nil {
		if err := i.cache.Invalidate(ctx, userID); err != nil {
			i.log.Warn("failed to invalidate bookshelf cache", "user_id", userID.String(), "error", err)
		}
	}
	if i.broadcaster != nil {
		payload := supabase.BooksChangedPayload(bookID, paths)
		if err := i.broadcaster.PublishUserEvent(ctx, userID, supabase.EventBooksChanged, payload); err != nil {
			i.log.Warn("failed to broadcast books change", "user_id", userID.String(), "error", err)
		}
	}
	i.log.Debug("books changed", "user_id", userID.String(), "book_id", bookID.String(), "paths", paths)
}
