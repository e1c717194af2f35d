package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybook-backend/internal/logger"
	"storybook-backend/internal/services"
)

type fakeBroadcaster struct {
	err     error
	userIDs []uuid.UUID
	events  []string
	payload map[string]interface{}
}

func (b *fakeBroadcaster) PublishUserEvent(ctx context.Context, userID uuid.UUID, event string, payload map[string]interface{}) error {
	b.userIDs = append(b.userIDs, userID)
	b.events = append(b.events, event)
	b.payload = payload
	return b.err
}

func TestCacheInvalidator_BooksChanged(t *testing.T) {
	cache := newFakeCache()
	broadcaster := &fakeBroadcaster{}
	userID, bookID := uuid.New(), uuid.New()
	cache.entries[userID] = cachedShelf{}

	services.NewCacheInvalidator(cache, broadcaster, logger.Nop()).
		BooksChanged(context.Background(), userID, bookID, services.InvalidatedPaths)

	assert.Equal(t, []uuid.UUID{userID}, cache.invalidated)
	assert.NotContains(t, cache.entries, userID)
	require.Len(t, broadcaster.events, 1)
	assert.Equal(t, "books_changed", broadcaster.events[0])
	assert.Equal(t, bookID.String(), broadcaster.payload["book_id"])
	assert.Equal(t, []string{"/ai-create", "/storybook"}, broadcaster.payload["paths"])
}

func TestCacheInvalidator_SwallowsFailures(t *testing.T) {
	broadcaster := &fakeBroadcaster{err: errors.New("realtime unavailable")}
	inv := services.NewCacheInvalidator(nil, broadcaster, logger.Nop())

	assert.NotPanics(t, func() {
		inv.BooksChanged(context.Background(), uuid.New(), uuid.New(), services.InvalidatedPaths)
	})
	assert.Len(t, broadcaster.events, 1)
}

func TestCacheInvalidator_NoCollaborators(t *testing.T) {
	inv := services.NewCacheInvalidator(nil, nil, logger.Nop())
	assert.NotPanics(t, func() {
		inv.BooksChanged(context.Background(), uuid.New(), uuid.New(), nil)
	})
}
