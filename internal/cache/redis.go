package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"storybook-backend/internal/logger"
	"storybook-backend/internal/models"
)

const (
	keyPrefix  = "storybook:bookshelf:"
	versionTTL = 7 * 24 * time.Hour
)

// BookshelfCache keeps each user's book list in Redis until the next generation
// invalidates it.
type BookshelfCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewBookshelfCache(ctx context.Context, log *logger.Logger, redisURL string, ttl time.Duration) (*BookshelfCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &BookshelfCache{
		log: log.With("service", "BookshelfCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func Key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

// VersionKey holds the user's shelf generation. Invalidate bumps it, and an
// entry stamped with any other generation reads as a miss.
func VersionKey(userID uuid.UUID) string {
	return keyPrefix + userID.String() + ":version"
}

type entry struct {
	Version int64                `json:"version"`
	Books   []models.BookSummary `json:"books"`
}

// Version returns the current shelf generation. Callers read it before loading
// the list they intend to Set.
func (c *BookshelfCache) Version(ctx context.Context, userID uuid.UUID) (int64, error) {
	v, err := c.rdb.Get(ctx, VersionKey(userID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get returns the cached list and whether it was present and current.
func (c *BookshelfCache) Get(ctx context.Context, userID uuid.UUID) ([]models.BookSummary, bool, error) {
	vals, err := c.rdb.MGet(ctx, Key(userID), VersionKey(userID)).Result()
	if err != nil {
		return nil, false, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, false, nil
	}

	var current int64
	if s, ok := vals[1].(string); ok {
		if current, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, false, fmt.Errorf("parse bookshelf version: %w", err)
		}
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.log.Warn("discarding undecodable bookshelf entry", "user_id", userID.String(), "error", err)
		return nil, false, nil
	}
	if e.Version != current {
		return nil, false, nil
	}
	return e.Books, true, nil
}

// Set stores books stamped with the generation read before they were loaded.
func (c *BookshelfCache) Set(ctx context.Context, userID uuid.UUID, version int64, books []models.BookSummary) error {
	raw, err := json.Marshal(entry{Version: version, Books: books})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, Key(userID), raw, c.ttl).Err()
}

func (c *BookshelfCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, VersionKey(userID))
		pipe.Expire(ctx, VersionKey(userID), versionTTL)
		pipe.Del(ctx, Key(userID))
		return nil
	})
	return err
}

func (c *BookshelfCache) Close() error {
	return c.rdb.Close()
}
