package supabase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
	"storybook-backend/internal/config"
)

type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}

// VerifyToken asks Supabase Auth who owns the access token.
// Used when no JWT secret is configured for local verification.
func (c *Client) VerifyToken(ctx context.Context, token string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	user, err := c.Supabase.Auth.WithToken(token).GetUser()
	if err != nil {
		return uuid.Nil, fmt.Errorf("supabase auth: %w", err)
	}
	if user == nil || user.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("supabase auth: no user for token")
	}
	return user.ID, nil
}
