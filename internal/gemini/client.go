package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
	"storybook-backend/internal/models"
)

const DefaultModel = "gemini-2.5-flash"

// Client generates story text with the Gemini API.
type Client struct {
	genai *genai.Client
	model string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{genai: c, model: model}, nil
}

func (c *Client) GenerateText(ctx context.Context, in models.TextRequest) (string, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(in.Prompt), BuildConfig(in))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}

// BuildConfig maps a provider-neutral request onto Gemini generation settings.
func BuildConfig(in models.TextRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(in.Temperature),
	}
	if in.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(in.System, genai.RoleUser)
	}
	if in.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(in.MaxTokens)
	}
	return cfg
}
