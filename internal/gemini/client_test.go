package gemini_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storybook-backend/internal/gemini"
	"storybook-backend/internal/models"
)

func TestBuildConfig(t *testing.T) {
	cfg := gemini.BuildConfig(models.TextRequest{
		System:      "You are a storyteller.",
		Prompt:      "ignored here",
		Temperature: 0.8,
		MaxTokens:   2000,
	})

	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.8, *cfg.Temperature, 0.0001)
	assert.EqualValues(t, 2000, cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	require.Len(t, cfg.SystemInstruction.Parts, 1)
	assert.Equal(t, "You are a storyteller.", cfg.SystemInstruction.Parts[0].Text)
}

func TestBuildConfig_NoSystem(t *testing.T) {
	cfg := gemini.BuildConfig(models.TextRequest{Prompt: "p"})

	assert.Nil(t, cfg.SystemInstruction)
	assert.Zero(t, cfg.MaxOutputTokens)
}
