package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storybook-backend/internal/apierr"
	"storybook-backend/internal/models"
	"storybook-backend/internal/prompts"
)

var (
	fencedJSON = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

	errEmptyStory = errors.New("text provider returned no content")
)

type StructureGenerator struct {
	text    TextGenerator
	prompts *prompts.Pack
}

func NewStructureGenerator(text TextGenerator, pack *prompts.Pack) *StructureGenerator {
	return &StructureGenerator{text: text, prompts: pack}
}

// Generate makes exactly one provider call. Every failure is GENERATION_FAILED.
func (g *StructureGenerator) Generate(ctx context.Context, idea string) (*models.StoryStructure, error) {
	userPrompt, err := g.prompts.StoryPrompt(idea)
	if err != nil {
		return nil, apierr.GenerationFailed(err)
	}

	raw, err := g.text.GenerateText(ctx, models.TextRequest{
		System:      g.prompts.System,
		Prompt:      userPrompt,
		Temperature: g.prompts.Temperature,
		MaxTokens:   g.prompts.MaxTokens,
	})
	if err != nil {
		return nil, apierr.GenerationFailed(err)
	}

	story, err := ParseStoryStructure(raw)
	if err != nil {
		return nil, apierr.GenerationFailed(err)
	}
	return story, nil
}

// ParseStoryStructure reads the story JSON from a fenced code block when one is
// present, otherwise from the whole response.
func ParseStoryStructure(raw string) (*models.StoryStructure, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errEmptyStory
	}

	payload := raw
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		payload = m[1]
	}

	var doc struct {
		models.StoryStructure
		Pages []*models.StoryPage `json:"pages"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse story structure: %w", err)
	}
	if doc.Pages == nil {
		return nil, fmt.Errorf("failed to parse story structure: missing pages")
	}

	// null entries are dropped, not turned into blank pages.
	story := doc.StoryStructure
	story.Pages = make([]models.StoryPage, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		if p != nil {
			story.Pages = append(story.Pages, *p)
		}
	}
	return &story, nil
}
