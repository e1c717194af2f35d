package models

import (
	"fmt"
	"strings"
)

// StoryStructure is the parsed output of the text-generation step. It is never persisted.
type StoryStructure struct {
	Title    string      `json:"title"`
	Subtitle *string     `json:"subtitle,omitempty"`
	Pages    []StoryPage `json:"pages"`
}

type StoryPage struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt"`
}

// BookTitle returns the generated title, or UntitledTitle when the story has none.
func (s *StoryStructure) BookTitle() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return UntitledTitle
}

func (s *StoryStructure) BookSubtitle() *string {
	if s.Subtitle == nil || strings.TrimSpace(*s.Subtitle) == "" {
		return nil
	}
	v := strings.TrimSpace(*s.Subtitle)
	return &v
}

// PageTitle defaults to a numbered placeholder.
func (p StoryPage) PageTitle(pageNumber int) string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return fmt.Sprintf("Page %d", pageNumber)
}

func (p StoryPage) PageContent() string {
	if c := strings.TrimSpace(p.Content); c != "" {
		return c
	}
	return PlaceholderPageContent
}

// TextRequest is one call to a text-generation provider.
type TextRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}
