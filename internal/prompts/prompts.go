package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultPack []byte

type Example struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Prompt      string `yaml:"prompt"`
}

type Pack struct {
	System            string    `yaml:"system"`
	Temperature       float32   `yaml:"temperature"`
	MaxTokens         int       `yaml:"max_tokens"`
	StoryTemplate     string    `yaml:"story_template"`
	PageGuidance      string    `yaml:"page_guidance"`
	IllustrationStyle string    `yaml:"illustration_style"`
	Examples          []Example `yaml:"examples"`

	story *template.Template
}

// Load reads the pack at path, or the embedded default when path is empty.
func Load(path string) (*Pack, error) {
	raw := defaultPack
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt pack: %w", err)
		}
		raw = b
	}
	return Parse(raw)
}

func Default() *Pack {
	p, err := Parse(defaultPack)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt pack is invalid: %v", err))
	}
	return p
}

func Parse(raw []byte) (*Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompt pack: %w", err)
	}
	if strings.TrimSpace(p.StoryTemplate) == "" {
		return nil, fmt.Errorf("prompt pack: story_template is required")
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = 2000
	}

	tmpl, err := template.New("story").Option("missingkey=error").Parse(p.StoryTemplate)
	if err != nil {
		return nil, fmt.Errorf("prompt pack: invalid story_template: %w", err)
	}
	p.story = tmpl
	return &p, nil
}

// StoryPrompt renders the user-facing generation request for one story idea.
func (p *Pack) StoryPrompt(idea string) (string, error) {
	var buf bytes.Buffer
	err := p.story.Execute(&buf, map[string]string{
		"Prompt":       idea,
		"PageGuidance": p.PageGuidance,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render story prompt: %w", err)
	}
	return buf.String(), nil
}

// Illustrate appends the house art style to a page's image description.
func (p *Pack) Illustrate(description string) string {
	description = strings.TrimSpace(description)
	style := strings.TrimSpace(p.IllustrationStyle)
	if style == "" {
		return description
	}
	return description + ", " + style
}
