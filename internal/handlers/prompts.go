package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"storybook-backend/internal/models"
	"storybook-backend/internal/prompts"
)

type ExampleSource interface {
	ExamplePrompts() []prompts.Example
}

type PromptsHandler struct {
	source ExampleSource
}

func NewPromptsHandler(source ExampleSource) *PromptsHandler {
	return &PromptsHandler{source: source}
}

// ListExamples godoc
// @Summary     Example story ideas
// @Tags        prompts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.ExamplePromptsResponse
// @Router      /api/v1/prompts/examples [get]
func (h *PromptsHandler) ListExamples(c *gin.Context) {
	examples := h.source.ExamplePrompts()
	out := make([]models.ExamplePromptResponse, len(examples))
	for i, ex := range examples {
		out[i] = models.ExamplePromptResponse{
			Title:       ex.Title,
			Description: ex.Description,
			Prompt:      ex.Prompt,
		}
	}
	c.JSON(http.StatusOK, models.ExamplePromptsResponse{Examples: out})
}
