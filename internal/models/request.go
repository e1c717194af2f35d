package models

type GenerateBookRequest struct {
	// Prompt is the free-text story idea, e.g. "a rabbit who learns to share".
	Prompt string `json:"prompt" binding:"required" example:"a rabbit who learns to share"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
