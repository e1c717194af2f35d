package models

import "time"

type GenerateBookResponse struct {
	Success bool          `json:"success"`
	BookID  string        `json:"book_id"`
	Book    *BookResponse `json:"book"`
	Message string        `json:"message"`
}

type BookResponse struct {
	ID         string         `json:"id"`
	Prompt     string         `json:"prompt"`
	Title      string         `json:"title"`
	Subtitle   *string        `json:"subtitle"`
	TotalPages int            `json:"total_pages"`
	Pages      []PageResponse `json:"pages"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type PageResponse struct {
	ID         string  `json:"id"`
	PageNumber int     `json:"page_number"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	ImageURL   *string `json:"image_url"`
}

type BookListResponse struct {
	Books []BookSummaryResponse `json:"books"`
}

type BookSummaryResponse struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Subtitle   *string       `json:"subtitle"`
	TotalPages int           `json:"total_pages"`
	Cover      *PageResponse `json:"cover"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type ExamplePromptResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

type ExamplePromptsResponse struct {
	Examples []ExamplePromptResponse `json:"examples"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

func NewBookResponse(b *BookWithPages) *BookResponse {
	if b == nil {
		return nil
	}
	pages := make([]PageResponse, len(b.Pages))
	for i := range b.Pages {
		pages[i] = NewPageResponse(&b.Pages[i])
	}
	return &BookResponse{
		ID:         b.ID.String(),
		Prompt:     b.Prompt,
		Title:      b.Title,
		Subtitle:   nullable(b.Subtitle.String, b.Subtitle.Valid),
		TotalPages: b.TotalPages,
		Pages:      pages,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func NewPageResponse(p *Page) PageResponse {
	return PageResponse{
		ID:         p.ID.String(),
		PageNumber: p.PageNumber,
		Title:      p.Title,
		Content:    p.Content,
		ImageURL:   nullable(p.ImageURL.String, p.ImageURL.Valid),
	}
}

func NewBookSummaryResponse(s *BookSummary) BookSummaryResponse {
	resp := BookSummaryResponse{
		ID:         s.ID.String(),
		Title:      s.Title,
		Subtitle:   nullable(s.Subtitle.String, s.Subtitle.Valid),
		TotalPages: s.TotalPages,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Cover != nil {
		cover := NewPageResponse(s.Cover)
		resp.Cover = &cover
	}
	return resp
}

func nullable(s string, valid bool) *string {
	if !valid {
		return nil
	}
	return &s
}
