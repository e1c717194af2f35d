package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"storybook-backend/internal/apierr"
	"storybook-backend/internal/logger"
	"storybook-backend/internal/middleware"
	"storybook-backend/internal/models"
)

type BookGenerator interface {
	GenerateBook(ctx context.Context, userID uuid.UUID, prompt string) (*models.GenerationResult, error)
}

type BookReader interface {
	GetBook(ctx context.Context, userID uuid.UUID, bookID *uuid.UUID) (*models.BookWithPages, error)
	GetUserBooks(ctx context.Context, userID uuid.UUID) ([]models.BookSummary, error)
}

type BooksHandler struct {
	generator BookGenerator
	reader    BookReader
	log       *logger.Logger
}

func NewBooksHandler(generator BookGenerator, reader BookReader, log *logger.Logger) *BooksHandler {
	return &BooksHandler{
		generator: generator,
		reader:    reader,
		log:       log.With("handler", "BooksHandler"),
	}
}

// GenerateBook godoc
// @Summary     Generate a storybook
// @Description Creates a book from a story idea. Runs to completion before responding.
// @Tags        books
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body models.GenerateBookRequest true "Story idea"
// @Success     200 {object} models.GenerateBookResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /api/v1/books [post]
func (h *BooksHandler) GenerateBook(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.GenerateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierr.InvalidInput("prompt is required"))
		return
	}

	result, err := h.generator.GenerateBook(c.Request.Context(), userID, req.Prompt)
	if err != nil {
		// already logged with the book id by the generator
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateBookResponse{
		Success: result.Success,
		BookID:  result.BookID.String(),
		Book:    models.NewBookResponse(result.Book),
		Message: result.Message,
	})
}

// ListBooks godoc
// @Summary     List the caller's books
// @Description Most recently updated first, each with its first page as cover
// @Tags        books
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.BookListResponse
// @Router      /api/v1/books [get]
func (h *BooksHandler) ListBooks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	books, err := h.reader.GetUserBooks(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	summaries := make([]models.BookSummaryResponse, len(books))
	for i := range books {
		summaries[i] = models.NewBookSummaryResponse(&books[i])
	}
	c.JSON(http.StatusOK, models.BookListResponse{Books: summaries})
}

// GetLatestBook godoc
// @Summary     Get the caller's most recently updated book
// @Tags        books
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.BookResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/books/latest [get]
func (h *BooksHandler) GetLatestBook(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	h.respondBook(c, userID, nil)
}

// GetBook godoc
// @Summary     Get one of the caller's books
// @Tags        books
// @Produce     json
// @Security    BearerAuth
// @Param       book_id path string true "Book ID"
// @Success     200 {object} models.BookResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/books/{book_id} [get]
func (h *BooksHandler) GetBook(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	bookID, err := uuid.Parse(c.Param("book_id"))
	if err != nil {
		writeError(c, apierr.InvalidInput("invalid book id"))
		return
	}
	h.respondBook(c, userID, &bookID)
}

func (h *BooksHandler) respondBook(c *gin.Context, userID uuid.UUID, bookID *uuid.UUID) {
	book, err := h.reader.GetBook(c.Request.Context(), userID, bookID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewBookResponse(book))
}

// fail logs server-side failures before writing the error response.
func (h *BooksHandler) fail(c *gin.Context, err error) {
	kind := apierr.KindOf(err)
	if apierr.HTTPStatus(kind) >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "kind", string(kind), "error", err)
	}
	writeError(c, err)
}

func writeError(c *gin.Context, err error) {
	kind := apierr.KindOf(err)
	c.JSON(apierr.HTTPStatus(kind), models.ErrorResponse{
		Error:   string(kind),
		Message: apierr.PublicMessage(err),
	})
}

// currentUser reads the id set by the auth middleware and writes a 401 when it is missing.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		unauthenticated(c)
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		unauthenticated(c)
		return uuid.Nil, false
	}
	return userID, true
}

func unauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   string(apierr.KindUnauthenticated),
		Message: apierr.PublicMessage(apierr.ErrUnauthenticated),
	})
}
