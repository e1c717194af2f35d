package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storybook-backend/internal/apierr"
	"storybook-backend/internal/logger"
	"storybook-backend/internal/models"
)

const (
	MaxPromptLength = 2000

	DefaultPageThrottle = 1000 * time.Millisecond

	generatedMessage = "Storybook generated successfully"
)

// InvalidatedPaths are the views that list or display books.
var InvalidatedPaths = []string{"/ai-create", "/storybook"}

// Orchestrator drives one book generation from prompt to reconciled book.
type Orchestrator struct {
	repo        BookRepository
	stories     StoryGenerator
	illustrator Illustrator
	invalidator Invalidator
	log         *logger.Logger
	tracer      trace.Tracer

	throttle time.Duration
	wait     func(time.Duration)
}

type OrchestratorOption func(*Orchestrator)

// WithThrottle sets the pause between consecutive pages.
func WithThrottle(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.throttle = d }
}

// WithWait replaces the sleep used for the page throttle.
func WithWait(wait func(time.Duration)) OrchestratorOption {
	return func(o *Orchestrator) { o.wait = wait }
}

func NewOrchestrator(
	repo BookRepository,
	stories StoryGenerator,
	illustrator Illustrator,
	invalidator Invalidator,
	log *logger.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		repo:        repo,
		stories:     stories,
		illustrator: illustrator,
		invalidator: invalidator,
		log:         log.With("service", "Orchestrator"),
		tracer:      otel.Tracer("storybook-backend/services"),
		throttle:    DefaultPageThrottle,
		wait:        time.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ValidatePrompt trims the prompt and rejects empty or oversized input.
func ValidatePrompt(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", apierr.InvalidInput("prompt must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxPromptLength {
		return "", apierr.InvalidInput(fmt.Sprintf("prompt must be at most %d characters", MaxPromptLength))
	}
	return trimmed, nil
}

// GenerateBook creates the placeholder book, generates the story once, then
// materializes its pages one at a time. Only a failed story generation is
// fatal; page and illustration failures are recorded in the report.
// The pipeline keeps running if the caller goes away.
func (o *Orchestrator) GenerateBook(ctx context.Context, userID uuid.UUID, prompt string) (*models.GenerationResult, error) {
	if userID == uuid.Nil {
		return nil, apierr.ErrUnauthenticated
	}
	trimmed, err := ValidatePrompt(prompt)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	ctx, span := o.tracer.Start(ctx, "GenerateBook")
	defer span.End()

	book, err := o.repo.CreateBook(ctx, userID, trimmed, models.PlaceholderTitle)
	if err != nil {
		o.log.Error("failed to create placeholder book", "user_id", userID.String(), "error", err)
		span.SetStatus(codes.Error, "create book")
		return nil, apierr.Internal(err)
	}
	span.SetAttributes(attribute.String("book.id", book.ID.String()))
	log := o.log.With("book_id", book.ID.String(), "user_id", userID.String())

	story, err := o.stories.Generate(ctx, trimmed)
	if err != nil {
		log.Error("story generation failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "story generation")
		if apierr.KindOf(err) == apierr.KindGenerationFailed {
			return nil, err
		}
		return nil, apierr.GenerationFailed(err)
	}

	report := o.materializePages(ctx, log, book.ID, story.Pages)
	span.SetAttributes(
		attribute.Int("pages.attempted", report.Attempted),
		attribute.Int("pages.persisted", report.Persisted),
		attribute.Int("pages.illustrated", report.Illustrated),
	)

	if err := o.repo.UpdateBookResults(ctx, book.ID, story.BookTitle(), story.BookSubtitle(), report.Persisted); err != nil {
		log.Error("failed to reconcile book", "error", err)
		span.SetStatus(codes.Error, "reconcile book")
		return nil, apierr.Internal(err)
	}

	full, err := o.repo.GetBook(ctx, book.ID, userID)
	if err != nil {
		log.Error("failed to load generated book", "error", err)
		span.SetStatus(codes.Error, "load book")
		return nil, apierr.Internal(err)
	}

	if o.invalidator != nil {
		o.invalidator.BooksChanged(ctx, userID, book.ID, InvalidatedPaths)
	}

	log.Info("book generated",
		"attempted", report.Attempted,
		"persisted", report.Persisted,
		"illustrated", report.Illustrated,
	)
	return &models.GenerationResult{
		Success: true,
		BookID:  book.ID,
		Book:    full,
		Message: generatedMessage,
		Report:  report,
	}, nil
}

func (o *Orchestrator) materializePages(ctx context.Context, log *logger.Logger, bookID uuid.UUID, pages []models.StoryPage) models.GenerationReport {
	var report models.GenerationReport
	for i, page := range pages {
		report.Record(o.materializePage(ctx, log, bookID, i, page, report.NextPageNumber()))
		if i < len(pages)-1 && o.throttle > 0 {
			o.wait(o.throttle)
		}
	}
	return report
}

func (o *Orchestrator) materializePage(ctx context.Context, log *logger.Logger, bookID uuid.UUID, index int, page models.StoryPage, pageNumber int) models.PageOutcome {
	ctx, span := o.tracer.Start(ctx, "MaterializePage", trace.WithAttributes(
		attribute.Int("page.index", index),
		attribute.Int("page.number", pageNumber),
	))
	defer span.End()

	created, err := o.repo.CreatePage(ctx, models.NewPage{
		BookID:     bookID,
		PageNumber: pageNumber,
		Title:      page.PageTitle(pageNumber),
		Content:    page.PageContent(),
	})
	if err != nil {
		log.Warn("page insert failed, skipping", "index", index, "page_number", pageNumber, "error", err)
		span.RecordError(err)
		return models.PageOutcome{
			Index:  index,
			Status: models.PageInsertFailed,
			Err:    apierr.New(apierr.KindPagePersistenceFailed, "page could not be saved", err),
		}
	}

	outcome := models.PageOutcome{
		Index:      index,
		PageNumber: created.PageNumber,
		PageID:     created.ID,
		Status:     models.PageCreated,
	}
	if strings.TrimSpace(page.ImagePrompt) == "" {
		return outcome
	}

	img, err := o.illustrator.Illustrate(ctx, page.ImagePrompt)
	if err == nil && img == nil {
		err = errors.New("no image returned")
	}
	if err != nil {
		log.Warn("illustration failed", "page_number", created.PageNumber, "error", err)
		span.RecordError(err)
		outcome.Err = apierr.New(apierr.KindIllustrationFailed, "illustration unavailable", err)
		return outcome
	}

	if err := o.repo.UpdatePageImage(ctx, created.ID, img.URL); err != nil {
		log.Warn("failed to attach illustration", "page_number", created.PageNumber, "error", err)
		span.RecordError(err)
		if derr := o.illustrator.Discard(ctx, img); derr != nil {
			log.Warn("failed to delete orphaned illustration", "public_id", img.PublicID, "error", derr)
		}
		outcome.Err = apierr.New(apierr.KindIllustrationFailed, "illustration unavailable", err)
		return outcome
	}

	outcome.Status = models.PageIllustrated
	outcome.Illustrated = true
	outcome.ImageURL = img.URL
	return outcome
}
