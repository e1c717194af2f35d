package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"storybook-backend/internal/cache"
	"storybook-backend/internal/config"
	"storybook-backend/internal/database"
	"storybook-backend/internal/gcp"
	"storybook-backend/internal/gemini"
	"storybook-backend/internal/handlers"
	"storybook-backend/internal/imagen"
	"storybook-backend/internal/logger"
	"storybook-backend/internal/middleware"
	"storybook-backend/internal/observability"
	"storybook-backend/internal/openai"
	"storybook-backend/internal/prompts"
	"storybook-backend/internal/services"
	"storybook-backend/internal/supabase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, appLog, observability.TracingConfig{
		Enabled:      cfg.OtelEnabled,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OtelOTLPEndpoint,
	})
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Run migrations
	migrator, err := database.NewMigrator(cfg.DatabaseURL, appLog)
	if err != nil {
		appLog.Fatal("Failed to initialize migrator", "error", err)
	}
	if err := migrator.Run(ctx); err != nil {
		appLog.Fatal("Migration failed", "error", err)
	}
	migrator.Close()
	appLog.Info("Migrations completed successfully")

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Failed to initialize database client", "error", err)
	}
	defer dbClient.Close()

	pack, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		appLog.Fatal("Failed to load prompt pack", "error", err)
	}

	textClient, err := newTextGenerator(ctx, cfg)
	if err != nil {
		appLog.Fatal("Failed to initialize text provider", "provider", cfg.TextProvider, "error", err)
	}

	imageStore, closeStore, err := newImageStore(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to initialize image store", "backend", cfg.StorageBackend, "error", err)
	}
	defer closeStore()

	// Optional collaborators stay nil interfaces when not configured.
	var (
		bookshelf   services.BookshelfCache
		broadcaster services.Broadcaster
		verifier    middleware.TokenVerifier
	)

	if cfg.RedisURL != "" {
		shelfCache, err := cache.NewBookshelfCache(ctx, appLog, cfg.RedisURL, cfg.BookshelfCacheTTL)
		if err != nil {
			appLog.Warn("Bookshelf cache disabled", "error", err)
		} else {
			defer shelfCache.Close()
			bookshelf = shelfCache
		}
	}

	if cfg.SupabaseURL != "" && cfg.SupabasePublishableKey != "" {
		supabaseClient, err := supabase.NewClient(cfg)
		if err != nil {
			appLog.Warn("Supabase auth client unavailable", "error", err)
		} else {
			verifier = supabaseClient
		}
		broadcaster = supabase.NewRealtimeClient(cfg.SupabaseURL, cfg.SupabasePublishableKey)
	}

	imagenClient := imagen.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIImageModel)

	storyGenerator := services.NewStructureGenerator(textClient, pack)
	illustrator := services.NewImageIllustrator(imagenClient, imageStore, pack, cfg.ImageFolder)
	invalidator := services.NewCacheInvalidator(bookshelf, broadcaster, appLog)
	orchestrator := services.NewOrchestrator(dbClient, storyGenerator, illustrator, invalidator, appLog,
		services.WithThrottle(cfg.PageThrottle),
	)
	queries := services.NewQueryService(dbClient, bookshelf, pack, appLog)

	healthHandler := handlers.NewHealthHandler(dbClient)
	booksHandler := handlers.NewBooksHandler(orchestrator, queries, appLog)
	promptsHandler := handlers.NewPromptsHandler(queries)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(observability.ServiceName))
	router.Use(middleware.RequestLogger(appLog))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health check (no auth)
	router.GET("/health", healthHandler.Health)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg, verifier))

	api.POST("/books", booksHandler.GenerateBook)
	api.GET("/books", booksHandler.ListBooks)
	api.GET("/books/latest", booksHandler.GetLatestBook)
	api.GET("/books/:book_id", booksHandler.GetBook)
	api.GET("/prompts/examples", promptsHandler.ListExamples)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation responds only after every page is done.
		WriteTimeout: 15 * time.Minute,
	}

	go func() {
		appLog.Info("Server starting", "port", cfg.Port, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		appLog.Error("Server shutdown failed", "error", err)
	}
}

func newTextGenerator(ctx context.Context, cfg *config.Config) (services.TextGenerator, error) {
	switch cfg.TextProvider {
	case config.TextProviderGemini:
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAITextModel), nil
	}
}

func newImageStore(ctx context.Context, cfg *config.Config, appLog *logger.Logger) (services.ImageStore, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageBackendGCS:
		store, err := gcp.NewBucketStore(ctx, appLog, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
