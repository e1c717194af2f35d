package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	TextProviderOpenAI = "openai"
	TextProviderGemini = "gemini"

	StorageBackendSupabase = "supabase"
	StorageBackendGCS      = "gcs"
)

type Config struct {
	// Text generation
	TextProvider    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAITextModel string
	GeminiAPIKey    string
	GeminiModel     string

	// Image generation
	OpenAIImageModel string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Image storage
	StorageBackend     string
	GCSBucket          string
	GCSCredentialsFile string
	ImageFolder        string

	// Database
	DatabaseURL string

	// Cache
	RedisURL          string
	BookshelfCacheTTL time.Duration

	// Generation pipeline
	PageThrottle time.Duration
	PromptsFile  string

	// Tracing
	OtelEnabled      bool
	OtelOTLPEndpoint string

	// Server
	Port               string
	Environment        string
	BaseURL            string
	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		TextProvider:    strings.ToLower(getEnv("TEXT_PROVIDER", TextProviderOpenAI)),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1/"),
		OpenAITextModel: getEnv("OPENAI_TEXT_MODEL", "gpt-4"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		OpenAIImageModel: getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "storybook-images"),

		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendSupabase)),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		ImageFolder:        getEnv("IMAGE_FOLDER", "NovelSmith"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL:          getEnv("REDIS_URL", ""),
		BookshelfCacheTTL: getDuration("BOOKSHELF_CACHE_TTL", 5*time.Minute),

		PageThrottle: time.Duration(getInt("PAGE_THROTTLE_MS", 1000)) * time.Millisecond,
		PromptsFile:  getEnv("PROMPTS_FILE", ""),

		OtelEnabled:      getBool("OTEL_ENABLED", false),
		OtelOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		Port:               getEnv("PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}

	switch c.TextProvider {
	case TextProviderOpenAI:
	case TextProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when TEXT_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unknown TEXT_PROVIDER %q", c.TextProvider)
	}

	switch c.StorageBackend {
	case StorageBackendSupabase:
		if c.SupabaseURL == "" || c.SupabasePublishableKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_PUBLISHABLE_KEY are required for supabase storage")
		}
	case StorageBackendGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when STORAGE_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	// Tokens are verified locally with the JWT secret, or remotely through Supabase Auth.
	if c.SupabaseJWTSecret == "" && (c.SupabaseURL == "" || c.SupabasePublishableKey == "") {
		return fmt.Errorf("SUPABASE_JWT_SECRET or SUPABASE_URL with SUPABASE_PUBLISHABLE_KEY is required")
	}

	if c.PageThrottle < 0 {
		return fmt.Errorf("PAGE_THROTTLE_MS must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
