package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

const (
	// ProviderService embeds via the external embedding HTTP service.
	ProviderService = "service"
	// ProviderGemini embeds via the Gemini API instead of the local service.
	ProviderGemini = "gemini"
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"docgarden"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"docgarden"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQDHost string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	// External processing services. Both may take seconds per call and fail
	// without warning; the pipeline treats them as always-fallible.
	OCRServiceURL       string `envconfig:"OCR_SERVICE_URL" default:"http://localhost:4001"`
	EmbeddingServiceURL string `envconfig:"EMBEDDING_SERVICE_URL" default:"http://localhost:4000"`

	// EmbedderProvider selects the embedding backend: "service" (the HTTP
	// embedding service) or "gemini" (requires GEMINI_API_KEY).
	EmbedderProvider string `envconfig:"EMBEDDER_PROVIDER" default:"service"`
	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY"`

	// MaxConcurrentJobs bounds the number of pipeline runs in flight.
	// 0 means unbounded, which mirrors the original single-process scheduler
	// and is a known scaling risk under heavy submission.
	MaxConcurrentJobs int `envconfig:"MAX_CONCURRENT_JOBS" default:"0"`

	// ChunkSize is the soft maximum chunk length in characters.
	ChunkSize int `envconfig:"CHUNK_SIZE" default:"500"`

	// FetchTimeoutSeconds applies to document fetches only.
	// ServiceTimeoutSeconds applies to OCR/embedding calls; 0 means no
	// timeout, matching the default contract of those services.
	FetchTimeoutSeconds   int `envconfig:"FETCH_TIMEOUT_SECONDS" default:"30"`
	ServiceTimeoutSeconds int `envconfig:"SERVICE_TIMEOUT_SECONDS" default:"0"`

	ServerPort    int    `envconfig:"SERVER_PORT" default:"8080"`
	UploadDir     string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell; .env files are optional.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	switch c.EmbedderProvider {
	case ProviderService:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY (required for EMBEDDER_PROVIDER=gemini)", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("unknown EMBEDDER_PROVIDER %q", c.EmbedderProvider)
	}
	return nil
}
