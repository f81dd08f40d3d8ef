package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "docgarden", cfg.DBName)
	assert.Equal(t, "nsqd:4150", cfg.NSQDHost)
	assert.Equal(t, ProviderService, cfg.EmbedderProvider)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 0, cfg.MaxConcurrentJobs)
	assert.Equal(t, 30, cfg.FetchTimeoutSeconds)
	assert.Equal(t, 8080, cfg.ServerPort)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("CHUNK_SIZE", "1000")
	t.Setenv("MAX_CONCURRENT_JOBS", "4")
	t.Setenv("EMBEDDER_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 4, cfg.MaxConcurrentJobs)
	assert.Equal(t, ProviderGemini, cfg.EmbedderProvider)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBHost:           "postgres",
			DBUser:           "docgarden",
			DBName:           "docgarden",
			ChunkSize:        500,
			EmbedderProvider: ProviderService,
		}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("MissingDBHost", func(t *testing.T) {
		cfg := valid()
		cfg.DBHost = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)
	})

	t.Run("NonPositiveChunkSize", func(t *testing.T) {
		cfg := valid()
		cfg.ChunkSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("GeminiWithoutKey", func(t *testing.T) {
		cfg := valid()
		cfg.EmbedderProvider = ProviderGemini
		assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)
	})

	t.Run("GeminiWithKey", func(t *testing.T) {
		cfg := valid()
		cfg.EmbedderProvider = ProviderGemini
		cfg.GeminiAPIKey = "key"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		cfg := valid()
		cfg.EmbedderProvider = "openai"
		assert.Error(t, cfg.Validate())
	})
}
