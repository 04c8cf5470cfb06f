package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Host        string `mapstructure:"HOST"`
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	GinMode     string `mapstructure:"GIN_MODE"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Blob storage
	BlobBucket  string `mapstructure:"BLOB_BUCKET"`
	BlobBaseURL string `mapstructure:"BLOB_BASE_URL"`

	// Gemini
	GeminiAPIKeys         string  `mapstructure:"GEMINI_API_KEYS"`
	GeminiBaseURL         string  `mapstructure:"GEMINI_BASE_URL"`
	GeminiEmbeddingModel  string  `mapstructure:"GEMINI_EMBEDDING_MODEL"`
	GeminiGenerationModel string  `mapstructure:"GEMINI_GENERATION_MODEL"`
	GeminiEmbedTimeoutSec int     `mapstructure:"GEMINI_EMBED_TIMEOUT_SEC"`
	GeminiGenTimeoutSec   int     `mapstructure:"GEMINI_GEN_TIMEOUT_SEC"`
	GeminiTemperature     float64 `mapstructure:"GEMINI_TEMPERATURE"`
	GeminiMaxTokens       int     `mapstructure:"GEMINI_MAX_TOKENS"`

	// Ingestion
	ChunkSize          int   `mapstructure:"CHUNK_SIZE"`
	ChunkOverlap       int   `mapstructure:"CHUNK_OVERLAP"`
	TabularRowsPerUnit int   `mapstructure:"TABULAR_ROWS_PER_UNIT"`
	EmbedWorkers       int   `mapstructure:"EMBED_WORKERS"`
	MaxUploadBytes     int64 `mapstructure:"MAX_UPLOAD_BYTES"`
	SweepIntervalSec   int   `mapstructure:"SWEEP_INTERVAL_SEC"`
	SweepBatch         int   `mapstructure:"SWEEP_BATCH"`
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "8090")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("DATABASE_URL", "postgres://localhost:5432/paperbase?sslmode=disable")
	viper.SetDefault("BLOB_BUCKET", "paperbase-files")
	viper.SetDefault("BLOB_BASE_URL", "https://storage.googleapis.com/paperbase-files")
	viper.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	viper.SetDefault("GEMINI_EMBEDDING_MODEL", "models/gemini-embedding-001")
	viper.SetDefault("GEMINI_GENERATION_MODEL", "models/gemini-2.5-flash")
	viper.SetDefault("GEMINI_EMBED_TIMEOUT_SEC", 25)
	viper.SetDefault("GEMINI_GEN_TIMEOUT_SEC", 20)
	viper.SetDefault("GEMINI_TEMPERATURE", 0.2)
	viper.SetDefault("GEMINI_MAX_TOKENS", 1024)
	viper.SetDefault("CHUNK_SIZE", 500)
	viper.SetDefault("CHUNK_OVERLAP", 50)
	viper.SetDefault("TABULAR_ROWS_PER_UNIT", 20)
	viper.SetDefault("EMBED_WORKERS", 4)
	viper.SetDefault("MAX_UPLOAD_BYTES", 50*1024*1024)
	viper.SetDefault("SWEEP_INTERVAL_SEC", 300)
	viper.SetDefault("SWEEP_BATCH", 50)

	// The .env file is optional; environment variables win either way.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// APIKeys splits the comma-separated GEMINI_API_KEYS value, dropping blanks.
func (c *Config) APIKeys() []string {
	parts := strings.Split(c.GeminiAPIKeys, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
