// Package config loads the environment-style configuration surface of
// the core. A .env file in the working directory is honoured when
// present; real environment variables take precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Recognised environment keys.
const (
	EnvDataDir = "CORPORA_DATA_DIR"

	EnvEmbeddingProvider = "CORPORA_EMBEDDING_PROVIDER" // openai | ollama
	EnvEmbeddingModel    = "CORPORA_EMBEDDING_MODEL"
	EnvEmbeddingBaseURL  = "CORPORA_EMBEDDING_BASE_URL"
	EnvEmbeddingAPIKey   = "CORPORA_EMBEDDING_API_KEY"
	EnvEmbeddingDims     = "CORPORA_EMBEDDING_DIMENSIONS"

	EnvChunkSize    = "CORPORA_CHUNK_SIZE"
	EnvChunkOverlap = "CORPORA_CHUNK_OVERLAP"

	EnvRemoteBaseURL = "CORPORA_REMOTE_BASE_URL"
	EnvRemoteAPIKey  = "CORPORA_REMOTE_API_KEY"
	EnvRemoteModel   = "CORPORA_REMOTE_MODEL"

	EnvLocalBaseURL   = "CORPORA_LOCAL_BASE_URL"
	EnvLocalModelPath = "CORPORA_LOCAL_MODEL_PATH"
	EnvContextTokens  = "CORPORA_CONTEXT_TOKENS"

	EnvProviderTimeout = "CORPORA_PROVIDER_TIMEOUT"
	EnvTopK            = "CORPORA_TOP_K"
	EnvSummaryCap      = "CORPORA_SUMMARY_CHAR_CAP"
	EnvAccessFile      = "CORPORA_ACCESS_FILE"
)

// Defaults.
const (
	DefaultChunkSize       = 500
	DefaultChunkOverlap    = 50
	DefaultContextTokens   = 8192
	DefaultProviderTimeout = 60 * time.Second
	DefaultTopK            = 5
	DefaultSummaryCharCap  = 4000
)

// Embedding configures the embedding backend.
type Embedding struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// Remote configures the remote generation provider.
type Remote struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Local configures the local llama.cpp generation provider.
type Local struct {
	BaseURL   string
	ModelPath string
}

// Config is the complete configuration surface of the core.
type Config struct {
	DataDir string

	Embedding Embedding
	Remote    Remote
	Local     Local

	ChunkSize       int
	ChunkOverlap    int
	ContextTokens   int
	ProviderTimeout time.Duration
	TopK            int
	SummaryCharCap  int
	AccessFile      string
}

// Load reads configuration from the environment, loading a .env file
// first when one exists in the working directory.
func Load() (*Config, error) {
	// Missing .env is not an error; explicit env always wins.
	_ = godotenv.Load()

	cfg := &Config{
		DataDir: os.Getenv(EnvDataDir),
		Embedding: Embedding{
			Provider:   getString(EnvEmbeddingProvider, "ollama"),
			Model:      os.Getenv(EnvEmbeddingModel),
			BaseURL:    os.Getenv(EnvEmbeddingBaseURL),
			APIKey:     os.Getenv(EnvEmbeddingAPIKey),
			Dimensions: getInt(EnvEmbeddingDims, 0),
		},
		Remote: Remote{
			BaseURL: os.Getenv(EnvRemoteBaseURL),
			APIKey:  os.Getenv(EnvRemoteAPIKey),
			Model:   os.Getenv(EnvRemoteModel),
		},
		Local: Local{
			BaseURL:   os.Getenv(EnvLocalBaseURL),
			ModelPath: os.Getenv(EnvLocalModelPath),
		},
		ChunkSize:       getInt(EnvChunkSize, DefaultChunkSize),
		ChunkOverlap:    getInt(EnvChunkOverlap, DefaultChunkOverlap),
		ContextTokens:   getInt(EnvContextTokens, DefaultContextTokens),
		ProviderTimeout: getDuration(EnvProviderTimeout, DefaultProviderTimeout),
		TopK:            getInt(EnvTopK, DefaultTopK),
		SummaryCharCap:  getInt(EnvSummaryCap, DefaultSummaryCharCap),
		AccessFile:      os.Getenv(EnvAccessFile),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%s must be in [0, chunk size), got %d", EnvChunkOverlap, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvTopK, c.TopK)
	}
	if c.SummaryCharCap <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvSummaryCap, c.SummaryCharCap)
	}
	return nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
