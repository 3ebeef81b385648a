package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, cfg.ChunkOverlap)
	assert.Equal(t, DefaultContextTokens, cfg.ContextTokens)
	assert.Equal(t, DefaultProviderTimeout, cfg.ProviderTimeout)
	assert.Equal(t, DefaultTopK, cfg.TopK)
	assert.Equal(t, DefaultSummaryCharCap, cfg.SummaryCharCap)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/corpora-test")
	t.Setenv(EnvEmbeddingProvider, "openai")
	t.Setenv(EnvEmbeddingAPIKey, "sk-test")
	t.Setenv(EnvEmbeddingDims, "256")
	t.Setenv(EnvChunkSize, "300")
	t.Setenv(EnvChunkOverlap, "30")
	t.Setenv(EnvRemoteAPIKey, "sk-remote")
	t.Setenv(EnvRemoteModel, "gpt-4o")
	t.Setenv(EnvLocalModelPath, "/models/local.gguf")
	t.Setenv(EnvProviderTimeout, "90s")
	t.Setenv(EnvTopK, "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/corpora-test", cfg.DataDir)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, 256, cfg.Embedding.Dimensions)
	assert.Equal(t, 300, cfg.ChunkSize)
	assert.Equal(t, 30, cfg.ChunkOverlap)
	assert.Equal(t, "sk-remote", cfg.Remote.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Remote.Model)
	assert.Equal(t, "/models/local.gguf", cfg.Local.ModelPath)
	assert.Equal(t, 90*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 8, cfg.TopK)
}

func TestLoadMalformedNumbersFallBack(t *testing.T) {
	t.Setenv(EnvChunkSize, "not-a-number")
	t.Setenv(EnvProviderTimeout, "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultProviderTimeout, cfg.ProviderTimeout)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv(EnvChunkSize, "-5")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverlapMustFitChunkSize(t *testing.T) {
	t.Setenv(EnvChunkSize, "100")
	t.Setenv(EnvChunkOverlap, "100")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv(EnvChunkOverlap, "99")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoadTopKValidation(t *testing.T) {
	t.Setenv(EnvTopK, "0")
	_, err := Load()
	assert.Error(t, err)
}
