// Command corpora is the permission-aware document Q&A CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/corpora-labs/corpora/internal/adapters/driven/access/file"
	embedollama "github.com/corpora-labs/corpora/internal/adapters/driven/embedding/ollama"
	embedopenai "github.com/corpora-labs/corpora/internal/adapters/driven/embedding/openai"
	"github.com/corpora-labs/corpora/internal/adapters/driven/llm/contextonly"
	"github.com/corpora-labs/corpora/internal/adapters/driven/llm/llamacpp"
	llmopenai "github.com/corpora-labs/corpora/internal/adapters/driven/llm/openai"
	"github.com/corpora-labs/corpora/internal/adapters/driven/storage/sqlite"
	"github.com/corpora-labs/corpora/internal/adapters/driving/cli"
	"github.com/corpora-labs/corpora/internal/config"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
	"github.com/corpora-labs/corpora/internal/core/services"
	"github.com/corpora-labs/corpora/internal/extract"
	"github.com/corpora-labs/corpora/internal/postprocessors"
	"github.com/corpora-labs/corpora/internal/postprocessors/chunker"
	"github.com/corpora-labs/corpora/internal/postprocessors/entities"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	chain, err := newProviderChain(cfg)
	if err != nil {
		return fmt.Errorf("building provider chain: %w", err)
	}
	defer chain.Close()

	access, err := newAccessDirectory(cfg)
	if err != nil {
		return fmt.Errorf("loading access file: %w", err)
	}
	defer access.Close()

	pipeline := postprocessors.NewPipeline(
		chunker.New(
			chunker.WithChunkSize(cfg.ChunkSize),
			chunker.WithOverlap(cfg.ChunkOverlap),
		),
		entities.New(),
	)

	docStore := store.DocumentStore()
	ingestor := services.NewIngestService(
		docStore,
		store.VectorIndex(),
		store.GraphStore(),
		embedder,
		pipeline,
		chain,
		services.WithSummaryCharCap(cfg.SummaryCharCap),
		services.WithURLFetcher(extract.NewURLFetcher(0)),
	)
	queryEngine := services.NewQueryService(
		access,
		embedder,
		store.VectorIndex(),
		store.GraphStore(),
		chain,
		services.WithTopK(cfg.TopK),
	)

	cli.SetVersion(version)
	cli.SetServices(ingestor, queryEngine, docStore, access)
	return cli.Execute()
}

// newEmbedder builds the configured embedding backend.
func newEmbedder(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embedopenai.NewEmbeddingService(embedopenai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "ollama":
		return embedollama.NewEmbeddingService(embedollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// newProviderChain assembles the generation fallback chain: remote API
// first when configured, then a local llama.cpp server, then the
// context-only provider so a question always gets a response.
func newProviderChain(cfg *config.Config) (*services.ProviderChain, error) {
	var providers []driven.GenerationProvider

	if cfg.Remote.APIKey != "" {
		remote, err := llmopenai.NewProvider(llmopenai.Config{
			APIKey:        cfg.Remote.APIKey,
			BaseURL:       cfg.Remote.BaseURL,
			Model:         cfg.Remote.Model,
			ContextTokens: cfg.ContextTokens,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, remote)
	}

	if cfg.Local.BaseURL != "" || cfg.Local.ModelPath != "" {
		providers = append(providers, llamacpp.NewProvider(llamacpp.Config{
			BaseURL:       cfg.Local.BaseURL,
			ModelPath:     cfg.Local.ModelPath,
			ContextTokens: cfg.ContextTokens,
		}))
	}

	providers = append(providers, contextonly.NewProvider())

	return services.NewProviderChain(cfg.ProviderTimeout, providers...)
}

// newAccessDirectory loads the space directory, creating a default
// access file with a single public space on first run.
func newAccessDirectory(cfg *config.Config) (*file.Directory, error) {
	path := cfg.AccessFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".corpora", "access.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefaultAccessFile(path); err != nil {
			return nil, err
		}
	}

	return file.NewDirectory(path)
}

func writeDefaultAccessFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultAccessFile), 0600); err != nil {
		return fmt.Errorf("writing default access file: %w", err)
	}
	return nil
}

const defaultAccessFile = `# Corpora access directory.
# Spaces are permission boundaries: public spaces are readable by every
# user, private spaces only by their members.

[[spaces]]
id = "default"
name = "Default"
visibility = "public"
`
