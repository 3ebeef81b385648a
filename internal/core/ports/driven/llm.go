package driven

import (
	"context"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

// GenerationProvider is a single backend in the provider chain. Providers
// are tried in priority order: a provider is skipped when Available
// returns false or Generate fails, and the chain proceeds to the next one.
//
// Implementations may include:
//   - OpenAI-compatible chat APIs (remote)
//   - llama.cpp server (local model)
//   - context-only fallback (returns retrieved context without generation)
type GenerationProvider interface {
	// Name identifies the provider in logs.
	Name() string

	// Available reports whether the provider can serve a request right
	// now (credentials present, model file on disk, endpoint reachable).
	// It is evaluated per request, not cached, since availability can
	// change between requests.
	Available(ctx context.Context) bool

	// MaxContextTokens returns the provider's context window size.
	// Context assembly truncates retrieved chunks to fit within it.
	MaxContextTokens() int

	// Generate produces a completion for the prompt. Generative
	// backends render the prompt to text; the context-only fallback
	// formats the prompt's context directly.
	Generate(ctx context.Context, prompt domain.Prompt, opts GenerateOptions) (string, error)

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
