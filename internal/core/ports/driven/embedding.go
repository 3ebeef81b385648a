package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Embedding is a pure function of the input text and model version:
// the same text embedded twice with the same model yields the same
// vector, and EmbedBatch is equivalent to calling Embed per item.
//
// Implementations may include:
//   - OpenAI-compatible APIs (text-embedding-3-small, ...)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Backend outages are reported as domain.ErrModelUnavailable so
	// callers can retry with backoff.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. Batching is a
	// performance optimisation, not a semantic change.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This must match the vector index configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
