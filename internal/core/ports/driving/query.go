package driving

import (
	"context"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

// QueryEngine answers natural-language questions against the caller's
// visible spaces. Each call is stateless end-to-end: the question and
// answer are never written to any persistent store, retained log, or
// cross-request cache.
type QueryEngine interface {
	// Ask resolves the user's visible spaces, retrieves relevant chunks,
	// and generates an answer through the provider chain.
	Ask(ctx context.Context, question, userID string, opts domain.QueryOptions) (string, error)
}
