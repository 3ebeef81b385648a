package driven

import (
	"context"
	"time"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

// VectorIndex stores (vector, chunk metadata) pairs per space and answers
// nearest-neighbour queries scoped to a set of spaces.
//
// The space filter is part of the query contract, not a post-filter:
// a query must never materialise or rank chunks from spaces outside the
// given set, even transiently. "No results" and "no permission" are
// therefore indistinguishable to the caller.
type VectorIndex interface {
	// Upsert inserts or replaces the vector for a chunk, carrying the
	// document metadata needed for provenance and tie-breaking.
	Upsert(ctx context.Context, chunk domain.Chunk, meta ChunkMeta) error

	// DeleteDocument removes all vectors belonging to a document,
	// atomically with respect to concurrent queries: a query never
	// observes a partially-deleted document.
	DeleteDocument(ctx context.Context, documentID string) error

	// DeleteSpace removes all vectors belonging to a space.
	DeleteSpace(ctx context.Context, spaceID string) error

	// Query returns up to k chunks nearest to the query vector, drawn
	// only from the given spaces, highest similarity first. Ties break
	// by most-recent document first, then chunk ordinal. An optional
	// non-empty documentID restricts results to that document.
	Query(ctx context.Context, spaceIDs []string, vector []float32, k int, documentID string) ([]domain.RetrievedChunk, error)

	// Close releases resources.
	Close() error
}

// ChunkMeta is the document metadata stored alongside each vector.
// DocumentCreatedAt drives the most-recent-document-first tie-break.
type ChunkMeta struct {
	DocumentTitle     string
	DocumentCreatedAt time.Time
}
