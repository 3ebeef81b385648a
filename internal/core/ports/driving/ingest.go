package driving

import (
	"context"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

// Ingestor manages the document write path: extraction, chunking,
// embedding, indexing, and summarisation.
type Ingestor interface {
	// IngestDocument runs the full pipeline for already-extracted text.
	// Ingestion is all-or-nothing per document: on failure the document
	// is marked failed and no chunks remain queryable.
	IngestDocument(ctx context.Context, spaceID string, sourceType domain.SourceType, title, rawText string) (*domain.Document, error)

	// IngestURL fetches a URL, extracts its text, and ingests it.
	IngestURL(ctx context.Context, spaceID, url string) (*domain.Document, error)

	// DeleteDocument removes a document, its chunks, vectors, and
	// derived graph data.
	DeleteDocument(ctx context.Context, documentID string) error

	// DeleteSpace cascades deletion of every document in a space.
	DeleteSpace(ctx context.Context, spaceID string) error

	// GetSummary returns the generated summary of a document.
	GetSummary(ctx context.Context, documentID string) (string, error)
}
