package driven

import (
	"context"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

// DocumentStore persists document and chunk metadata.
// Backed by SQLite in production, by maps in tests.
//
// The store never holds question or answer text; only ingested document
// content and its derived chunks.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SetStatus updates the ingestion status of a document.
	SetStatus(ctx context.Context, documentID string, status domain.IngestStatus) error

	// SetSummary persists the generated summary of a document.
	SetSummary(ctx context.Context, documentID, summary string) error

	// SaveChunks stores the chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// DeleteChunks removes all chunks for a document, leaving the
	// document row in place. Used for ingest rollback.
	DeleteChunks(ctx context.Context, documentID string) error

	// ListDocuments returns documents in a space.
	ListDocuments(ctx context.Context, spaceID string) ([]domain.Document, error)

	// DeleteSpace removes every document and chunk in a space.
	DeleteSpace(ctx context.Context, spaceID string) error
}
