package driven

import (
	"context"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

// PostProcessor processes document content to produce or enrich chunks.
// PostProcessors are chained in a pipeline (chunking, entity extraction).
type PostProcessor interface {
	// Name returns the processor name for logging.
	Name() string

	// Process takes a document and returns chunks. A chunk-creating
	// processor receives nil and returns new chunks; an enriching
	// processor receives and returns the existing chunks.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order and
	// returns the final chunks.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
