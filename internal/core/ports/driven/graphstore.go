package driven

import "context"

// GraphEdge is a relation between two entities extracted from chunk text.
type GraphEdge struct {
	Source string
	Target string
	Label  string
}

// GraphStore persists the lightweight entity graph built during ingestion
// and answers 1-hop neighbourhood queries at retrieval time.
type GraphStore interface {
	// AddNode records an entity node, keyed by entity name. Adding an
	// existing node is a no-op.
	AddNode(ctx context.Context, entity, label, chunkID string) error

	// AddEdge records a relation between two entities.
	AddEdge(ctx context.Context, edge GraphEdge, chunkID string) error

	// Neighbourhood returns edges touching any of the given entities.
	Neighbourhood(ctx context.Context, entities []string) ([]GraphEdge, error)

	// DeleteForChunks removes graph data derived from the given chunks.
	// Nodes still referenced by remaining edges are kept.
	DeleteForChunks(ctx context.Context, chunkIDs []string) error
}
