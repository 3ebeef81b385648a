package domain

// RetrievedChunk is a chunk returned from the vector index with its
// similarity score and provenance.
type RetrievedChunk struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's parent document.
	DocumentID string

	// DocumentTitle is carried for provenance in the assembled prompt.
	DocumentTitle string

	// Content is the chunk text.
	Content string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}

// QueryContext carries the state of a single question through retrieval
// and generation. It lives only for the duration of one request and is
// never written to durable storage.
type QueryContext struct {
	// Question is the caller's question text.
	Question string

	// SpaceIDs is the caller's permitted space set.
	SpaceIDs []string

	// DocumentID optionally restricts retrieval to one document.
	DocumentID string

	// Retrieved holds the chunks returned by the index, highest
	// similarity first.
	Retrieved []RetrievedChunk

	// GraphFacts holds 1-hop relations from the knowledge graph that
	// supplement the retrieved context.
	GraphFacts []string

	// Answer is the generated answer, returned to the caller and then
	// discarded with the rest of this struct.
	Answer string
}

// QueryOptions configures a single Ask call.
type QueryOptions struct {
	// TopK is the number of chunks to retrieve. Zero means the default.
	TopK int

	// DocumentID optionally restricts retrieval to a single document
	// within the caller's visible spaces.
	DocumentID string
}
