package domain

import "time"

// SourceType identifies how a document entered the system.
type SourceType string

// Recognised source types.
const (
	// SourceUpload is a file uploaded by a user.
	SourceUpload SourceType = "upload"

	// SourceURL is content fetched from a web address.
	SourceURL SourceType = "url"
)

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	return t == SourceUpload || t == SourceURL
}

// IngestStatus tracks a document through the ingestion state machine.
type IngestStatus string

// Ingestion states. A document moves pending → extracting → chunked →
// embedding → indexed; failed is terminal and reachable from any step.
const (
	StatusPending    IngestStatus = "pending"
	StatusExtracting IngestStatus = "extracting"
	StatusChunked    IngestStatus = "chunked"
	StatusEmbedding  IngestStatus = "embedding"
	StatusIndexed    IngestStatus = "indexed"
	StatusFailed     IngestStatus = "failed"
)

// Terminal returns true if no further transitions are possible.
func (s IngestStatus) Terminal() bool {
	return s == StatusIndexed || s == StatusFailed
}

// CanTransition reports whether moving to next is a legal step.
// Failed is reachable from every non-terminal state.
func (s IngestStatus) CanTransition(next IngestStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	order := map[IngestStatus]IngestStatus{
		StatusPending:    StatusExtracting,
		StatusExtracting: StatusChunked,
		StatusChunked:    StatusEmbedding,
		StatusEmbedding:  StatusIndexed,
	}
	return order[s] == next
}

// Document represents a document ingested into a knowledge space.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SpaceID is the knowledge space that owns this document. Deleting
	// the space or the document cascades to its chunks and vectors.
	SpaceID string

	// SourceType records whether the document came from an upload or a URL.
	SourceType SourceType

	// Title is the human-readable title (file name or URL).
	Title string

	// Content is the full extracted text before chunking.
	Content string

	// Summary is the generated document summary, populated after indexing.
	Summary string

	// Status is the current ingestion state.
	Status IngestStatus

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time
}

// Chunk is a bounded text segment derived from a document, the unit of
// retrieval. SpaceID is denormalised from the parent document so the
// vector index can filter by space without a join.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// SpaceID mirrors the parent document's space. Invariant: always
	// equal to the parent's SpaceID.
	SpaceID string

	// Position is the ordinal position within the document. Positions
	// are contiguous per document starting at zero.
	Position int

	// Start and End are byte offsets of this chunk's span in the source
	// text. Consecutive spans overlap by the configured overlap.
	Start int
	End   int

	// Content is the text of this chunk.
	Content string

	// Embedding is the vector representation, one per chunk.
	Embedding []float32

	// Entities are capitalised terms extracted from the content, used to
	// build the knowledge graph.
	Entities []string
}
