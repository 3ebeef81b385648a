package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
	"github.com/corpora-labs/corpora/internal/core/ports/driving"
	"github.com/corpora-labs/corpora/internal/extract"
	"github.com/corpora-labs/corpora/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// Embedding retry policy. A backend outage is retried with doubling
// backoff; anything past the cap marks the document failed.
const (
	embedMaxAttempts  = 3
	embedInitialDelay = 500 * time.Millisecond
	embedBatchSize    = 32
)

// summaryFallbackChars bounds the prefix used when no generative
// provider can produce a summary.
const summaryFallbackChars = 500

// URLFetcher fetches a URL and extracts title and readable text.
type URLFetcher interface {
	Fetch(ctx context.Context, url string) (title, text string, err error)
}

// IngestService orchestrates the document write path: extraction,
// chunking, embedding, vector indexing, graph extraction, and
// summarisation. Ingestion is all-or-nothing per document: a failure
// after partial indexing rolls back every upserted chunk so no
// partially-indexed document is ever queryable.
type IngestService struct {
	docStore driven.DocumentStore
	index    driven.VectorIndex
	graph    driven.GraphStore
	embedder driven.EmbeddingService
	pipeline driven.PostProcessorPipeline
	chain    *ProviderChain
	fetcher  URLFetcher

	summaryCharCap int
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithSummaryCharCap sets how many leading characters of a document are
// sent to the provider chain for summarisation.
func WithSummaryCharCap(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.summaryCharCap = n
		}
	}
}

// WithURLFetcher sets the fetcher used by IngestURL.
func WithURLFetcher(f URLFetcher) IngestOption {
	return func(s *IngestService) {
		s.fetcher = f
	}
}

// NewIngestService creates a new ingest service. The graph store is
// optional; when nil, entity graph extraction is skipped.
func NewIngestService(
	docStore driven.DocumentStore,
	index driven.VectorIndex,
	graph driven.GraphStore,
	embedder driven.EmbeddingService,
	pipeline driven.PostProcessorPipeline,
	chain *ProviderChain,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		docStore:       docStore,
		index:          index,
		graph:          graph,
		embedder:       embedder,
		pipeline:       pipeline,
		chain:          chain,
		summaryCharCap: 4000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestDocument runs the full pipeline for already-extracted text.
func (s *IngestService) IngestDocument(
	ctx context.Context, spaceID string, sourceType domain.SourceType, title, rawText string,
) (*domain.Document, error) {
	if spaceID == "" || title == "" {
		return nil, domain.ErrInvalidInput
	}
	if !sourceType.IsValid() {
		return nil, fmt.Errorf("%w: source type %q", domain.ErrInvalidInput, sourceType)
	}

	logger.Section("Ingestion")
	logger.Debug("Space %s, source %s, title %q", spaceID, sourceType, title)

	now := time.Now()
	doc := &domain.Document{
		ID:         uuid.New().String(),
		SpaceID:    spaceID,
		SourceType: sourceType,
		Title:      title,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if err := s.run(ctx, doc, rawText); err != nil {
		s.markFailed(ctx, doc)
		return doc, err
	}

	s.summarise(ctx, doc)
	return doc, nil
}

// IngestURL fetches a URL, extracts its text, and ingests it.
func (s *IngestService) IngestURL(ctx context.Context, spaceID, url string) (*domain.Document, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: no URL fetcher configured", domain.ErrExtraction)
	}
	title, text, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.IngestDocument(ctx, spaceID, domain.SourceURL, title, text)
}

// run drives the state machine from pending to indexed. On error the
// caller marks the document failed; run guarantees no chunks remain
// indexed when it returns an error.
func (s *IngestService) run(ctx context.Context, doc *domain.Document, rawText string) error {
	// pending → extracting
	if err := s.transition(ctx, doc, domain.StatusExtracting); err != nil {
		return err
	}
	content := extract.Normalize(rawText)
	if content == "" {
		return fmt.Errorf("%w: document %q has no extractable text", domain.ErrExtraction, doc.Title)
	}
	doc.Content = content
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save content: %w", err)
	}

	// extracting → chunked
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	logger.Debug("Document %s: %d chunks", doc.ID, len(chunks))
	if err := s.transition(ctx, doc, domain.StatusChunked); err != nil {
		return err
	}

	// chunked → embedding
	if err := s.transition(ctx, doc, domain.StatusEmbedding); err != nil {
		return err
	}
	if err := s.embedChunks(ctx, chunks); err != nil {
		return err
	}

	// embedding → indexed, all-or-nothing
	if err := s.indexChunks(ctx, doc, chunks); err != nil {
		return err
	}
	if err := s.transition(ctx, doc, domain.StatusIndexed); err != nil {
		// The document will be marked failed; a failed document must
		// not keep queryable vectors.
		s.rollback(ctx, doc.ID)
		return err
	}
	return nil
}

// embedChunks fills chunk embeddings in batches, retrying transient
// backend outages with doubling backoff.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := s.embedWithRetry(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		for i := range batch {
			batch[i].Embedding = vectors[i]
		}
	}
	return nil
}

// embedWithRetry retries ErrModelUnavailable up to the attempt cap.
// Other errors fail immediately.
func (s *IngestService) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	delay := embedInitialDelay
	var lastErr error

	for attempt := 1; attempt <= embedMaxAttempts; attempt++ {
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrModelUnavailable) {
			return nil, err
		}
		if attempt == embedMaxAttempts {
			break
		}

		logger.Warn("Embedding backend unavailable (attempt %d/%d), retrying in %s",
			attempt, embedMaxAttempts, delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

// indexChunks persists chunks and their vectors. Any failure rolls back
// everything already written for this document.
func (s *IngestService) indexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}

	meta := driven.ChunkMeta{
		DocumentTitle:     doc.Title,
		DocumentCreatedAt: doc.CreatedAt,
	}
	for i := range chunks {
		if err := s.index.Upsert(ctx, chunks[i], meta); err != nil {
			logger.Warn("Upsert failed for chunk %d of document %s, rolling back", i, doc.ID)
			s.rollback(ctx, doc.ID)
			return fmt.Errorf("index chunk %d: %w", i, err)
		}
	}

	s.extractGraph(ctx, chunks)
	return nil
}

// extractGraph records entity nodes and adjacent-entity edges. Graph
// failures are logged but never fail an ingest.
func (s *IngestService) extractGraph(ctx context.Context, chunks []domain.Chunk) {
	if s.graph == nil {
		return
	}
	for _, chunk := range chunks {
		seen := make(map[string]bool, len(chunk.Entities))
		for _, entity := range chunk.Entities {
			if seen[entity] {
				continue
			}
			seen[entity] = true
			if err := s.graph.AddNode(ctx, entity, "Entity", chunk.ID); err != nil {
				logger.Warn("Graph node %q: %v", entity, err)
			}
		}
		for i := 0; i+1 < len(chunk.Entities); i++ {
			edge := driven.GraphEdge{
				Source: chunk.Entities[i],
				Target: chunk.Entities[i+1],
				Label:  "RELATED",
			}
			if err := s.graph.AddEdge(ctx, edge, chunk.ID); err != nil {
				logger.Warn("Graph edge %s->%s: %v", edge.Source, edge.Target, err)
			}
		}
	}
}

// rollback removes everything indexed for a document so a failed ingest
// leaves no queryable state. Best-effort: rollback errors are logged.
func (s *IngestService) rollback(ctx context.Context, documentID string) {
	if err := s.index.DeleteDocument(ctx, documentID); err != nil {
		logger.Warn("Rollback vectors for %s: %v", documentID, err)
	}
	if err := s.docStore.DeleteChunks(ctx, documentID); err != nil {
		logger.Warn("Rollback chunks for %s: %v", documentID, err)
	}
}

// summarise generates and persists the document summary from a bounded
// prefix of the content. Summary failures never fail the ingest; the
// fallback is a plain prefix of the text.
func (s *IngestService) summarise(ctx context.Context, doc *domain.Document) {
	prefix := doc.Content
	if len(prefix) > s.summaryCharCap {
		prefix = truncate(prefix, s.summaryCharCap) + "..."
	}

	prompt := domain.Prompt{
		Kind:    domain.PromptSummary,
		Context: []string{prefix},
	}
	summary, err := s.chain.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.3})
	if err != nil || strings.TrimSpace(summary) == "" {
		if err != nil {
			logger.Warn("Summary generation for %s: %v", doc.ID, err)
		}
		summary = truncate(doc.Content, summaryFallbackChars)
		if len(doc.Content) > summaryFallbackChars {
			summary += "..."
		}
	}

	doc.Summary = strings.TrimSpace(summary)
	if err := s.docStore.SetSummary(ctx, doc.ID, doc.Summary); err != nil {
		logger.Warn("Persist summary for %s: %v", doc.ID, err)
	}
}

// transition applies a state machine step and persists it.
func (s *IngestService) transition(ctx context.Context, doc *domain.Document, next domain.IngestStatus) error {
	if !doc.Status.CanTransition(next) {
		return fmt.Errorf("%w: cannot move %s from %s to %s",
			domain.ErrInvalidInput, doc.ID, doc.Status, next)
	}
	doc.Status = next
	doc.UpdatedAt = time.Now()
	if err := s.docStore.SetStatus(ctx, doc.ID, next); err != nil {
		return fmt.Errorf("set status %s: %w", next, err)
	}
	return nil
}

// markFailed moves the document to the terminal failed state.
func (s *IngestService) markFailed(ctx context.Context, doc *domain.Document) {
	doc.Status = domain.StatusFailed
	if err := s.docStore.SetStatus(ctx, doc.ID, domain.StatusFailed); err != nil {
		logger.Warn("Mark %s failed: %v", doc.ID, err)
	}
}

// DeleteDocument removes a document, its chunks, vectors, and derived
// graph data.
func (s *IngestService) DeleteDocument(ctx context.Context, documentID string) error {
	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get chunks: %w", err)
	}

	if err := s.index.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}

	if s.graph != nil && len(chunks) > 0 {
		chunkIDs := make([]string, len(chunks))
		for i, c := range chunks {
			chunkIDs[i] = c.ID
		}
		if err := s.graph.DeleteForChunks(ctx, chunkIDs); err != nil {
			logger.Warn("Delete graph data for %s: %v", documentID, err)
		}
	}

	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	logger.Info("Deleted document %s (%d chunks)", documentID, len(chunks))
	return nil
}

// DeleteSpace cascades deletion of every document in a space.
func (s *IngestService) DeleteSpace(ctx context.Context, spaceID string) error {
	docs, err := s.docStore.ListDocuments(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if s.graph != nil {
		var chunkIDs []string
		for _, doc := range docs {
			chunks, err := s.docStore.GetChunks(ctx, doc.ID)
			if err != nil {
				return fmt.Errorf("get chunks for %s: %w", doc.ID, err)
			}
			for _, c := range chunks {
				chunkIDs = append(chunkIDs, c.ID)
			}
		}
		if len(chunkIDs) > 0 {
			if err := s.graph.DeleteForChunks(ctx, chunkIDs); err != nil {
				logger.Warn("Delete graph data for space %s: %v", spaceID, err)
			}
		}
	}

	if err := s.index.DeleteSpace(ctx, spaceID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.docStore.DeleteSpace(ctx, spaceID); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	logger.Info("Deleted space %s (%d documents)", spaceID, len(docs))
	return nil
}

// GetSummary returns the generated summary of a document.
func (s *IngestService) GetSummary(ctx context.Context, documentID string) (string, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	return doc.Summary, nil
}
