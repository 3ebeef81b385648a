package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/corpora-labs/corpora/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides the document
// store, the vector index, and the graph store through wrapper types,
// all sharing one database file.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.corpora/data/corpora.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".corpora", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpora.db")

	// WAL mode so retrieval reads do not block ingest writes
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// VectorIndex returns a VectorIndex interface backed by this store.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// GraphStore returns a GraphStore interface backed by this store.
func (s *Store) GraphStore() driven.GraphStore {
	return &graphStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, space_id, source_type, title, content, summary, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			space_id = excluded.space_id,
			source_type = excluded.source_type,
			title = excluded.title,
			content = excluded.content,
			summary = excluded.summary,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, doc.ID, doc.SpaceID, string(doc.SourceType), doc.Title, doc.Content, doc.Summary,
		string(doc.Status), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SetStatus updates the ingestion status of a document.
func (s *documentStore) SetStatus(ctx context.Context, documentID string, status domain.IngestStatus) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), time.Now().UTC(), documentID)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetSummary persists the generated summary of a document.
func (s *documentStore) SetSummary(ctx context.Context, documentID, summary string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET summary = ?, updated_at = ? WHERE id = ?
	`, summary, time.Now().UTC(), documentID)
	if err != nil {
		return fmt.Errorf("updating summary: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveChunks stores the chunks for a document.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, space_id, position, start_offset, end_offset, content, embedding, entities)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			space_id = excluded.space_id,
			position = excluded.position,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			content = excluded.content,
			embedding = excluded.embedding,
			entities = excluded.entities
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		entitiesJSON, err := json.Marshal(chunk.Entities)
		if err != nil {
			return fmt.Errorf("marshalling chunk entities: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.SpaceID,
			chunk.Position, chunk.Start, chunk.End, chunk.Content,
			embeddingBlob, string(entitiesJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, space_id, source_type, title, content, summary, status, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// GetChunks retrieves all chunks for a document ordered by position.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, space_id, position, start_offset, end_offset, content, embedding, entities
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// DeleteChunks removes all chunks for a document, leaving the document
// row in place.
func (s *documentStore) DeleteChunks(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// ListDocuments returns documents in a space, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, spaceID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, space_id, source_type, title, content, summary, status, created_at, updated_at
		FROM documents WHERE space_id = ?
		ORDER BY created_at DESC, id
	`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// DeleteSpace removes every document and chunk in a space.
func (s *documentStore) DeleteSpace(ctx context.Context, spaceID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE space_id = ?", spaceID); err != nil {
		return fmt.Errorf("deleting space chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE space_id = ?", spaceID); err != nil {
		return fmt.Errorf("deleting space documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex with a brute-force cosine
// scan. Space membership is part of the SQL predicate, so rows outside
// the caller's spaces never leave the database.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Upsert inserts or replaces the vector row for a chunk.
func (s *vectorIndex) Upsert(ctx context.Context, chunk domain.Chunk, meta driven.ChunkMeta) error {
	if len(chunk.Embedding) == 0 {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO vectors (chunk_id, document_id, space_id, position, content, embedding, doc_title, doc_created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			space_id = excluded.space_id,
			position = excluded.position,
			content = excluded.content,
			embedding = excluded.embedding,
			doc_title = excluded.doc_title,
			doc_created_at = excluded.doc_created_at
	`, chunk.ID, chunk.DocumentID, chunk.SpaceID, chunk.Position, chunk.Content,
		float32SliceToBytes(chunk.Embedding), meta.DocumentTitle, meta.DocumentCreatedAt)

	if err != nil {
		return fmt.Errorf("upserting vector: %w", err)
	}
	return nil
}

// DeleteDocument removes all vector rows of a document in one statement.
func (s *vectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting document vectors: %w", err)
	}
	return nil
}

// DeleteSpace removes all vector rows belonging to a space.
func (s *vectorIndex) DeleteSpace(ctx context.Context, spaceID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE space_id = ?", spaceID)
	if err != nil {
		return fmt.Errorf("deleting space vectors: %w", err)
	}
	return nil
}

// Query returns up to k chunks nearest to the vector among the given
// spaces. Ties break by most-recent document, then chunk position.
func (s *vectorIndex) Query(
	ctx context.Context, spaceIDs []string, vector []float32, k int, documentID string,
) ([]domain.RetrievedChunk, error) {
	if k <= 0 || len(vector) == 0 || len(spaceIDs) == 0 {
		return nil, nil
	}
	queryNorm := vectorNorm(vector)
	if queryNorm == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(spaceIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT chunk_id, document_id, position, content, embedding, doc_title, doc_created_at
		FROM vectors WHERE space_id IN (%s)
	`, placeholders)
	args := make([]any, 0, len(spaceIDs)+1)
	for _, id := range spaceIDs {
		args = append(args, id)
	}
	if documentID != "" {
		query += " AND document_id = ?"
		args = append(args, documentID)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	type scored struct {
		chunk     domain.RetrievedChunk
		createdAt time.Time
		position  int
	}
	var candidates []scored //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			c         scored
			blob      []byte
			createdAt sql.NullTime
		)
		if err := rows.Scan(&c.chunk.ChunkID, &c.chunk.DocumentID, &c.position,
			&c.chunk.Content, &blob, &c.chunk.DocumentTitle, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		if createdAt.Valid {
			c.createdAt = createdAt.Time
		}

		embedding := bytesToFloat32Slice(blob)
		c.chunk.Similarity = cosineSimilarity(vector, queryNorm, embedding)
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.chunk.Similarity != b.chunk.Similarity {
			return a.chunk.Similarity > b.chunk.Similarity
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.After(b.createdAt)
		}
		return a.position < b.position
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	results := make([]domain.RetrievedChunk, len(candidates))
	for i, c := range candidates {
		results[i] = c.chunk
	}
	return results, nil
}

// Close is a no-op; the connection is owned by the parent Store.
func (s *vectorIndex) Close() error {
	return nil
}

// ==================== Graph Store ====================

// graphStore implements driven.GraphStore.
type graphStore struct {
	store *Store
}

var _ driven.GraphStore = (*graphStore)(nil)

// AddNode records an entity node for a chunk.
func (s *graphStore) AddNode(ctx context.Context, entity, label, chunkID string) error {
	if entity == "" {
		return nil
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO graph_nodes (entity, label, chunk_id)
		VALUES (?, ?, ?)
		ON CONFLICT(entity, chunk_id) DO NOTHING
	`, entity, label, chunkID)
	if err != nil {
		return fmt.Errorf("adding node: %w", err)
	}
	return nil
}

// AddEdge records a relation between two entities.
func (s *graphStore) AddEdge(ctx context.Context, edge driven.GraphEdge, chunkID string) error {
	if edge.Source == "" || edge.Target == "" {
		return nil
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO graph_edges (source, target, label, chunk_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source, target, label, chunk_id) DO NOTHING
	`, edge.Source, edge.Target, edge.Label, chunkID)
	if err != nil {
		return fmt.Errorf("adding edge: %w", err)
	}
	return nil
}

// Neighbourhood returns distinct edges touching any of the given entities.
func (s *graphStore) Neighbourhood(ctx context.Context, entities []string) ([]driven.GraphEdge, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(entities))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT DISTINCT source, target, label
		FROM graph_edges
		WHERE source IN (%s) OR target IN (%s)
		ORDER BY source, target, label
	`, placeholders, placeholders)
	args := make([]any, 0, len(entities)*2)
	for _, e := range entities {
		args = append(args, e)
	}
	for _, e := range entities {
		args = append(args, e)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var edges []driven.GraphEdge //nolint:prealloc // size unknown from query
	for rows.Next() {
		var edge driven.GraphEdge
		if err := rows.Scan(&edge.Source, &edge.Target, &edge.Label); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}

	return edges, nil
}

// DeleteForChunks removes graph rows derived from the given chunks.
func (s *graphStore) DeleteForChunks(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(chunkIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM graph_nodes WHERE chunk_id IN (%s)", placeholders), args...); err != nil {
		return fmt.Errorf("deleting nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM graph_edges WHERE chunk_id IN (%s)", placeholders), args...); err != nil {
		return fmt.Errorf("deleting edges: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// vectorNorm computes the Euclidean norm of a vector.
func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosineSimilarity computes cosine similarity with a precomputed query norm.
func cosineSimilarity(query []float32, queryNorm float64, candidate []float32) float64 {
	if len(query) != len(candidate) {
		return 0
	}
	candidateNorm := vectorNorm(candidate)
	if queryNorm == 0 || candidateNorm == 0 {
		return 0
	}
	var dot float64
	for i := range query {
		dot += float64(query[i]) * float64(candidate[i])
	}
	return dot / (queryNorm * candidateNorm)
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var sourceType, status string

	if err := row.Scan(&doc.ID, &doc.SpaceID, &sourceType, &doc.Title, &doc.Content,
		&doc.Summary, &status, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.SourceType = domain.SourceType(sourceType)
	doc.Status = domain.IngestStatus(status)
	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var sourceType, status string

	if err := rows.Scan(&doc.ID, &doc.SpaceID, &sourceType, &doc.Title, &doc.Content,
		&doc.Summary, &status, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.SourceType = domain.SourceType(sourceType)
	doc.Status = domain.IngestStatus(status)
	return &doc, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	var entitiesJSON string

	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.SpaceID, &chunk.Position,
		&chunk.Start, &chunk.End, &chunk.Content, &embeddingBlob, &entitiesJSON); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if entitiesJSON != "" {
		if err := json.Unmarshal([]byte(entitiesJSON), &chunk.Entities); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk entities: %w", err)
		}
	}

	return &chunk, nil
}
