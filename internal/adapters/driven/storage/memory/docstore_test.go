package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

func testDocument(id, spaceID string, createdAt time.Time) *domain.Document {
	return &domain.Document{
		ID:         id,
		SpaceID:    spaceID,
		SourceType: domain.SourceUpload,
		Title:      "title-" + id,
		Status:     domain.StatusPending,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestDocumentStoreSaveAndGet(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "eng", now)))

	doc, err := s.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "title-d1", doc.Title)

	// The returned document is a copy, not a view on the store.
	doc.Title = "mutated"
	again, err := s.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "title-d1", again.Title)

	_, err = s.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStoreSaveValidation(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()

	assert.ErrorIs(t, s.SaveDocument(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.SaveDocument(ctx, &domain.Document{}), domain.ErrInvalidInput)
}

func TestDocumentStoreSetStatusAndSummary(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "eng", time.Now())))

	require.NoError(t, s.SetStatus(ctx, "d1", domain.StatusIndexed))
	require.NoError(t, s.SetSummary(ctx, "d1", "a summary"))

	doc, err := s.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, doc.Status)
	assert.Equal(t, "a summary", doc.Summary)

	assert.ErrorIs(t, s.SetStatus(ctx, "missing", domain.StatusFailed), domain.ErrNotFound)
	assert.ErrorIs(t, s.SetSummary(ctx, "missing", "x"), domain.ErrNotFound)
}

func TestDocumentStoreSaveChunks(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "eng", time.Now())))

	chunks := []domain.Chunk{
		{ID: "c2", DocumentID: "d1", Position: 1, Content: "second"},
		{ID: "c1", DocumentID: "d1", Position: 0, Content: "first"},
	}
	require.NoError(t, s.SaveChunks(ctx, chunks))

	got, err := s.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content, "chunks come back in position order")
	assert.Equal(t, "second", got[1].Content)
}

func TestDocumentStoreSaveChunksValidation(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "eng", time.Now())))

	assert.NoError(t, s.SaveChunks(ctx, nil), "empty chunk set is a no-op")

	mixed := []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Position: 0},
		{ID: "c2", DocumentID: "d2", Position: 1},
	}
	assert.ErrorIs(t, s.SaveChunks(ctx, mixed), domain.ErrInvalidInput)

	orphan := []domain.Chunk{{ID: "c1", DocumentID: "missing", Position: 0}}
	assert.ErrorIs(t, s.SaveChunks(ctx, orphan), domain.ErrNotFound)
}

func TestDocumentStoreDeleteChunksKeepsDocument(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "eng", time.Now())))
	require.NoError(t, s.SaveChunks(ctx, []domain.Chunk{{ID: "c1", DocumentID: "d1"}}))

	require.NoError(t, s.DeleteChunks(ctx, "d1"))

	got, err := s.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.GetDocument(ctx, "d1")
	assert.NoError(t, err, "the document row survives a chunk rollback")
}

func TestDocumentStoreDeleteDocument(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "eng", time.Now())))
	require.NoError(t, s.SaveChunks(ctx, []domain.Chunk{{ID: "c1", DocumentID: "d1"}}))

	require.NoError(t, s.DeleteDocument(ctx, "d1"))

	_, err := s.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := s.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDocumentStoreListDocuments(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "eng", base)))
	require.NoError(t, s.SaveDocument(ctx, testDocument("d2", "eng", base.Add(time.Hour))))
	require.NoError(t, s.SaveDocument(ctx, testDocument("d3", "board", base)))

	docs, err := s.ListDocuments(ctx, "eng")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d2", docs[0].ID, "newest first")
	assert.Equal(t, "d1", docs[1].ID)

	docs, err = s.ListDocuments(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentStoreDeleteSpace(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "eng", now)))
	require.NoError(t, s.SaveDocument(ctx, testDocument("d2", "eng", now)))
	require.NoError(t, s.SaveDocument(ctx, testDocument("d3", "board", now)))
	require.NoError(t, s.SaveChunks(ctx, []domain.Chunk{{ID: "c1", DocumentID: "d1"}}))

	require.NoError(t, s.DeleteSpace(ctx, "eng"))

	docs, err := s.ListDocuments(ctx, "eng")
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = s.ListDocuments(ctx, "board")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
