package cli

import (
	"context"
	"time"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

// mockIngestor records calls and returns configurable results.
type mockIngestor struct {
	ingestErr  error
	summary    string
	summaryErr error
	deleteErr  error

	lastSpaceID   string
	lastTitle     string
	lastText      string
	lastURL       string
	deletedDocs   []string
	deletedSpaces []string
}

func (m *mockIngestor) IngestDocument(_ context.Context, spaceID string, sourceType domain.SourceType, title, rawText string) (*domain.Document, error) {
	m.lastSpaceID = spaceID
	m.lastTitle = title
	m.lastText = rawText
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	return &domain.Document{
		ID:         "doc-123",
		SpaceID:    spaceID,
		Title:      title,
		SourceType: sourceType,
		Status:     domain.StatusIndexed,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *mockIngestor) IngestURL(_ context.Context, spaceID, url string) (*domain.Document, error) {
	m.lastSpaceID = spaceID
	m.lastURL = url
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	return &domain.Document{
		ID:         "doc-456",
		SpaceID:    spaceID,
		Title:      url,
		SourceType: domain.SourceURL,
		Status:     domain.StatusIndexed,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *mockIngestor) DeleteDocument(_ context.Context, documentID string) error {
	m.deletedDocs = append(m.deletedDocs, documentID)
	return m.deleteErr
}

func (m *mockIngestor) DeleteSpace(_ context.Context, spaceID string) error {
	m.deletedSpaces = append(m.deletedSpaces, spaceID)
	return m.deleteErr
}

func (m *mockIngestor) GetSummary(_ context.Context, _ string) (string, error) {
	return m.summary, m.summaryErr
}

// mockQueryEngine records the last question asked.
type mockQueryEngine struct {
	answer string
	err    error

	lastQuestion string
	lastUserID   string
	lastOpts     domain.QueryOptions
}

func (m *mockQueryEngine) Ask(_ context.Context, question, userID string, opts domain.QueryOptions) (string, error) {
	m.lastQuestion = question
	m.lastUserID = userID
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

type mockDocumentLister struct {
	docs []domain.Document
	err  error
}

func (m *mockDocumentLister) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return m.docs, m.err
}

type mockSpaceDirectory struct {
	spaces []domain.Space
}

func (m *mockSpaceDirectory) Spaces() []domain.Space {
	return m.spaces
}

// testServices bundles the mocks installed by setupTestServices so tests
// can configure results and assert on recorded calls.
type testServices struct {
	ingestor  *mockIngestor
	query     *mockQueryEngine
	documents *mockDocumentLister
	spaces    *mockSpaceDirectory
}

// setupTestServices swaps the package-level services for mocks and
// returns a cleanup func restoring the originals.
func setupTestServices() (*testServices, func()) {
	oldIngestor := ingestor
	oldQueryEngine := queryEngine
	oldDocuments := documents
	oldSpaceDir := spaceDir

	ts := &testServices{
		ingestor:  &mockIngestor{summary: "A mock summary."},
		query:     &mockQueryEngine{answer: "A mock answer."},
		documents: &mockDocumentLister{},
		spaces:    &mockSpaceDirectory{},
	}
	ingestor = ts.ingestor
	queryEngine = ts.query
	documents = ts.documents
	spaceDir = ts.spaces

	return ts, func() {
		ingestor = oldIngestor
		queryEngine = oldQueryEngine
		documents = oldDocuments
		spaceDir = oldSpaceDir
	}
}
