package services

import (
	"context"
	"strings"
	"sync"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing. It maps
// texts to fixed vectors: texts containing a registered keyword get the
// keyword's vector, everything else gets the fallback.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	embedErr error
	errCount int // fail this many calls before succeeding
	calls    int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{
		vectors:  make(map[string][]float32),
		fallback: []float32{1, 0, 0},
	}
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	for keyword, vec := range m.vectors {
		if strings.Contains(text, keyword) {
			return vec
		}
	}
	return m.fallback
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil && m.calls <= m.errCount {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil && m.calls <= m.errCount {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.vectorFor(text)
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int { return 3 }

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockProvider implements driven.GenerationProvider for testing.
type mockProvider struct {
	name        string
	available   bool
	maxTokens   int
	answer      string
	generateErr error

	calls   int
	prompts []domain.Prompt
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Available(_ context.Context) bool { return m.available }

func (m *mockProvider) MaxContextTokens() int {
	if m.maxTokens > 0 {
		return m.maxTokens
	}
	return 8192
}

func (m *mockProvider) Generate(_ context.Context, prompt domain.Prompt, _ driven.GenerateOptions) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.answer, nil
}

func (m *mockProvider) Close() error { return nil }

// echoProvider returns the prompt context verbatim so tests can inspect
// exactly what reaches generation.
type echoProvider struct {
	prompts []domain.Prompt
}

func (e *echoProvider) Name() string { return "echo" }

func (e *echoProvider) Available(_ context.Context) bool { return true }

func (e *echoProvider) MaxContextTokens() int { return 32768 }

func (e *echoProvider) Generate(_ context.Context, prompt domain.Prompt, _ driven.GenerateOptions) (string, error) {
	e.prompts = append(e.prompts, prompt)
	return strings.Join(prompt.Context, "\n"), nil
}

func (e *echoProvider) Close() error { return nil }

// mockAccess implements driven.AccessDirectory with a fixed mapping.
type mockAccess struct {
	visible map[string][]string
	err     error
	calls   int
}

func (m *mockAccess) VisibleSpaces(_ context.Context, userID string) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.visible[userID], nil
}

// failingIndex wraps a real index and fails Upsert after a number of
// successful calls, for rollback tests.
type failingIndex struct {
	driven.VectorIndex
	failAfter int
	upserts   int
	failErr   error
}

func (f *failingIndex) Upsert(ctx context.Context, chunk domain.Chunk, meta driven.ChunkMeta) error {
	f.upserts++
	if f.upserts > f.failAfter {
		return f.failErr
	}
	return f.VectorIndex.Upsert(ctx, chunk, meta)
}

// statusRejectingStore fails SetStatus for one specific status and
// delegates everything else.
type statusRejectingStore struct {
	driven.DocumentStore
	reject  domain.IngestStatus
	failErr error
}

func (s *statusRejectingStore) SetStatus(ctx context.Context, documentID string, status domain.IngestStatus) error {
	if status == s.reject {
		return s.failErr
	}
	return s.DocumentStore.SetStatus(ctx, documentID, status)
}

// countingGraph implements driven.GraphStore and records calls.
type countingGraph struct {
	mu    sync.Mutex
	nodes map[string]bool
	edges []driven.GraphEdge
}

func newCountingGraph() *countingGraph {
	return &countingGraph{nodes: make(map[string]bool)}
}

func (g *countingGraph) AddNode(_ context.Context, entity, _, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[entity] = true
	return nil
}

func (g *countingGraph) AddEdge(_ context.Context, edge driven.GraphEdge, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges = append(g.edges, edge)
	return nil
}

func (g *countingGraph) Neighbourhood(_ context.Context, entities []string) ([]driven.GraphEdge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	wanted := make(map[string]bool, len(entities))
	for _, e := range entities {
		wanted[e] = true
	}
	var out []driven.GraphEdge
	for _, e := range g.edges {
		if wanted[e.Source] || wanted[e.Target] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (g *countingGraph) DeleteForChunks(_ context.Context, _ []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make(map[string]bool)
	g.edges = nil
	return nil
}
