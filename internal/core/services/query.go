package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
	"github.com/corpora-labs/corpora/internal/core/ports/driving"
	"github.com/corpora-labs/corpora/internal/logger"
	"github.com/corpora-labs/corpora/internal/postprocessors/entities"
)

// Ensure QueryService implements the interface.
var _ driving.QueryEngine = (*QueryService)(nil)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// defaultMinSimilarity filters out poor matches before generation.
const defaultMinSimilarity = 0.3

// limitedContextChars marks retrieved context as too thin to answer
// confidently; the answer then carries a note.
const limitedContextChars = 50

// maxGraphEntities bounds how many retrieved entities seed the 1-hop
// graph lookup.
const maxGraphEntities = 5

// Canned answers for degenerate retrieval outcomes.
const (
	msgNoAccessibleContent = "You don't have access to any knowledge spaces yet. " +
		"Join a space or ask an administrator for access."
	msgNothingFound = "I couldn't find any relevant information in the uploaded documents " +
		"to answer your question. Please try rephrasing your question or upload more relevant documents."
	msgNothingFoundInDocument = "I couldn't find any relevant information in this specific document " +
		"to answer your question. The document may not contain information related to your query."
	noteLimitedContext = "\n\n**Note:** I found very limited information related to your question. " +
		"The answer above may be incomplete."
)

// QueryService answers questions against the caller's visible spaces.
// Each Ask call is independent and stateless: the question, retrieved
// context, and answer exist only in the request's QueryContext and are
// discarded when it returns.
type QueryService struct {
	access   driven.AccessDirectory
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	graph    driven.GraphStore
	chain    *ProviderChain

	topK          int
	minSimilarity float64
}

// QueryOption configures the query service.
type QueryOption func(*QueryService)

// WithTopK sets the default retrieval depth.
func WithTopK(k int) QueryOption {
	return func(s *QueryService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithMinSimilarity sets the similarity floor below which retrieved
// chunks are discarded.
func WithMinSimilarity(min float64) QueryOption {
	return func(s *QueryService) {
		if min >= 0 {
			s.minSimilarity = min
		}
	}
}

// NewQueryService creates a new query service. The graph store is
// optional; when nil, graph context enrichment is skipped.
func NewQueryService(
	access driven.AccessDirectory,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	graph driven.GraphStore,
	chain *ProviderChain,
	opts ...QueryOption,
) *QueryService {
	s := &QueryService{
		access:        access,
		embedder:      embedder,
		index:         index,
		graph:         graph,
		chain:         chain,
		topK:          DefaultTopK,
		minSimilarity: defaultMinSimilarity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask resolves the user's visible spaces, retrieves relevant chunks,
// and generates an answer through the provider chain.
func (s *QueryService) Ask(ctx context.Context, question, userID string, opts domain.QueryOptions) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	logger.Section("Query")
	logger.Debug("User %s, question length %d", userID, len(question))

	spaceIDs, err := s.access.VisibleSpaces(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve visible spaces: %w", err)
	}
	if len(spaceIDs) == 0 {
		// Short-circuit before touching the index.
		logger.Debug("User %s has no visible spaces", userID)
		return msgNoAccessibleContent, nil
	}
	logger.Debug("Visible spaces: %d", len(spaceIDs))

	qc := domain.QueryContext{
		Question:   question,
		SpaceIDs:   spaceIDs,
		DocumentID: opts.DocumentID,
	}
	if err := s.retrieve(ctx, &qc, opts.TopK); err != nil {
		return "", err
	}

	if len(qc.Retrieved) == 0 {
		if qc.DocumentID != "" {
			return msgNothingFoundInDocument, nil
		}
		return msgNothingFound, nil
	}

	s.enrichFromGraph(ctx, &qc)
	return s.generate(ctx, &qc)
}

// retrieve embeds the question and runs the space-filtered index query.
// The permission filter lives inside the index query: chunks outside
// qc.SpaceIDs are never materialised, so absence of permission is
// indistinguishable from absence of results.
func (s *QueryService) retrieve(ctx context.Context, qc *domain.QueryContext, topK int) error {
	if topK <= 0 {
		topK = s.topK
	}

	vector, err := s.embedder.Embed(ctx, qc.Question)
	if err != nil {
		return fmt.Errorf("embed question: %w", err)
	}
	logger.Debug("Question embedded: %d dimensions", len(vector))

	hits, err := s.index.Query(ctx, qc.SpaceIDs, vector, topK, qc.DocumentID)
	if err != nil {
		return fmt.Errorf("vector query: %w", err)
	}
	logger.Debug("Retrieved %d chunks", len(hits))

	for _, hit := range hits {
		if hit.Similarity < s.minSimilarity {
			continue
		}
		qc.Retrieved = append(qc.Retrieved, hit)
	}
	return nil
}

// enrichFromGraph appends 1-hop entity relations from the knowledge
// graph to the context. Graph failures degrade silently to plain
// retrieval.
func (s *QueryService) enrichFromGraph(ctx context.Context, qc *domain.QueryContext) {
	if s.graph == nil {
		return
	}

	seen := make(map[string]bool)
	var seeds []string
	for _, chunk := range qc.Retrieved {
		for _, entity := range entities.Extract(chunk.Content) {
			if seen[entity] {
				continue
			}
			seen[entity] = true
			seeds = append(seeds, entity)
			if len(seeds) == maxGraphEntities {
				break
			}
		}
		if len(seeds) == maxGraphEntities {
			break
		}
	}
	if len(seeds) == 0 {
		return
	}

	edges, err := s.graph.Neighbourhood(ctx, seeds)
	if err != nil {
		logger.Warn("Graph lookup failed: %v", err)
		return
	}
	for _, e := range edges {
		qc.GraphFacts = append(qc.GraphFacts, fmt.Sprintf("%s is %s to %s", e.Source, e.Label, e.Target))
	}
	logger.Debug("Graph context: %d facts from %d entities", len(qc.GraphFacts), len(seeds))
}

// generate assembles the prompt and invokes the provider chain. A very
// thin context gets a limited-information note appended to the answer.
func (s *QueryService) generate(ctx context.Context, qc *domain.QueryContext) (string, error) {
	blocks := make([]string, 0, len(qc.Retrieved)+len(qc.GraphFacts))
	contextChars := 0
	for _, chunk := range qc.Retrieved {
		block := fmt.Sprintf("[%s]\n%s", chunk.DocumentTitle, chunk.Content)
		blocks = append(blocks, block)
		contextChars += len(chunk.Content)
	}
	blocks = append(blocks, qc.GraphFacts...)

	prompt := domain.Prompt{
		Kind:     domain.PromptAnswer,
		Context:  blocks,
		Question: qc.Question,
	}
	answer, err := s.chain.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		return "", err
	}

	if contextChars < limitedContextChars {
		answer += noteLimitedContext
	}
	qc.Answer = answer
	return answer, nil
}
