// Package entities provides a processor that extracts entity candidates
// from chunk text for the knowledge graph.
package entities

import (
	"context"
	"strings"
	"unicode"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// minEntityLength filters out short capitalised words ("The", "And").
const minEntityLength = 4

// Processor annotates chunks with capitalised terms found in their
// content. The heuristic is deliberately simple: a capitalised word of
// four or more letters is treated as an entity candidate, and adjacent
// candidates become graph edges at ingest time.
type Processor struct{}

// New creates a new entity extraction processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "entities"
}

// Process fills the Entities field of each chunk. It requires chunks to
// exist already, so it must run after the chunker.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		chunks[i].Entities = Extract(chunks[i].Content)
	}
	return chunks, nil
}

// Extract returns ordered entity candidates from the text. Duplicates
// are kept so callers can connect adjacent occurrences; trimming
// punctuation keeps "Einstein," and "Einstein" identical.
func Extract(text string) []string {
	var entities []string
	for _, word := range strings.Fields(text) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if len(word) < minEntityLength {
			continue
		}
		r := []rune(word)
		if unicode.IsUpper(r[0]) {
			entities = append(entities, word)
		}
	}
	return entities
}
