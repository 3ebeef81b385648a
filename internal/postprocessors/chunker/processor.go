// Package chunker provides a span-tracking text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default maximum chunk length in characters.
const DefaultChunkSize = 500

// DefaultOverlap is the default overlap between consecutive chunks.
const DefaultOverlap = 50

// Processor splits document content into overlapping chunks. It prefers
// paragraph and sentence boundaries but never emits a chunk longer than
// the configured size. Chunking is deterministic and side-effect-free:
// chunk spans cover the source text exactly, consecutive spans overlap
// by the configured amount, and ordinals are contiguous from zero.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for forward progress.
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks. Input chunks are
// ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	spans := p.spans(doc.Content)

	chunks := make([]domain.Chunk, 0, len(spans))
	for i, sp := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			SpaceID:    doc.SpaceID,
			Position:   i,
			Start:      sp.start,
			End:        sp.end,
			Content:    doc.Content[sp.start:sp.end],
		})
	}
	return chunks, nil
}

type span struct {
	start, end int
}

// spans computes the chunk byte spans for the given text. Empty input
// yields no spans; text shorter than the chunk size yields one span.
func (p *Processor) spans(text string) []span {
	n := len(text)
	if n == 0 {
		return nil
	}
	if n <= p.chunkSize {
		return []span{{0, n}}
	}

	var spans []span
	start := 0
	for start < n {
		end := start + p.chunkSize
		if end >= n {
			spans = append(spans, span{start, n})
			break
		}

		// Prefer a paragraph or sentence boundary inside the window,
		// as long as it still advances the cursor past the overlap.
		if cut := boundaryBefore(text, start, end); cut > start+p.overlap {
			end = cut
		} else {
			end = alignRune(text, end)
			if end <= start {
				// Rune alignment retreated to the cursor: the chunk
				// size is smaller than the rune. Emit the whole rune.
				_, size := utf8.DecodeRuneInString(text[start:])
				end = start + size
			}
		}

		spans = append(spans, span{start, end})
		next := alignRune(text, end-p.overlap)
		if next <= start {
			// Overlap plus rune alignment would move the cursor
			// backwards. Drop the overlap for this step instead.
			next = end
		}
		start = next
	}
	return spans
}

// boundaryBefore returns the byte offset just after the last logical
// boundary (blank line, newline, or sentence terminator followed by a
// space) in text[start:end], or -1 when there is none.
func boundaryBefore(text string, start, end int) int {
	window := text[start:end]

	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return start + i + 2
	}
	for i := len(window) - 2; i > 0; i-- {
		c := window[i]
		if (c == '.' || c == '!' || c == '?') && window[i+1] == ' ' {
			return start + i + 2
		}
	}
	if i := strings.LastIndexByte(window, '\n'); i >= 0 {
		return start + i + 1
	}
	return -1
}

// alignRune moves pos backwards to the nearest rune start so a hard cut
// never splits a multi-byte character.
func alignRune(text string, pos int) int {
	for pos > 0 && pos < len(text) && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}
