// Package memory provides in-memory implementations of the storage
// ports. They are the default for tests and for running without a data
// directory.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// vectorEntry is one indexed chunk vector.
type vectorEntry struct {
	chunkID  string
	position int
	content  string
	vector   []float32
	norm     float64
}

// docShard holds the published chunk set of one document. Shards are
// immutable after publication: writers build a replacement and swap the
// pointer under the lock, so a reader holding a shard never observes a
// partial write or partial delete of that document.
type docShard struct {
	spaceID   string
	title     string
	createdAt time.Time
	entries   []vectorEntry
}

// VectorIndex is an in-memory cosine-similarity index with the space
// filter applied during candidate collection. Chunks outside the
// requested spaces are never scored.
type VectorIndex struct {
	mu sync.RWMutex

	// docs maps document ID to its current shard.
	docs map[string]*docShard

	// spaces maps space ID to the documents it contains.
	spaces map[string]map[string]bool
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		docs:   make(map[string]*docShard),
		spaces: make(map[string]map[string]bool),
	}
}

// Upsert inserts or replaces the vector for a chunk. The owning
// document's shard is rebuilt copy-on-write.
func (idx *VectorIndex) Upsert(_ context.Context, chunk domain.Chunk, meta driven.ChunkMeta) error {
	if len(chunk.Embedding) == 0 {
		return domain.ErrInvalidInput
	}

	entry := vectorEntry{
		chunkID:  chunk.ID,
		position: chunk.Position,
		content:  chunk.Content,
		vector:   chunk.Embedding,
		norm:     norm(chunk.Embedding),
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	old := idx.docs[chunk.DocumentID]
	next := &docShard{
		spaceID:   chunk.SpaceID,
		title:     meta.DocumentTitle,
		createdAt: meta.DocumentCreatedAt,
	}
	if old != nil {
		next.entries = make([]vectorEntry, 0, len(old.entries)+1)
		for _, e := range old.entries {
			if e.chunkID != chunk.ID {
				next.entries = append(next.entries, e)
			}
		}
	}
	next.entries = append(next.entries, entry)

	idx.docs[chunk.DocumentID] = next
	if old != nil && old.spaceID != chunk.SpaceID {
		// The document moved spaces; it must not stay retrievable
		// through the old one.
		if members := idx.spaces[old.spaceID]; members != nil {
			delete(members, chunk.DocumentID)
			if len(members) == 0 {
				delete(idx.spaces, old.spaceID)
			}
		}
	}
	if idx.spaces[chunk.SpaceID] == nil {
		idx.spaces[chunk.SpaceID] = make(map[string]bool)
	}
	idx.spaces[chunk.SpaceID][chunk.DocumentID] = true
	return nil
}

// DeleteDocument removes all vectors of a document in one swap, so a
// concurrent query sees either every chunk or none.
func (idx *VectorIndex) DeleteDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	shard, ok := idx.docs[documentID]
	if !ok {
		return nil
	}
	delete(idx.docs, documentID)
	if members := idx.spaces[shard.spaceID]; members != nil {
		delete(members, documentID)
		if len(members) == 0 {
			delete(idx.spaces, shard.spaceID)
		}
	}
	return nil
}

// DeleteSpace removes all vectors belonging to a space.
func (idx *VectorIndex) DeleteSpace(_ context.Context, spaceID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for docID := range idx.spaces[spaceID] {
		delete(idx.docs, docID)
	}
	delete(idx.spaces, spaceID)
	return nil
}

// Query returns up to k chunks nearest to the vector, drawn only from
// the given spaces. Candidates are collected through the space map, so
// content in other spaces is never touched. Ties break by most-recent
// document first, then chunk ordinal.
func (idx *VectorIndex) Query(
	_ context.Context, spaceIDs []string, vector []float32, k int, documentID string,
) ([]domain.RetrievedChunk, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, nil
	}
	queryNorm := norm(vector)
	if queryNorm == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		chunk     domain.RetrievedChunk
		createdAt time.Time
		position  int
	}
	var candidates []scored

	for _, spaceID := range spaceIDs {
		for docID := range idx.spaces[spaceID] {
			if documentID != "" && docID != documentID {
				continue
			}
			shard := idx.docs[docID]
			if shard == nil {
				continue
			}
			for _, e := range shard.entries {
				sim := cosine(vector, queryNorm, e.vector, e.norm)
				candidates = append(candidates, scored{
					chunk: domain.RetrievedChunk{
						ChunkID:       e.chunkID,
						DocumentID:    docID,
						DocumentTitle: shard.title,
						Content:       e.content,
						Similarity:    sim,
					},
					createdAt: shard.createdAt,
					position:  e.position,
				})
			}
		}
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

// Close releases resources.
func (idx *VectorIndex) Close() error {
	return nil
}

// norm computes the Euclidean norm of a vector.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity given precomputed norms.
func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
