package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/corpora-labs/corpora/internal/core/ports/driven"
)

var _ driven.GraphStore = (*GraphStore)(nil)

type edgeKey struct {
	source string
	target string
	label  string
}

// GraphStore keeps the entity graph in maps. Nodes and edges remember
// which chunks produced them so chunk deletion can garbage-collect
// orphaned graph data.
type GraphStore struct {
	mu        sync.RWMutex
	nodeRefs  map[string]map[string]bool  // entity → chunk IDs
	nodeLabel map[string]string           // entity → label
	edgeRefs  map[edgeKey]map[string]bool // edge → chunk IDs
}

// NewGraphStore creates an empty in-memory graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		nodeRefs:  make(map[string]map[string]bool),
		nodeLabel: make(map[string]string),
		edgeRefs:  make(map[edgeKey]map[string]bool),
	}
}

// AddNode records an entity node. Re-adding an entity keeps the first
// label and accumulates the chunk reference.
func (g *GraphStore) AddNode(_ context.Context, entity, label, chunkID string) error {
	if entity == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nodeRefs[entity] == nil {
		g.nodeRefs[entity] = make(map[string]bool)
		g.nodeLabel[entity] = label
	}
	g.nodeRefs[entity][chunkID] = true
	return nil
}

// AddEdge records a relation between two entities.
func (g *GraphStore) AddEdge(_ context.Context, edge driven.GraphEdge, chunkID string) error {
	if edge.Source == "" || edge.Target == "" {
		return nil
	}
	key := edgeKey{source: edge.Source, target: edge.Target, label: edge.Label}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.edgeRefs[key] == nil {
		g.edgeRefs[key] = make(map[string]bool)
	}
	g.edgeRefs[key][chunkID] = true
	return nil
}

// Neighbourhood returns every edge touching any of the given entities,
// in a stable order.
func (g *GraphStore) Neighbourhood(_ context.Context, entities []string) ([]driven.GraphEdge, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(entities))
	for _, e := range entities {
		wanted[e] = true
	}

	g.mu.RLock()
	var out []driven.GraphEdge
	for key := range g.edgeRefs {
		if wanted[key.source] || wanted[key.target] {
			out = append(out, driven.GraphEdge{Source: key.source, Target: key.target, Label: key.label})
		}
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// DeleteForChunks drops the chunk references from all nodes and edges
// and removes those left with no references.
func (g *GraphStore) DeleteForChunks(_ context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, chunkID := range chunkIDs {
		for entity, refs := range g.nodeRefs {
			delete(refs, chunkID)
			if len(refs) == 0 {
				delete(g.nodeRefs, entity)
				delete(g.nodeLabel, entity)
			}
		}
		for key, refs := range g.edgeRefs {
			delete(refs, chunkID)
			if len(refs) == 0 {
				delete(g.edgeRefs, key)
			}
		}
	}
	return nil
}
