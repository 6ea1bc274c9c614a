// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation assigns stable reference numbers to sources discovered
// during a research run.
package citation

import (
	"sync"

	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// Registry maps source URIs to 1-based citation indices. Indices are
// assigned in global first-seen order, are dense, and never change once
// assigned: registering a known URI returns its existing index. The zero
// value is not usable; call NewRegistry.
type Registry struct {
	mu      sync.Mutex
	byURI   map[string]int
	sources []types.Source
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byURI: make(map[string]int)}
}

// Register returns the citation index for uri, assigning the next free
// index when the URI has not been seen before. The first registered title
// for a URI wins; later titles are ignored.
func (r *Registry) Register(title, uri string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.byURI[uri]; ok {
		return idx
	}
	idx := len(r.sources) + 1
	r.byURI[uri] = idx
	r.sources = append(r.sources, types.Source{Index: idx, Title: title, URI: uri})
	return idx
}

// Sources returns a copy of the registered sources in index order.
func (r *Registry) Sources() []types.Source {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sources)
}
