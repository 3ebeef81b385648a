// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding backends, generation providers,
// the vector index, metadata storage, and the external access layer.
package driven
