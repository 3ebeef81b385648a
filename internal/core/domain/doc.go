// Package domain contains the core business entities for knowledge spaces:
// documents, chunks, spaces, and the ephemeral query context. Domain types
// have no dependencies on adapters or infrastructure.
package domain
