// Package services implements the core application logic: document
// ingestion, permission-scoped retrieval, and the generation provider
// chain. Services depend only on domain types and ports.
package services
