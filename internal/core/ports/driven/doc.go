// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for ingestion and retrieval to function:
//
//   - TextExtractor: pulls plain text out of a named source file
//   - EmbeddingService: generates vector embeddings
//   - VectorIndex: durable vector storage and nearest-neighbour search
//   - RegistryStore: document registry persistence
//   - SegmentStore: per-segment JSON persistence
//   - FullTextStore: per-document full text persistence
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AnswerService: turns retrieved segments into a cited prose answer.
//     Without it, the ask command is disabled but search still works.
//   - HistoryStore: conversation history persistence.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
