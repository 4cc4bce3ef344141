// Package domain defines the core business entities for BizBrain.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentRecord: processing state of one source document
//   - BatchRecord: a group of documents sharing an effective date
//   - Segment: an overlapping text window, the unit of embedding and retrieval
//   - Registry: the durable aggregate of document and batch state
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
