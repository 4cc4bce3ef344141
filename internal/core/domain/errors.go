package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Extraction Errors.
	// Both are non-retryable without operator intervention (e.g. enabling OCR).

	// ErrUnsupportedFormat indicates the source file type has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoTextFound indicates extraction produced empty or whitespace-only
	// output. Guards against a failed OCR pass silently producing a
	// "processed" empty document.
	ErrNoTextFound = errors.New("no extractable text found")

	// ErrEmbedding indicates the embedding service call failed.
	// Retryable by re-running ingestion: no partial state was committed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexCorrupted indicates the persisted vector index is unreadable or
	// inconsistent with its metadata map. Recoverable by discarding and
	// re-ingesting: segment files remain the durable source of truth for
	// content, though not for vector data.
	ErrIndexCorrupted = errors.New("vector index corrupted")

	// ErrRegistry indicates the document registry is missing or malformed.
	// Fatal to all registry-dependent operations until repaired.
	ErrRegistry = errors.New("registry unavailable")

	// ErrValidation indicates a malformed date or mismatched batch state.
	ErrValidation = errors.New("validation failed")

	// ErrBatchNotEmpty indicates an attempt to delete a batch that still has
	// documents referencing it.
	ErrBatchNotEmpty = errors.New("batch is not empty")
)
