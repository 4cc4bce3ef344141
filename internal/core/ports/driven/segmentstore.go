package driven

import (
	"context"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// SegmentStore persists segments, one JSON file per segment.
// Segments are written once and never mutated in place, so a reader never
// observes a torn segment.
type SegmentStore interface {
	// SaveSegments writes all segments for a document.
	SaveSegments(ctx context.Context, segments []domain.Segment) error

	// Segment retrieves one segment by id. Returns domain.ErrNotFound if
	// no such segment exists.
	Segment(ctx context.Context, id string) (*domain.Segment, error)

	// Walk calls fn for every stored segment. Iteration stops at the
	// first error. Used by the lexical retrieval pass, which scans the
	// whole corpus linearly.
	Walk(ctx context.Context, fn func(domain.Segment) error) error

	// DeleteFrom removes the document's segment files with ordinal >= keep.
	// Reprocessing writes new segments over the old ids, so only ordinals
	// past the new count are ever stale. DeleteFrom(id, 0) removes all of
	// a document's segments.
	DeleteFrom(ctx context.Context, documentID string, keep int) error
}

// FullTextStore persists the full extracted text of each document.
type FullTextStore interface {
	// Save writes the document's extracted text.
	Save(ctx context.Context, documentID, text string) error

	// Load reads the document's extracted text.
	Load(ctx context.Context, documentID string) (string, error)
}
