package driven

import (
	"context"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// VectorIndex is a durable nearest-neighbour store over fixed-dimension
// vectors, keyed by a monotonically increasing 64-bit id with a parallel
// id-to-metadata map. The persisted index and map must never diverge.
type VectorIndex interface {
	// InsertBatch inserts vectors with their metadata in one unit and
	// returns the assigned ids. Ids start at the durable next-id counter
	// and strictly increase; they are never reused, even across restarts.
	// Requires len(vectors) == len(metas) and all vectors to have the
	// configured dimension.
	InsertBatch(ctx context.Context, vectors [][]float32, metas []domain.IndexEntryMeta) ([]int64, error)

	// Search returns the k nearest entries by ascending squared L2
	// distance. Entries without metadata are dropped defensively.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Compact rebuilds the index keeping only entries whose segment id
	// passes the keep predicate. Surviving entries retain their ids.
	// Returns the number of removed entries.
	Compact(ctx context.Context, keep func(segmentID string) bool) (int, error)

	// Len returns the number of stored entries.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// ID is the index entry id.
	ID int64

	// Distance is the squared L2 distance (lower = more similar).
	Distance float64

	// Meta is the matched segment's display metadata.
	Meta domain.IndexEntryMeta
}
