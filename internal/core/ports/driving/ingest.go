package driving

import (
	"context"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// IngestResult reports one successfully ingested document.
type IngestResult struct {
	// DocumentID is the stable id assigned to the document.
	DocumentID string

	// SegmentCount is the number of segments produced.
	SegmentCount int

	// Unchanged is true when ingestion short-circuited because the
	// document was already processed with an identical content hash.
	Unchanged bool
}

// DocumentResult is one entry in a per-document batch report.
// A batch continues past individual failures; Err is set per document.
type DocumentResult struct {
	Filename     string
	DocumentID   string
	SegmentCount int
	Err          error
}

// BatchResult summarises one batch ingestion run.
type BatchResult struct {
	BatchID string
	Results []DocumentResult
}

// Failed returns the number of documents that failed.
func (b *BatchResult) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// IngestService transforms source documents into durable segments, index
// entries and registry records, and owns all registry writes.
type IngestService interface {
	// Ingest processes one document into the given batch, atomically:
	// on failure no store is modified. An empty batchID skips batch
	// bookkeeping; effectiveDate must be YYYY-MM-DD when batchID is set.
	Ingest(ctx context.Context, filename, batchID, effectiveDate string) (*IngestResult, error)

	// IngestBatch creates a new batch with the given effective date and
	// processes the documents sequentially, reporting per-document
	// outcomes. Committed documents are never rolled back by later
	// failures in the same batch.
	IngestBatch(ctx context.Context, filenames []string, effectiveDate string) (*BatchResult, error)

	// Unprocessed lists raw files that are new or whose content hash
	// differs from their registry record.
	Unprocessed(ctx context.Context) ([]string, error)

	// DeleteBatch removes an empty batch. Non-empty and unknown batches
	// are typed failures and leave the registry untouched.
	DeleteBatch(ctx context.Context, batchID string) error

	// Summary returns the current registry aggregate for reporting.
	Summary(ctx context.Context) (*domain.Registry, error)

	// Compact removes vector index entries that no longer correspond to
	// a live segment and returns the number removed.
	Compact(ctx context.Context) (int, error)
}
