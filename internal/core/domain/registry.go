package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Registry is the aggregate root for document and batch processing state.
// It is owned exclusively by the ingestion pipeline for writes; retrieval
// and status reporting only read it.
type Registry struct {
	// Documents maps source filename to its record.
	Documents map[string]DocumentRecord `json:"documents"`

	// Batches maps batch id to its record.
	Batches map[string]BatchRecord `json:"batches"`

	LastUpdate     time.Time `json:"last_update"`
	TotalDocuments int       `json:"total_documents"`
	TotalChunks    int       `json:"total_chunks"`
	TotalBatches   int       `json:"total_batches"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Documents:  make(map[string]DocumentRecord),
		Batches:    make(map[string]BatchRecord),
		LastUpdate: time.Now(),
	}
}

// NextDocumentID allocates the next sequential document id.
// Ids are monotonic: the highest existing number is never reused even if
// earlier records were removed.
func (r *Registry) NextDocumentID() string {
	return DocumentIDFormat(maxIDNumber(documentIDs(r.Documents), "doc_") + 1)
}

// NextBatchID allocates the next sequential batch id.
func (r *Registry) NextBatchID() string {
	return BatchIDFormat(maxIDNumber(batchIDs(r.Batches), "batch_") + 1)
}

// DocumentID returns the stable id for a filename, or "" if never seen.
func (r *Registry) DocumentID(filename string) string {
	return r.Documents[filename].DocumentID
}

// CreateBatch allocates a new batch with the given effective date and
// returns its id. The date must already be validated.
func (r *Registry) CreateBatch(effectiveDate string) string {
	id := r.NextBatchID()
	r.Batches[id] = BatchRecord{
		CreatedAt:     time.Now(),
		EffectiveDate: effectiveDate,
	}
	r.TotalBatches = len(r.Batches)
	return id
}

// DeleteBatch removes a batch. Only empty batches may be deleted; the
// registry is left unchanged on failure.
func (r *Registry) DeleteBatch(batchID string) error {
	batch, ok := r.Batches[batchID]
	if !ok {
		return fmt.Errorf("%w: batch %s", ErrNotFound, batchID)
	}
	if batch.DocumentCount != 0 {
		return fmt.Errorf("%w: batch %s has %d documents", ErrBatchNotEmpty, batchID, batch.DocumentCount)
	}
	delete(r.Batches, batchID)
	r.TotalBatches = len(r.Batches)
	return nil
}

// UpsertDocument writes a processed document record and fixes up batch
// membership counts: if the document previously belonged to another batch
// that batch's count is decremented, and the new batch's incremented.
func (r *Registry) UpsertDocument(filename string, rec DocumentRecord) {
	if prev, ok := r.Documents[filename]; ok && prev.BatchID != "" && prev.BatchID != rec.BatchID {
		if old, found := r.Batches[prev.BatchID]; found && old.DocumentCount > 0 {
			old.DocumentCount--
			r.Batches[prev.BatchID] = old
		}
	}
	if rec.BatchID != "" {
		prev, had := r.Documents[filename]
		if !had || prev.BatchID != rec.BatchID {
			b := r.Batches[rec.BatchID]
			b.DocumentCount++
			r.Batches[rec.BatchID] = b
		}
	}
	r.Documents[filename] = rec
	r.Recount()
}

// Recount recomputes the denormalised totals from the underlying maps.
func (r *Registry) Recount() {
	r.TotalDocuments = len(r.Documents)
	r.TotalBatches = len(r.Batches)
	total := 0
	for _, doc := range r.Documents {
		total += doc.ChunkCount
	}
	r.TotalChunks = total
	r.LastUpdate = time.Now()
}

// LiveSegmentID reports whether a segment id belongs to a currently
// processed document: its document id must appear in the registry and its
// ordinal must fall within that document's chunk count. Used by index
// compaction to drop entries superseded by reprocessing.
func (r *Registry) LiveSegmentID(segmentID string) bool {
	docID, ordinal, ok := splitSegmentID(segmentID)
	if !ok {
		return false
	}
	for _, rec := range r.Documents {
		if rec.DocumentID == docID {
			return rec.Status == StatusProcessed && ordinal < rec.ChunkCount
		}
	}
	return false
}

func splitSegmentID(segmentID string) (docID string, ordinal int, ok bool) {
	i := strings.LastIndex(segmentID, "_chunk_")
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(segmentID[i+len("_chunk_"):])
	if err != nil {
		return "", 0, false
	}
	return segmentID[:i], n, true
}

func documentIDs(docs map[string]DocumentRecord) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.DocumentID)
	}
	return ids
}

func batchIDs(batches map[string]BatchRecord) []string {
	ids := make([]string, 0, len(batches))
	for id := range batches {
		ids = append(ids, id)
	}
	return ids
}

func maxIDNumber(ids []string, prefix string) int {
	maxN := 0
	for _, id := range ids {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err == nil && n > maxN {
			maxN = n
		}
	}
	return maxN
}
