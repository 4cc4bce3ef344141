package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Document processing statuses. A record is only ever durable in one of
// these two states: intermediate stages (text extracted, chunked but not
// indexed) exist in memory during ingestion and are never persisted.
const (
	StatusUnprocessed = "unprocessed"
	StatusProcessed   = "processed"
)

// SectionUnknown is the sentinel section label used when no heading is
// found near the start of a text window.
const SectionUnknown = "Unknown section"

// DocumentRecord tracks the processing state of one source document.
type DocumentRecord struct {
	// DocumentID is the stable identifier, format "doc_NNN".
	// Assigned once and reused if the document is reprocessed.
	DocumentID string `json:"document_id"`

	// Status is either StatusUnprocessed or StatusProcessed.
	Status string `json:"status"`

	// ContentHash is the SHA-256 hex digest of the source bytes,
	// used for change detection.
	ContentHash string `json:"content_hash"`

	// BatchID links to the owning batch, empty if none.
	BatchID string `json:"batch_id,omitempty"`

	// EffectiveDate is the batch effective date (YYYY-MM-DD), if any.
	EffectiveDate string `json:"effective_date,omitempty"`

	// ChunkCount is the number of segments produced at last processing.
	ChunkCount int `json:"chunk_count"`

	// LastProcessed is when the document last completed ingestion.
	LastProcessed time.Time `json:"last_processed"`
}

// BatchRecord groups documents that share an effective date.
type BatchRecord struct {
	// CreatedAt is when the batch was created.
	CreatedAt time.Time `json:"created_at"`

	// EffectiveDate is the date the batch's documents took effect (YYYY-MM-DD).
	EffectiveDate string `json:"effective_date"`

	// DocumentCount is the number of documents currently referencing this
	// batch. A batch may be deleted only when it reaches zero.
	DocumentCount int `json:"document_count"`
}

// SegmentMetadata is the document metadata a segment inherits, plus its
// own section label and ordinal.
type SegmentMetadata struct {
	DocumentID    string `json:"document_id"`
	Title         string `json:"title"`
	Filename      string `json:"filename"`
	BatchID       string `json:"batch_id,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`

	// Section is a best-effort heading found near the start of the window,
	// or SectionUnknown.
	Section string `json:"section"`

	// Ordinal is the segment's position within the document.
	Ordinal int `json:"chunk_num"`
}

// Segment is one overlapping text window produced from a document.
// Segments are written once during ingestion and never mutated.
type Segment struct {
	// ID has the form "{document_id}_chunk_{NNN}", sequential within
	// a document.
	ID string `json:"chunk_id"`

	// Text is the literal substring of the document.
	Text string `json:"text"`

	Metadata SegmentMetadata `json:"metadata"`
}

// IndexEntryMeta binds a vector index id to the segment it represents.
// It is the subset of segment metadata the retriever needs for display.
type IndexEntryMeta struct {
	SegmentID     string `json:"chunk_id"`
	DocumentID    string `json:"document_id"`
	Title         string `json:"title"`
	Section       string `json:"section"`
	BatchID       string `json:"batch_id,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`
}

// DocumentIDFormat renders a document id from its sequence number.
func DocumentIDFormat(n int) string {
	return fmt.Sprintf("doc_%03d", n)
}

// BatchIDFormat renders a batch id from its sequence number.
func BatchIDFormat(n int) string {
	return fmt.Sprintf("batch_%03d", n)
}

// SegmentIDFormat renders a segment id from its document and ordinal.
func SegmentIDFormat(documentID string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%03d", documentID, ordinal)
}

// TitleFromFilename derives a human-readable document title from a file
// name by stripping the extension and replacing separators with spaces.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}

var effectiveDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateEffectiveDate checks the YYYY-MM-DD format and that the date is a
// real calendar date.
func ValidateEffectiveDate(date string) error {
	if !effectiveDateRe.MatchString(date) {
		return fmt.Errorf("%w: effective date %q is not YYYY-MM-DD", ErrValidation, date)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: effective date %q: %v", ErrValidation, date, err)
	}
	return nil
}
