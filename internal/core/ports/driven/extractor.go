package driven

import "context"

// TextExtractor pulls plain text out of a named source file.
// Binary format handling (PDF, DOCX, OCR) is opaque to the core: the core
// only needs "extract text or fail".
type TextExtractor interface {
	// Extract returns the plain text of the file at sourcePath.
	// Returns domain.ErrUnsupportedFormat for unknown file types and
	// domain.ErrNoTextFound when extraction yields only whitespace.
	Extract(ctx context.Context, sourcePath string) (string, error)
}
