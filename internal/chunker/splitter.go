// Package chunker provides fixed-size overlapping text splitting.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// DefaultWindowSize is the default number of characters per window.
const DefaultWindowSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// sectionScanLimit bounds the heading scan at the start of each window.
const sectionScanLimit = 200

var headingRe = regexp.MustCompile(`#+[ \t]*(.+?)\n`)

// Window is one text segment with positional metadata.
type Window struct {
	// Offset is the window's start position in the source text, counted
	// in runes.
	Offset int

	// Text is the literal substring.
	Text string

	// Section is a best-effort markdown heading found near the start of
	// the window, or domain.SectionUnknown.
	Section string
}

// Splitter slides a fixed-size character window across text.
// It is stateless: the same input always yields the same output.
type Splitter struct {
	windowSize int
	overlap    int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithWindowSize sets the window size in characters.
func WithWindowSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.windowSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive windows in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter. Overlap must be strictly smaller than the window
// size, otherwise the cursor would never advance.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		windowSize: DefaultWindowSize,
		overlap:    DefaultOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.windowSize {
		return nil, fmt.Errorf("%w: overlap %d must be less than window size %d",
			domain.ErrInvalidInput, s.overlap, s.windowSize)
	}
	return s, nil
}

// WindowSize returns the configured window size.
func (s *Splitter) WindowSize() int { return s.windowSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split produces the ordered sequence of overlapping windows covering text.
// Each window except possibly the last has exactly windowSize characters;
// consecutive windows share exactly overlap characters. Sizes and offsets
// count runes, never bytes, so a window boundary can never land inside a
// multi-byte character. Empty text yields no windows.
func (s *Splitter) Split(text string) []Window {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	estimated := (len(runes) / (s.windowSize - s.overlap)) + 1
	windows := make([]Window, 0, estimated)

	start := 0
	for start < len(runes) {
		end := start + s.windowSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])

		windows = append(windows, Window{
			Offset:  start,
			Text:    chunk,
			Section: sectionLabel(chunk),
		})

		if end == len(runes) {
			break
		}
		start = end - s.overlap
	}

	return windows
}

// sectionLabel scans the first sectionScanLimit characters for a markdown
// heading.
func sectionLabel(chunk string) string {
	runes := []rune(chunk)
	if len(runes) > sectionScanLimit {
		chunk = string(runes[:sectionScanLimit])
	}
	if m := headingRe.FindStringSubmatch(chunk); m != nil {
		return strings.TrimSpace(m[1])
	}
	return domain.SectionUnknown
}
