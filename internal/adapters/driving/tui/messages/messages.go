// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// Mode identifies which interaction mode is active.
type Mode int

const (
	// ModeSearch retrieves ranked segments for a query.
	ModeSearch Mode = iota
	// ModeAsk generates a cited answer from retrieved segments.
	ModeAsk
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSearch:
		return "search"
	case ModeAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// RetrieveCompleted carries retrieval results back to the model.
type RetrieveCompleted struct {
	Query    string
	Segments []domain.RetrievedSegment
	Err      error
}

// AnswerCompleted carries a generated answer back to the model.
type AnswerCompleted struct {
	Question string
	Answer   *domain.Answer
	Segments []domain.RetrievedSegment
	Err      error
}

// ModeChanged is sent when switching between search and ask.
type ModeChanged struct {
	Mode Mode
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
