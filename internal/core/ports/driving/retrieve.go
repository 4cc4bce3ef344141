package driving

import (
	"context"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// RetrievalService ranks stored segments against a natural-language query.
// Read-only: retrieval never mutates any store, and "no results" is a valid
// non-error outcome (an empty slice, never an error).
type RetrievalService interface {
	// Retrieve returns up to k segments ranked by the combined
	// semantic/lexical score, each hydrated with its literal text.
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedSegment, error)
}

// AnswerFlow retrieves context for a question and generates a cited answer.
type AnswerFlow interface {
	// Ask retrieves the top-k segments for the question and produces an
	// answer grounded in them. The retrieved segments are returned
	// alongside the answer for display.
	Ask(ctx context.Context, question string, k int) (*domain.Answer, []domain.RetrievedSegment, error)
}
