package driven

import (
	"context"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// AnswerService turns retrieved segments into a cited prose answer.
// This is an optional service - the retrieval core works without it.
type AnswerService interface {
	// GenerateAnswer produces an answer to the question grounded in the
	// given segments, with citations back to document titles and sections.
	GenerateAnswer(ctx context.Context, question string, segments []domain.RetrievedSegment) (*domain.Answer, error)

	// ModelName returns the model identifier in use.
	ModelName() string

	// Close releases resources.
	Close() error
}

// HistoryStore persists question/answer exchanges.
type HistoryStore interface {
	// SaveExchange appends one exchange to the history.
	SaveExchange(ctx context.Context, ex domain.Exchange) error

	// Recent returns the n most recent exchanges, newest first.
	Recent(ctx context.Context, n int) ([]domain.Exchange, error)

	// Close releases resources.
	Close() error
}
