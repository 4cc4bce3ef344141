package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driving"
	"github.com/bizbrain-labs/bizbrain-cli/internal/logger"
)

// Ensure AnswerFlowService implements the interface.
var _ driving.AnswerFlow = (*AnswerFlowService)(nil)

// AnswerFlowService retrieves context for a question and asks the answer
// service for a cited response, recording the exchange in history.
type AnswerFlowService struct {
	retriever driving.RetrievalService
	answers   driven.AnswerService
	history   driven.HistoryStore
}

// NewAnswerFlowService creates a new answer flow.
// The history store is optional (can be nil).
func NewAnswerFlowService(
	retriever driving.RetrievalService,
	answers driven.AnswerService,
	history driven.HistoryStore,
) *AnswerFlowService {
	return &AnswerFlowService{
		retriever: retriever,
		answers:   answers,
		history:   history,
	}
}

// Ask retrieves the top-k segments for the question and generates an
// answer grounded in them.
func (s *AnswerFlowService) Ask(ctx context.Context, question string, k int) (*domain.Answer, []domain.RetrievedSegment, error) {
	segments, err := s.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, nil, err
	}

	answer, err := s.answers.GenerateAnswer(ctx, question, segments)
	if err != nil {
		return nil, segments, err
	}

	if s.history != nil {
		ex := domain.Exchange{
			ID:        uuid.New().String(),
			Question:  question,
			Answer:    answer.Text,
			Sources:   answer.Sources,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.history.SaveExchange(ctx, ex); err != nil {
			// History is best-effort; a failed write never loses the answer.
			logger.Warn("Failed to record exchange: %v", err)
		}
	}

	return answer, segments, nil
}
