package mcp

import (
	"context"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	segments []domain.RetrievedSegment
	err      error
	gotQuery string
	gotK     int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, k int) ([]domain.RetrievedSegment, error) {
	m.gotQuery = query
	m.gotK = k
	return m.segments, m.err
}

// mockAnswerFlow is a mock implementation of driving.AnswerFlow.
type mockAnswerFlow struct {
	answer   *domain.Answer
	segments []domain.RetrievedSegment
	err      error
}

func (m *mockAnswerFlow) Ask(_ context.Context, _ string, _ int) (*domain.Answer, []domain.RetrievedSegment, error) {
	return m.answer, m.segments, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
// Only Summary matters for the MCP resources.
type mockIngestService struct {
	registry *domain.Registry
	err      error
}

func (m *mockIngestService) Ingest(_ context.Context, _, _, _ string) (*driving.IngestResult, error) {
	return nil, m.err
}

func (m *mockIngestService) IngestBatch(_ context.Context, _ []string, _ string) (*driving.BatchResult, error) {
	return nil, m.err
}

func (m *mockIngestService) Unprocessed(_ context.Context) ([]string, error) {
	return nil, m.err
}

func (m *mockIngestService) DeleteBatch(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIngestService) Summary(_ context.Context) (*domain.Registry, error) {
	return m.registry, m.err
}

func (m *mockIngestService) Compact(_ context.Context) (int, error) {
	return 0, m.err
}

// mockFullTextStore is a mock implementation of driven.FullTextStore.
type mockFullTextStore struct {
	texts map[string]string
}

func (m *mockFullTextStore) Save(_ context.Context, documentID, text string) error {
	if m.texts == nil {
		m.texts = make(map[string]string)
	}
	m.texts[documentID] = text
	return nil
}

func (m *mockFullTextStore) Load(_ context.Context, documentID string) (string, error) {
	text, ok := m.texts[documentID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}
