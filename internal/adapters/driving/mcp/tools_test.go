package mcp

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns retrieved segments", func(t *testing.T) {
		retrieval := &mockRetrievalService{
			segments: []domain.RetrievedSegment{
				{
					SegmentID: "doc_001_chunk_001",
					Text:      "Either party may terminate with 30 days notice.",
					Meta: domain.IndexEntryMeta{
						SegmentID:  "doc_001_chunk_001",
						DocumentID: "doc_001",
						Title:      "employment agreement",
						Section:    "Termination",
					},
					SemanticScore: 0.42,
					Score:         0.42,
				},
			},
		}

		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		input := SearchInput{Query: "notice period", Limit: 5}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "notice period", retrieval.gotQuery)
		assert.Equal(t, 5, retrieval.gotK)
		require.Equal(t, 1, output.Count)
		result := output.Results[0]
		assert.Equal(t, "doc_001_chunk_001", result.SegmentID)
		assert.Equal(t, "doc_001", result.DocumentID)
		assert.Equal(t, "employment agreement", result.Title)
		assert.Equal(t, "Termination", result.Section)
		assert.Equal(t, 0.42, result.Score)
		assert.False(t, result.KeywordOnly)
	})

	t.Run("marks lexical-only hits", func(t *testing.T) {
		retrieval := &mockRetrievalService{
			segments: []domain.RetrievedSegment{
				{
					SegmentID:     "doc_001_chunk_002",
					Text:          "Severance terms apply.",
					SemanticScore: math.Inf(1),
					KeywordScore:  0.5,
					Score:         math.Inf(1),
				},
			},
		}

		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "severance"})

		require.NoError(t, err)
		require.Equal(t, 1, output.Count)
		assert.True(t, output.Results[0].KeywordOnly)
		assert.Zero(t, output.Results[0].Score)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		retrieval := &mockRetrievalService{err: errors.New("retrieval failed")}

		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "anything"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "retrieval failed")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		answer := &mockAnswerFlow{
			answer: &domain.Answer{
				Text:    "The notice period is 30 days.",
				Sources: []string{"employment agreement, Termination"},
			},
		}

		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Answer: answer})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "what is the notice period?"})

		require.NoError(t, err)
		assert.Equal(t, "The notice period is 30 days.", output.Answer)
		assert.Equal(t, []string{"employment agreement, Termination"}, output.Sources)
	})

	t.Run("returns error on generation failure", func(t *testing.T) {
		answer := &mockAnswerFlow{err: errors.New("model overloaded")}

		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Answer: answer})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "anything"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "model overloaded")
	})
}
