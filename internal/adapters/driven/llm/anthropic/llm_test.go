package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

func testSegments() []domain.RetrievedSegment {
	return []domain.RetrievedSegment{
		{
			SegmentID: "doc_001_chunk_000",
			Text:      "The notice period for termination is 30 days.",
			Meta: domain.IndexEntryMeta{
				SegmentID: "doc_001_chunk_000",
				Title:     "Employment Agreement",
				Section:   "Termination",
			},
		},
		{
			SegmentID: "doc_001_chunk_001",
			Text:      "Severance pay is one month per year of service.",
			Meta: domain.IndexEntryMeta{
				SegmentID: "doc_001_chunk_001",
				Title:     "Employment Agreement",
				Section:   "Termination",
			},
		},
	}
}

func TestNewAnswerService_RequiresAPIKey(t *testing.T) {
	_, err := NewAnswerService(Config{})
	require.Error(t, err)
}

func TestGenerateAnswer_NoSegments(t *testing.T) {
	svc, err := NewAnswerService(Config{APIKey: "test-key"})
	require.NoError(t, err)
	defer svc.Close()

	answer, err := svc.GenerateAnswer(context.Background(), "What is the notice period?", nil)
	require.NoError(t, err)

	assert.Equal(t, NoAnswerText, answer.Text)
	assert.Empty(t, answer.Sources)
}

func TestGenerateAnswer_StructuredResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "Employment Agreement - Termination")
		assert.Contains(t, req.Messages[0].Content, "Question: What is the notice period?")

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": `{"answer": "The notice period is 30 days [Employment Agreement, Termination].", "sources": ["Employment Agreement, Termination"]}`},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	svc, err := NewAnswerService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	answer, err := svc.GenerateAnswer(context.Background(), "What is the notice period?", testSegments())
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "30 days")
	assert.Equal(t, []string{"Employment Agreement, Termination"}, answer.Sources)
}

func TestGenerateAnswer_UnstructuredFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "The notice period is 30 days."},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	svc, err := NewAnswerService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	answer, err := svc.GenerateAnswer(context.Background(), "What is the notice period?", testSegments())
	require.NoError(t, err)

	assert.Equal(t, "The notice period is 30 days.", answer.Text)
	// Falls back to citing the segments that were in context, deduplicated.
	assert.Equal(t, []string{"Employment Agreement, Termination"}, answer.Sources)
}

func TestGenerateAnswer_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "authentication_error", "message": "invalid x-api-key"},
		})
	}))
	defer server.Close()

	svc, err := NewAnswerService(Config{APIKey: "bad-key", BaseURL: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.GenerateAnswer(context.Background(), "anything", testSegments())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid x-api-key")
}

func TestParseStructuredAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"plain json", `{"answer": "yes", "sources": ["A, B"]}`, true},
		{"fenced json", "```json\n{\"answer\": \"yes\", \"sources\": []}\n```", true},
		{"prose around json", "Here you go: {\"answer\": \"yes\", \"sources\": []} hope that helps", true},
		{"no json", "just prose", false},
		{"empty answer", `{"answer": "", "sources": []}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, ok := parseStructuredAnswer(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.NotEmpty(t, answer.Text)
				assert.NotNil(t, answer.Sources)
			}
		})
	}
}

func TestBuildPrompt_FillsMissingMetadata(t *testing.T) {
	prompt := buildPrompt("q", []domain.RetrievedSegment{
		{Text: "some text", Meta: domain.IndexEntryMeta{}},
	})

	assert.Contains(t, prompt, "Unnamed Document")
	assert.Contains(t, prompt, domain.SectionUnknown)
}
