// Package ollama provides an answer service backed by a local Ollama
// model. Local models follow format instructions less reliably than the
// hosted ones, so answers are taken as plain prose and citations come
// from the segment metadata.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
)

// Ensure AnswerService implements the interface.
var _ driven.AnswerService = (*AnswerService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// NoAnswerText is the canonical response when the context cannot answer
// the question.
const NoAnswerText = "I don't have enough information to answer this question."

// Config holds configuration for the Ollama answer service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Temperature controls sampling randomness. Zero uses the model default.
	Temperature float64

	// MaxTokens caps the generated answer length. Zero uses the model default.
	MaxTokens int
}

// AnswerService generates answers using a local Ollama model.
type AnswerService struct {
	client      *http.Client
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	System  string   `json:"system,omitempty"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewAnswerService creates a new Ollama answer service.
func NewAnswerService(cfg Config) *AnswerService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &AnswerService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

const systemPrompt = `You answer questions about legal documents and contracts using only the provided context.

If the answer is not contained within the context, respond with "` + NoAnswerText + `"

Answer in plain prose. Do not invent information that is not in the context.`

// GenerateAnswer produces an answer grounded in the given segments.
// With no segments it short-circuits to the no-answer response without
// calling the API.
func (s *AnswerService) GenerateAnswer(ctx context.Context, question string, segments []domain.RetrievedSegment) (*domain.Answer, error) {
	if len(segments) == 0 {
		return &domain.Answer{Text: NoAnswerText, Sources: []string{}}, nil
	}

	raw, err := s.generate(ctx, buildPrompt(question, segments))
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		text = NoAnswerText
	}
	answer := &domain.Answer{Text: text, Sources: sourcesFromSegments(segments)}
	if strings.Contains(text, NoAnswerText) {
		answer.Sources = []string{}
	}
	return answer, nil
}

// buildPrompt formats the segments into numbered context blocks followed
// by the question.
func buildPrompt(question string, segments []domain.RetrievedSegment) string {
	var b strings.Builder

	b.WriteString("CONTEXT INFORMATION:\n\n")
	for i, seg := range segments {
		title := seg.Meta.Title
		if title == "" {
			title = "Unnamed Document"
		}
		section := seg.Meta.Section
		if section == "" {
			section = domain.SectionUnknown
		}
		fmt.Fprintf(&b, "--- Document %d: %s - %s ---\n%s\n\n", i+1, title, section, seg.Text)
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// sourcesFromSegments builds citation strings from segment metadata,
// deduplicated and in context order.
func sourcesFromSegments(segments []domain.RetrievedSegment) []string {
	seen := make(map[string]struct{}, len(segments))
	sources := make([]string, 0, len(segments))
	for _, seg := range segments {
		src := seg.Meta.Title + ", " + seg.Meta.Section
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	return sources
}

// generate posts a single prompt and returns the completed text.
func (s *AnswerService) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  s.model,
		Prompt: prompt,
		System: systemPrompt,
		Stream: false,
	}
	if s.maxTokens > 0 || s.temperature > 0 {
		reqBody.Options = &options{
			NumPredict:  s.maxTokens,
			Temperature: s.temperature,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return genResp.Response, nil
}

// ModelName returns the model identifier in use.
func (s *AnswerService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *AnswerService) Close() error {
	return nil
}
