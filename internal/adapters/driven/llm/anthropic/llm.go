// Package anthropic generates cited answers from retrieved segments using
// the Anthropic messages API.
package anthropic

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
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// NoAnswerText is returned when the retrieved context cannot support an
// answer.
const NoAnswerText = "I don't have enough information to answer this question."

// Config holds configuration for the Anthropic answer service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Temperature controls sampling (default 0, deterministic).
	Temperature float64

	// MaxTokens caps the answer length (default: 1024).
	MaxTokens int
}

// AnswerService produces grounded answers using the Anthropic API.
type AnswerService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnswerService creates a new Anthropic answer service.
func NewAnswerService(cfg Config) (*AnswerService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	return &AnswerService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

const systemPrompt = `You answer questions about legal documents and contracts using only the provided context.

If the answer is not contained within the context, respond with "` + NoAnswerText + `"

Include specific citations to the source documents in your answer, in the format [Document Title, Section Name] at the end of the relevant sentence or paragraph.

Respond with a JSON object containing two keys:
"answer" - the answer text
"sources" - an array of "Title, Section" strings for the documents used

Respond with the JSON object only, no surrounding prose or code fences.`

// structuredAnswer is the JSON shape the model is asked to produce.
type structuredAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// GenerateAnswer produces an answer grounded in the given segments.
// With no segments it short-circuits to the no-answer response without
// calling the API.
func (s *AnswerService) GenerateAnswer(ctx context.Context, question string, segments []domain.RetrievedSegment) (*domain.Answer, error) {
	if len(segments) == 0 {
		return &domain.Answer{Text: NoAnswerText, Sources: []string{}}, nil
	}

	prompt := buildPrompt(question, segments)

	raw, err := s.sendMessage(ctx, prompt)
	if err != nil {
		return nil, err
	}

	answer, ok := parseStructuredAnswer(raw)
	if !ok {
		// Model ignored the format instructions. Keep the prose and
		// cite every segment that was in context.
		answer = &domain.Answer{
			Text:    strings.TrimSpace(raw),
			Sources: sourcesFromSegments(segments),
		}
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

// parseStructuredAnswer extracts the answer/sources JSON from the model
// output, tolerating code fences and surrounding text.
func parseStructuredAnswer(raw string) (*domain.Answer, bool) {
	text := strings.TrimSpace(raw)

	// Strip a possible fenced block.
	if i := strings.Index(text, "{"); i >= 0 {
		if j := strings.LastIndex(text, "}"); j > i {
			text = text[i : j+1]
		}
	}

	var parsed structuredAnswer
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || parsed.Answer == "" {
		return nil, false
	}
	if parsed.Sources == nil {
		parsed.Sources = []string{}
	}
	return &domain.Answer{Text: parsed.Answer, Sources: parsed.Sources}, true
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

// sendMessage posts a single user message and returns the concatenated
// text blocks of the response.
func (s *AnswerService) sendMessage(ctx context.Context, prompt string) (string, error) {
	reqBody := messagesRequest{
		Model:     s.model,
		Messages:  []messagesMessage{{Role: "user", Content: prompt}},
		MaxTokens: s.maxTokens,
		System:    systemPrompt,
	}
	if s.temperature > 0 {
		reqBody.Temperature = s.temperature
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if msgResp.Error != nil {
		return "", fmt.Errorf("anthropic error: %s", msgResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(msgResp.Content) == 0 {
		return "", fmt.Errorf("anthropic: no response content returned")
	}

	var result strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	return result.String(), nil
}

// ModelName returns the name of the model being used.
func (s *AnswerService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /v1/models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *AnswerService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *AnswerService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
