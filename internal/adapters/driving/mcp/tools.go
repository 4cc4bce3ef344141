package mcp

import (
	"context"
	"math"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find document segments"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved segment.
type SearchResultOutput struct {
	SegmentID   string  `json:"segment_id"`
	DocumentID  string  `json:"document_id"`
	Title       string  `json:"title"`
	Section     string  `json:"section"`
	Score       float64 `json:"score,omitempty"`
	KeywordOnly bool    `json:"keyword_only,omitempty"`
	Text        string  `json:"text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested documents"`
	Limit    int    `json:"limit,omitempty" jsonschema:"number of segments to ground the answer on (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search indexed document segments with hybrid semantic and keyword retrieval",
	}, s.handleSearch)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question from the ingested documents, with citations",
		}, s.handleAsk)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	segments, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(segments)),
		Count:   len(segments),
	}
	for i := range segments {
		seg := &segments[i]
		result := SearchResultOutput{
			SegmentID:  seg.SegmentID,
			DocumentID: seg.Meta.DocumentID,
			Title:      seg.Meta.Title,
			Section:    seg.Meta.Section,
			Text:       seg.Text,
		}
		if seg.LexicalOnly() || math.IsInf(seg.Score, 1) {
			result.KeywordOnly = true
		} else {
			result.Score = seg.Score
		}
		output.Results[i] = result
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, _, err := s.ports.Answer.Ask(ctx, input.Question, input.Limit)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Sources: answer.Sources,
	}, nil
}
