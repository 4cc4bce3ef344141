package domain

import (
	"math"
	"time"
)

// RetrievedSegment is one ranked result from hybrid retrieval.
// The two incompatible scoring scales (vector distance, keyword overlap)
// are kept as explicit fields until the final combination so neither is
// overwritten in place.
type RetrievedSegment struct {
	SegmentID string         `json:"chunk_id"`
	Text      string         `json:"text"`
	Meta      IndexEntryMeta `json:"metadata"`

	// SemanticScore is the squared L2 distance from the query embedding.
	// +Inf marks a lexical-only hit that must rank behind any real
	// semantic hit. Lower is better.
	SemanticScore float64 `json:"-"`

	// KeywordScore is the distinct query-term match count normalised by
	// the query term-set size. Higher is better.
	KeywordScore float64 `json:"-"`

	// Score is the combined score: SemanticScore * (1 - 0.3*KeywordScore).
	// Lower is better.
	Score float64 `json:"score"`
}

// Combine derives the unified score from the two retained signals.
func (s *RetrievedSegment) Combine() {
	s.Score = s.SemanticScore * (1 - 0.3*s.KeywordScore)
}

// LexicalOnly reports whether the segment was found only by the keyword pass.
func (s *RetrievedSegment) LexicalOnly() bool {
	return math.IsInf(s.SemanticScore, 1)
}

// Answer is a generated prose answer with its citations.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Exchange is one question/answer pair kept in conversation history.
type Exchange struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}
