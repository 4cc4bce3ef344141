package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driving"
	"github.com/bizbrain-labs/bizbrain-cli/internal/logger"
)

// Ensure HybridRetriever implements the interface.
var _ driving.RetrievalService = (*HybridRetriever)(nil)

// DefaultTopK is the number of segments returned when the caller does not
// specify one.
const DefaultTopK = 5

// minTermLength is the shortest query token that participates in the
// lexical pass. Shorter tokens are stop-word noise.
const minTermLength = 4

// HybridRetriever ranks segments by blending vector distance with
// keyword overlap. Retrieval is read-only and safe to run concurrently
// with itself and with ingestion.
type HybridRetriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	segments driven.SegmentStore
}

// NewHybridRetriever creates a new hybrid retriever.
func NewHybridRetriever(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	segments driven.SegmentStore,
) *HybridRetriever {
	return &HybridRetriever{
		embedder: embedder,
		index:    index,
		segments: segments,
	}
}

// lexicalHit is one candidate from the keyword pass before merging.
type lexicalHit struct {
	segmentID string
	matches   int
}

// Retrieve returns up to k segments ranked by the combined score.
// "No results" is an empty slice, never an error.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedSegment, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.RetrievedSegment{}, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	logger.Section("Retrieve")
	logger.Debug("Query: %q, k=%d", query, k)

	// Both passes over-fetch so the merge has enough candidates from
	// each signal.
	candidates := 2 * k

	merged := make(map[string]*domain.RetrievedSegment)

	// Semantic pass.
	if r.index.Len() > 0 {
		qvec, err := r.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embedding query: %w", err)
		}
		hits, err := r.index.Search(ctx, qvec, candidates)
		if err != nil {
			return nil, err
		}
		logger.Debug("Semantic pass: %d hits", len(hits))
		for _, hit := range hits {
			merged[hit.Meta.SegmentID] = &domain.RetrievedSegment{
				SegmentID:     hit.Meta.SegmentID,
				Meta:          hit.Meta,
				SemanticScore: hit.Distance,
			}
		}
	}

	// Lexical pass.
	terms := queryTerms(query)
	if len(terms) > 0 {
		hits, texts, metas, err := r.lexicalPass(ctx, terms, candidates)
		if err != nil {
			return nil, err
		}
		logger.Debug("Lexical pass: %d hits over %d terms", len(hits), len(terms))
		for _, hit := range hits {
			score := float64(hit.matches) / float64(len(terms))
			if seg, ok := merged[hit.segmentID]; ok {
				seg.KeywordScore = score
				continue
			}
			// Lexical-only hits rank behind any real semantic hit.
			merged[hit.segmentID] = &domain.RetrievedSegment{
				SegmentID:     hit.segmentID,
				Text:          texts[hit.segmentID],
				Meta:          metas[hit.segmentID],
				SemanticScore: math.Inf(1),
				KeywordScore:  score,
			}
		}
	}

	ranked := make([]domain.RetrievedSegment, 0, len(merged))
	for _, seg := range merged {
		seg.Combine()
		ranked = append(ranked, *seg)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score < ranked[j].Score
		}
		// Equal combined scores: prefer the stronger keyword signal.
		return ranked[i].KeywordScore > ranked[j].KeywordScore
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	return r.hydrate(ctx, ranked)
}

// lexicalPass scans every stored segment and keeps the top candidates by
// distinct-term match count. Text and metadata for the kept candidates
// are returned so lexical-only hits need no second read.
func (r *HybridRetriever) lexicalPass(ctx context.Context, terms []string, limit int) ([]lexicalHit, map[string]string, map[string]domain.IndexEntryMeta, error) {
	var hits []lexicalHit
	texts := make(map[string]string)
	metas := make(map[string]domain.IndexEntryMeta)

	err := r.segments.Walk(ctx, func(seg domain.Segment) error {
		lower := strings.ToLower(seg.Text)
		matches := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				matches++
			}
		}
		if matches == 0 {
			return nil
		}
		hits = append(hits, lexicalHit{segmentID: seg.ID, matches: matches})
		texts[seg.ID] = seg.Text
		metas[seg.ID] = domain.IndexEntryMeta{
			SegmentID:     seg.ID,
			DocumentID:    seg.Metadata.DocumentID,
			Title:         seg.Metadata.Title,
			Section:       seg.Metadata.Section,
			BatchID:       seg.Metadata.BatchID,
			EffectiveDate: seg.Metadata.EffectiveDate,
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].matches != hits[j].matches {
			return hits[i].matches > hits[j].matches
		}
		return hits[i].segmentID < hits[j].segmentID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, texts, metas, nil
}

// hydrate attaches segment text to results that came from the semantic
// pass. Index entries whose segment file is gone (superseded by
// reprocessing, not yet compacted) are dropped.
func (r *HybridRetriever) hydrate(ctx context.Context, ranked []domain.RetrievedSegment) ([]domain.RetrievedSegment, error) {
	out := ranked[:0]
	for _, seg := range ranked {
		if seg.Text == "" {
			full, err := r.segments.Segment(ctx, seg.SegmentID)
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Dropping stale index entry %s", seg.SegmentID)
				continue
			}
			if err != nil {
				return nil, err
			}
			seg.Text = full.Text
		}
		out = append(out, seg)
	}
	return out, nil
}

// queryTerms tokenizes the query into distinct lowercase terms, dropping
// short stop-word tokens.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTermLength {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
