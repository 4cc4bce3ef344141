package cli

import (
	"context"
	"testing"
	"time"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driving"
)

type fakeIngestService struct {
	batchResult *driving.BatchResult
	unprocessed []string
	compacted   int
	deletedID   string
	err         error
}

func (f *fakeIngestService) Ingest(_ context.Context, filename, _, _ string) (*driving.IngestResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &driving.IngestResult{DocumentID: "doc_001", SegmentCount: 2}, nil
}

func (f *fakeIngestService) IngestBatch(_ context.Context, filenames []string, _ string) (*driving.BatchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.batchResult != nil {
		return f.batchResult, nil
	}
	result := &driving.BatchResult{BatchID: "batch_001"}
	for _, name := range filenames {
		result.Results = append(result.Results, driving.DocumentResult{
			Filename:     name,
			DocumentID:   "doc_001",
			SegmentCount: 2,
		})
	}
	return result, nil
}

func (f *fakeIngestService) Unprocessed(_ context.Context) ([]string, error) {
	return f.unprocessed, f.err
}

func (f *fakeIngestService) DeleteBatch(_ context.Context, batchID string) error {
	f.deletedID = batchID
	return f.err
}

func (f *fakeIngestService) Summary(_ context.Context) (*domain.Registry, error) {
	return domain.NewRegistry(), f.err
}

func (f *fakeIngestService) Compact(_ context.Context) (int, error) {
	return f.compacted, f.err
}

type fakeRetrievalService struct {
	segments []domain.RetrievedSegment
	err      error
	gotQuery string
	gotK     int
}

func (f *fakeRetrievalService) Retrieve(_ context.Context, query string, k int) ([]domain.RetrievedSegment, error) {
	f.gotQuery = query
	f.gotK = k
	return f.segments, f.err
}

type fakeAnswerFlow struct {
	answer   *domain.Answer
	segments []domain.RetrievedSegment
	err      error
}

func (f *fakeAnswerFlow) Ask(_ context.Context, _ string, _ int) (*domain.Answer, []domain.RetrievedSegment, error) {
	return f.answer, f.segments, f.err
}

type fakeHistoryStore struct {
	exchanges []domain.Exchange
}

func (f *fakeHistoryStore) SaveExchange(_ context.Context, ex domain.Exchange) error {
	f.exchanges = append(f.exchanges, ex)
	return nil
}

func (f *fakeHistoryStore) Recent(_ context.Context, n int) ([]domain.Exchange, error) {
	if n > len(f.exchanges) {
		n = len(f.exchanges)
	}
	return f.exchanges[:n], nil
}

func (f *fakeHistoryStore) Close() error { return nil }

// setupTestServices injects fakes into the package-level service vars and
// points the data directory at a temp dir so PersistentPreRunE stays
// hermetic. The returned cleanup restores everything.
func setupTestServices(t *testing.T) (*fakeIngestService, *fakeRetrievalService, func()) {
	t.Helper()

	oldIngest := ingestService
	oldRetrieval := retrievalService
	oldAnswer := answerFlow
	oldHistory := historyStore
	oldDataDir := dataDir

	ingest := &fakeIngestService{}
	retrieval := &fakeRetrievalService{}
	ingestService = ingest
	retrievalService = retrieval
	dataDir = t.TempDir()

	cleanup := func() {
		ingestService = oldIngest
		retrievalService = oldRetrieval
		answerFlow = oldAnswer
		historyStore = oldHistory
		dataDir = oldDataDir
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}
	return ingest, retrieval, cleanup
}

func retrievedSegment(id, title, section, text string, score float64) domain.RetrievedSegment {
	return domain.RetrievedSegment{
		SegmentID: id,
		Text:      text,
		Meta: domain.IndexEntryMeta{
			SegmentID:  id,
			DocumentID: "doc_001",
			Title:      title,
			Section:    section,
		},
		SemanticScore: score,
		Score:         score,
	}
}

func historyExchange(question, answer string) domain.Exchange {
	return domain.Exchange{
		ID:        "ex-1",
		Question:  question,
		Answer:    answer,
		Sources:   []string{"employment agreement, General"},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}
