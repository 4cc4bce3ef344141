package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizbrain-labs/bizbrain-cli/internal/chunker"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// pipelineFixture wires an IngestPipeline to in-memory stores and a
// real raw-documents directory.
type pipelineFixture struct {
	pipeline  *IngestPipeline
	registry  *memRegistry
	segments  *memSegments
	fullText  *memFullText
	index     *memIndex
	embedder  *mockEmbedder
	extractor *mockExtractor
	rawDir    string
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	splitter, err := chunker.New(chunker.WithWindowSize(100), chunker.WithOverlap(20))
	require.NoError(t, err)

	fx := &pipelineFixture{
		registry:  newMemRegistry(),
		segments:  newMemSegments(),
		fullText:  newMemFullText(),
		index:     newMemIndex(),
		embedder:  newMockEmbedder(1),
		extractor: newMockExtractor(),
		rawDir:    t.TempDir(),
	}
	fx.pipeline = NewIngestPipeline(
		fx.registry, fx.extractor, splitter, fx.embedder,
		fx.index, fx.segments, fx.fullText, fx.rawDir,
	)
	return fx
}

// addRaw writes a raw source file and teaches the extractor its text.
func (fx *pipelineFixture) addRaw(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(fx.rawDir, name), []byte(content), 0o600))
	fx.extractor.texts[name] = content
}

func TestIngest_AssignsSequentialIDs(t *testing.T) {
	fx := newPipelineFixture(t)
	ctx := context.Background()

	fx.addRaw(t, "first.txt", strings.Repeat("a", 150))
	fx.addRaw(t, "second.txt", strings.Repeat("b", 50))

	res1, err := fx.pipeline.Ingest(ctx, "first.txt", "", "")
	require.NoError(t, err)
	res2, err := fx.pipeline.Ingest(ctx, "second.txt", "", "")
	require.NoError(t, err)

	assert.Equal(t, "doc_001", res1.DocumentID)
	assert.Equal(t, 2, res1.SegmentCount)
	assert.Equal(t, "doc_002", res2.DocumentID)
	assert.Equal(t, 1, res2.SegmentCount)

	reg, err := fx.pipeline.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.TotalDocuments)
	assert.Equal(t, 3, reg.TotalChunks)
	assert.Equal(t, 3, fx.index.Len())
	assert.Equal(t, 3, fx.segments.count())
}

func TestIngest_Idempotent(t *testing.T) {
	fx := newPipelineFixture(t)
	ctx := context.Background()

	fx.addRaw(t, "policy.txt", strings.Repeat("a", 150))

	first, err := fx.pipeline.Ingest(ctx, "policy.txt", "", "")
	require.NoError(t, err)
	require.False(t, first.Unchanged)

	second, err := fx.pipeline.Ingest(ctx, "policy.txt", "", "")
	require.NoError(t, err)

	assert.True(t, second.Unchanged)
	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, first.SegmentCount, second.SegmentCount)

	// The second call touched nothing: one embedding run, one registry
	// save, no new index entries.
	assert.Equal(t, 1, fx.embedder.batchCalls)
	assert.Equal(t, 1, fx.registry.saveCount)
	assert.Equal(t, first.SegmentCount, fx.index.Len())

	reg, err := fx.pipeline.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.TotalDocuments)
	assert.Equal(t, first.SegmentCount, reg.TotalChunks)
}

func TestIngest_EmbeddingFailureLeavesNoArtifacts(t *testing.T) {
	fx := newPipelineFixture(t)
	ctx := context.Background()

	// Three windows (0-100, 80-180, 160-260); the marker sits only in
	// the second one.
	text := strings.Repeat("a", 110) + "ZZFAILZZ" + strings.Repeat("b", 142)
	fx.addRaw(t, "doomed.txt", text)
	fx.embedder.failOnText = "ZZFAILZZ"

	_, err := fx.pipeline.Ingest(ctx, "doomed.txt", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)

	// No store was touched.
	assert.Equal(t, 0, fx.segments.count())
	assert.Empty(t, fx.fullText.texts)
	assert.Equal(t, 0, fx.index.Len())
	assert.Equal(t, 0, fx.registry.saveCount)

	reg, err := fx.pipeline.Summary(ctx)
	require.NoError(t, err)
	assert.Empty(t, reg.Documents)
	assert.Equal(t, 0, reg.TotalChunks)
}

func TestIngest_ExtractionFailure(t *testing.T) {
	fx := newPipelineFixture(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(fx.rawDir, "scan.txt"), []byte("binary"), 0o600))
	fx.extractor.errs["scan.txt"] = domain.ErrNoTextFound

	_, err := fx.pipeline.Ingest(ctx, "scan.txt", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoTextFound)
	assert.Equal(t, 0, fx.registry.saveCount)
}

func TestIngest_InvalidEffectiveDate(t *testing.T) {
	fx := newPipelineFixture(t)

	_, err := fx.pipeline.Ingest(context.Background(), "whatever.txt", "", "2026-13-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIngest_UnknownBatch(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.addRaw(t, "doc.txt", "some text")

	_, err := fx.pipeline.Ingest(context.Background(), "doc.txt", "batch_999", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_ReprocessKeepsDocumentID(t *testing.T) {
	fx := newPipelineFixture(t)
	ctx := context.Background()

	fx.addRaw(t, "policy.txt", strings.Repeat("a", 260)) // 3 windows

	first, err := fx.pipeline.Ingest(ctx, "policy.txt", "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, first.SegmentCount)
	assert.Equal(t, 3, fx.index.Len())

	// The document changes and shrinks to 2 windows.
	fx.addRaw(t, "policy.txt", strings.Repeat("c", 150))

	second, err := fx.pipeline.Ingest(ctx, "policy.txt", "", "")
	require.NoError(t, err)
	assert.False(t, second.Unchanged)
	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, 2, second.SegmentCount)

	// Stale segment files are gone; stale index entries linger until
	// compaction.
	assert.Equal(t, 2, fx.segments.count())
	assert.Equal(t, 5, fx.index.Len())

	removed, err := fx.pipeline.Compact(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed) // only chunk_002 is no longer live
	assert.Equal(t, 4, fx.index.Len())

	reg, err := fx.pipeline.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.TotalDocuments)
	assert.Equal(t, 2, reg.TotalChunks)
}

// TestIngest_ReprocessFailureKeepsOldArtifacts verifies that a durable
// write failure while reprocessing a changed document never strands the
// registry: the old record keeps pointing at intact segment files, and a
// retry completes the reprocess.
func TestIngest_ReprocessFailureKeepsOldArtifacts(t *testing.T) {
	fx := newPipelineFixture(t)
	ctx := context.Background()

	fx.addRaw(t, "policy.txt", strings.Repeat("a", 260)) // 3 windows

	first, err := fx.pipeline.Ingest(ctx, "policy.txt", "", "")
	require.NoError(t, err)
	require.Equal(t, 3, first.SegmentCount)

	// The document shrinks, but the durable phase fails.
	fx.addRaw(t, "policy.txt", strings.Repeat("c", 150))
	fx.fullText.failSave = true

	_, err = fx.pipeline.Ingest(ctx, "policy.txt", "", "")
	require.Error(t, err)

	// The processed record and every segment file it references survive.
	reg, err := fx.pipeline.Summary(ctx)
	require.NoError(t, err)
	rec := reg.Documents["policy.txt"]
	assert.Equal(t, domain.StatusProcessed, rec.Status)
	assert.Equal(t, 3, rec.ChunkCount)
	assert.Equal(t, 3, fx.segments.count())
	for i := 0; i < 3; i++ {
		_, err := fx.segments.Segment(ctx, domain.SegmentIDFormat(first.DocumentID, i))
		assert.NoError(t, err, "segment %d", i)
	}

	// Retrying after the store recovers completes the reprocess and
	// removes the surplus trailing segment.
	fx.fullText.failSave = false
	second, err := fx.pipeline.Ingest(ctx, "policy.txt", "", "")
	require.NoError(t, err)
	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, 2, second.SegmentCount)
	assert.Equal(t, 2, fx.segments.count())
}

func TestIngestBatch_ReportsPerDocumentResults(t *testing.T) {
	fx := newPipelineFixture(t)
	ctx := context.Background()

	fx.addRaw(t, "good.txt", strings.Repeat("a", 50))
	require.NoError(t, os.WriteFile(filepath.Join(fx.rawDir, "bad.txt"), []byte("x"), 0o600))
	fx.extractor.errs["bad.txt"] = domain.ErrUnsupportedFormat

	result, err := fx.pipeline.IngestBatch(ctx, []string{"good.txt", "bad.txt"}, "2026-01-15")
	require.NoError(t, err)

	assert.Equal(t, "batch_001", result.BatchID)
	require.Len(t, result.Results, 2)
	assert.Equal(t, 1, result.Failed())

	assert.NoError(t, result.Results[0].Err)
	assert.Equal(t, "doc_001", result.Results[0].DocumentID)
	assert.ErrorIs(t, result.Results[1].Err, domain.ErrUnsupportedFormat)

	reg, err := fx.pipeline.Summary(ctx)
	require.NoError(t, err)
	batch, ok := reg.Batches["batch_001"]
	require.True(t, ok)
	assert.Equal(t, 1, batch.DocumentCount)
	assert.Equal(t, "2026-01-15", batch.EffectiveDate)
	assert.Equal(t, "2026-01-15", reg.Documents["good.txt"].EffectiveDate)
}

func TestIngestBatch_InvalidDate(t *testing.T) {
	fx := newPipelineFixture(t)

	_, err := fx.pipeline.IngestBatch(context.Background(), []string{"a.txt"}, "next tuesday")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteBatch(t *testing.T) {
	fx := newPipelineFixture(t)
	ctx := context.Background()

	fx.addRaw(t, "doc.txt", strings.Repeat("a", 50))
	require.NoError(t, os.WriteFile(filepath.Join(fx.rawDir, "bad.txt"), []byte("x"), 0o600))
	fx.extractor.errs["bad.txt"] = domain.ErrUnsupportedFormat

	// batch_001 ends up empty, batch_002 holds one document.
	_, err := fx.pipeline.IngestBatch(ctx, []string{"bad.txt"}, "2026-01-01")
	require.NoError(t, err)
	_, err = fx.pipeline.IngestBatch(ctx, []string{"doc.txt"}, "2026-02-01")
	require.NoError(t, err)

	require.NoError(t, fx.pipeline.DeleteBatch(ctx, "batch_001"))

	err = fx.pipeline.DeleteBatch(ctx, "batch_002")
	assert.ErrorIs(t, err, domain.ErrBatchNotEmpty)

	err = fx.pipeline.DeleteBatch(ctx, "batch_042")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	reg, err := fx.pipeline.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.TotalBatches)
}

func TestUnprocessed(t *testing.T) {
	fx := newPipelineFixture(t)
	ctx := context.Background()

	fx.addRaw(t, "done.txt", strings.Repeat("a", 50))
	fx.addRaw(t, "new.txt", "never ingested")
	fx.addRaw(t, "changed.txt", "version one")
	require.NoError(t, os.WriteFile(filepath.Join(fx.rawDir, "scan.pdf"), []byte("%PDF"), 0o600))

	_, err := fx.pipeline.Ingest(ctx, "done.txt", "", "")
	require.NoError(t, err)
	_, err = fx.pipeline.Ingest(ctx, "changed.txt", "", "")
	require.NoError(t, err)

	fx.addRaw(t, "changed.txt", "version two")

	pending, err := fx.pipeline.Unprocessed(ctx)
	require.NoError(t, err)

	// Unsupported extensions and unchanged processed files are skipped.
	assert.Equal(t, []string{"changed.txt", "new.txt"}, pending)
}

func TestCompact_EmptyRegistry(t *testing.T) {
	fx := newPipelineFixture(t)

	removed, err := fx.pipeline.Compact(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
