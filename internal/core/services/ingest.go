package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bizbrain-labs/bizbrain-cli/internal/chunker"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driving"
	"github.com/bizbrain-labs/bizbrain-cli/internal/logger"
)

// Ensure IngestPipeline implements the interface.
var _ driving.IngestService = (*IngestPipeline)(nil)

// IngestPipeline turns source documents into durable segments, index
// entries and registry records.
//
// Each document is processed as one atomic unit: hashing, extraction,
// splitting and embedding all happen in memory first, and the durable
// writes run only after every in-memory step succeeded. The registry
// write comes last, so a crash mid-write leaves at worst orphaned
// artifacts that the registry never references. The registry is the sole
// source of truth for what counts as processed.
type IngestPipeline struct {
	// mu enforces the single-writer discipline across the registry,
	// segment files and vector index within this process.
	mu sync.Mutex

	registry  driven.RegistryStore
	extractor driven.TextExtractor
	splitter  *chunker.Splitter
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	segments  driven.SegmentStore
	fullText  driven.FullTextStore

	// rawDir is where relative source filenames are resolved and where
	// Unprocessed scans for new files.
	rawDir string
}

// NewIngestPipeline creates a new ingestion pipeline.
func NewIngestPipeline(
	registry driven.RegistryStore,
	extractor driven.TextExtractor,
	splitter *chunker.Splitter,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	segments driven.SegmentStore,
	fullText driven.FullTextStore,
	rawDir string,
) *IngestPipeline {
	return &IngestPipeline{
		registry:  registry,
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		index:     index,
		segments:  segments,
		fullText:  fullText,
		rawDir:    rawDir,
	}
}

// Ingest processes one document into the given batch.
func (p *IngestPipeline) Ingest(ctx context.Context, filename, batchID, effectiveDate string) (*driving.IngestResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ingestLocked(ctx, filename, batchID, effectiveDate)
}

func (p *IngestPipeline) ingestLocked(ctx context.Context, filename, batchID, effectiveDate string) (*driving.IngestResult, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: filename is empty", domain.ErrInvalidInput)
	}
	if effectiveDate != "" {
		if err := domain.ValidateEffectiveDate(effectiveDate); err != nil {
			return nil, err
		}
	}

	reg, err := p.registry.Load(ctx)
	if err != nil {
		return nil, err
	}
	if batchID != "" {
		if _, ok := reg.Batches[batchID]; !ok {
			return nil, fmt.Errorf("%w: batch %s", domain.ErrNotFound, batchID)
		}
	}

	sourcePath := p.resolvePath(filename)
	key := filepath.Base(filename)

	logger.Section("Ingest %s", key)

	// Step 1: change detection.
	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", key, err)
	}
	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	if prev, ok := reg.Documents[key]; ok && prev.Status == domain.StatusProcessed && prev.ContentHash == hash {
		logger.Info("%s unchanged, skipping (already %s)", key, prev.DocumentID)
		return &driving.IngestResult{
			DocumentID:   prev.DocumentID,
			SegmentCount: prev.ChunkCount,
			Unchanged:    true,
		}, nil
	}

	// Step 2: extraction.
	text, err := p.extractor.Extract(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	// Step 3: id assignment, splitting, embedding. Document ids are
	// sticky: a document seen before keeps its id across reprocessing.
	docID := reg.DocumentID(key)
	reprocessed := docID != ""
	if docID == "" {
		docID = reg.NextDocumentID()
	}

	windows := p.splitter.Split(text)
	title := domain.TitleFromFilename(key)

	segments := make([]domain.Segment, len(windows))
	texts := make([]string, len(windows))
	metas := make([]domain.IndexEntryMeta, len(windows))
	for i, w := range windows {
		segID := domain.SegmentIDFormat(docID, i)
		segments[i] = domain.Segment{
			ID:   segID,
			Text: w.Text,
			Metadata: domain.SegmentMetadata{
				DocumentID:    docID,
				Title:         title,
				Filename:      key,
				BatchID:       batchID,
				EffectiveDate: effectiveDate,
				Section:       w.Section,
				Ordinal:       i,
			},
		}
		texts[i] = w.Text
		metas[i] = domain.IndexEntryMeta{
			SegmentID:     segID,
			DocumentID:    docID,
			Title:         title,
			Section:       w.Section,
			BatchID:       batchID,
			EffectiveDate: effectiveDate,
		}
	}

	logger.Debug("%s: %d segments from %d chars", docID, len(segments), len(text))

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", key, err)
	}

	prevCount := 0
	if prev, ok := reg.Documents[key]; ok {
		prevCount = prev.ChunkCount
	}

	// Durable phase. Anything from here on can leave orphans if a later
	// step fails, but never a registry record pointing at missing data.
	// On reprocessing, new segments overwrite the old ids in place; the
	// old record stays valid until the registry commit below.
	if err := p.fullText.Save(ctx, docID, text); err != nil {
		return nil, fmt.Errorf("saving full text for %s: %w", docID, err)
	}
	if err := p.segments.SaveSegments(ctx, segments); err != nil {
		return nil, fmt.Errorf("saving segments for %s: %w", docID, err)
	}
	if _, err := p.index.InsertBatch(ctx, vectors, metas); err != nil {
		return nil, fmt.Errorf("indexing %s: %w", docID, err)
	}

	// Step 7: registry commit makes the document externally visible.
	reg.UpsertDocument(key, domain.DocumentRecord{
		DocumentID:    docID,
		Status:        domain.StatusProcessed,
		ContentHash:   hash,
		BatchID:       batchID,
		EffectiveDate: effectiveDate,
		ChunkCount:    len(segments),
		LastProcessed: time.Now(),
	})
	if err := p.registry.Save(ctx, reg); err != nil {
		return nil, err
	}

	// A shrunk document leaves trailing segment files past the new count.
	// They are removed only after the commit: a failure here leaves
	// orphans the registry never references, and the lexical scan is the
	// only reader that could still see them.
	if reprocessed && prevCount > len(segments) {
		if err := p.segments.DeleteFrom(ctx, docID, len(segments)); err != nil {
			logger.Error("Removing stale segments for %s: %v", docID, err)
		}
	}

	logger.Info("Ingested %s as %s (%d segments)", key, docID, len(segments))

	return &driving.IngestResult{
		DocumentID:   docID,
		SegmentCount: len(segments),
	}, nil
}

// IngestBatch creates a batch and processes the documents sequentially.
// Individual failures are reported per document and never roll back
// documents already committed in the same run.
func (p *IngestPipeline) IngestBatch(ctx context.Context, filenames []string, effectiveDate string) (*driving.BatchResult, error) {
	if len(filenames) == 0 {
		return nil, fmt.Errorf("%w: no files to ingest", domain.ErrInvalidInput)
	}
	if err := domain.ValidateEffectiveDate(effectiveDate); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	reg, err := p.registry.Load(ctx)
	if err != nil {
		return nil, err
	}
	batchID := reg.CreateBatch(effectiveDate)
	if err := p.registry.Save(ctx, reg); err != nil {
		return nil, err
	}

	logger.Section("Batch %s (%d files, effective %s)", batchID, len(filenames), effectiveDate)

	result := &driving.BatchResult{BatchID: batchID}
	for _, filename := range filenames {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		docResult := driving.DocumentResult{Filename: filepath.Base(filename)}
		res, err := p.ingestLocked(ctx, filename, batchID, effectiveDate)
		if err != nil {
			logger.Warn("Failed to ingest %s: %v", filename, err)
			docResult.Err = err
		} else {
			docResult.DocumentID = res.DocumentID
			docResult.SegmentCount = res.SegmentCount
		}
		result.Results = append(result.Results, docResult)
	}

	logger.Info("Batch %s complete: %d ok, %d failed",
		batchID, len(result.Results)-result.Failed(), result.Failed())
	return result, nil
}

// Unprocessed lists raw files that are new or whose content differs from
// their registry record. Files the extractor cannot handle are skipped.
func (p *IngestPipeline) Unprocessed(ctx context.Context) ([]string, error) {
	reg, err := p.registry.Load(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(p.rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading raw documents directory: %w", err)
	}

	supported := p.supportedExtensions()

	var pending []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if supported != nil && !supported[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		rec, known := reg.Documents[name]
		if known && rec.Status == domain.StatusProcessed {
			raw, err := os.ReadFile(filepath.Join(p.rawDir, name))
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
			sum := sha256.Sum256(raw)
			if hex.EncodeToString(sum[:]) == rec.ContentHash {
				continue
			}
		}
		pending = append(pending, name)
	}

	sort.Strings(pending)
	return pending, nil
}

// DeleteBatch removes an empty batch.
func (p *IngestPipeline) DeleteBatch(ctx context.Context, batchID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	reg, err := p.registry.Load(ctx)
	if err != nil {
		return err
	}
	if err := reg.DeleteBatch(batchID); err != nil {
		return err
	}
	return p.registry.Save(ctx, reg)
}

// Summary returns the current registry aggregate.
func (p *IngestPipeline) Summary(ctx context.Context) (*domain.Registry, error) {
	return p.registry.Load(ctx)
}

// Compact drops vector index entries whose segments were superseded by
// reprocessing.
func (p *IngestPipeline) Compact(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	reg, err := p.registry.Load(ctx)
	if err != nil {
		return 0, err
	}

	removed, err := p.index.Compact(ctx, reg.LiveSegmentID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Info("Compaction removed %d stale index entries", removed)
	}
	return removed, nil
}

// resolvePath resolves a filename against the raw documents directory
// unless it is already an explicit path.
func (p *IngestPipeline) resolvePath(filename string) string {
	if filepath.IsAbs(filename) || strings.ContainsRune(filename, os.PathSeparator) {
		return filename
	}
	return filepath.Join(p.rawDir, filename)
}

// supportedExtensions asks the extractor which extensions it handles,
// when it can say. A nil map means no filtering.
func (p *IngestPipeline) supportedExtensions() map[string]bool {
	lister, ok := p.extractor.(interface{ SupportedExtensions() []string })
	if !ok {
		return nil
	}
	supported := make(map[string]bool)
	for _, ext := range lister.SupportedExtensions() {
		supported[strings.ToLower(ext)] = true
	}
	return supported
}
