package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// memRegistry implements driven.RegistryStore in memory. Load returns a
// deep copy so abandoned mutations never leak into persisted state, the
// same isolation a file-backed store provides.
type memRegistry struct {
	mu        sync.Mutex
	raw       []byte
	saveCount int
	saveErr   error
}

func newMemRegistry() *memRegistry {
	return &memRegistry{}
}

func (m *memRegistry) Load(_ context.Context) (*domain.Registry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raw == nil {
		return domain.NewRegistry(), nil
	}
	var reg domain.Registry
	if err := json.Unmarshal(m.raw, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (m *memRegistry) Save(_ context.Context, reg *domain.Registry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	m.raw = raw
	m.saveCount++
	return nil
}

// memSegments implements driven.SegmentStore in memory.
type memSegments struct {
	mu       sync.Mutex
	segments map[string]domain.Segment
}

func newMemSegments() *memSegments {
	return &memSegments{segments: make(map[string]domain.Segment)}
}

func (m *memSegments) SaveSegments(_ context.Context, segments []domain.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, seg := range segments {
		m.segments[seg.ID] = seg
	}
	return nil
}

func (m *memSegments) Segment(_ context.Context, id string) (*domain.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seg, ok := m.segments[id]
	if !ok {
		return nil, fmt.Errorf("%w: segment %s", domain.ErrNotFound, id)
	}
	return &seg, nil
}

func (m *memSegments) Walk(_ context.Context, fn func(domain.Segment) error) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.segments))
	for id := range m.segments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	segs := make([]domain.Segment, len(ids))
	for i, id := range ids {
		segs[i] = m.segments[id]
	}
	m.mu.Unlock()

	for _, seg := range segs {
		if err := fn(seg); err != nil {
			return err
		}
	}
	return nil
}

func (m *memSegments) DeleteFrom(_ context.Context, documentID string, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := documentID + "_chunk_"
	for id, seg := range m.segments {
		if strings.HasPrefix(id, prefix) && seg.Metadata.Ordinal >= keep {
			delete(m.segments, id)
		}
	}
	return nil
}

func (m *memSegments) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.segments)
}

// memFullText implements driven.FullTextStore in memory. Setting
// failSave makes every Save fail, for exercising durable-phase failures.
type memFullText struct {
	mu       sync.Mutex
	texts    map[string]string
	failSave bool
}

func newMemFullText() *memFullText {
	return &memFullText{texts: make(map[string]string)}
}

func (m *memFullText) Save(_ context.Context, documentID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return fmt.Errorf("disk full")
	}
	m.texts[documentID] = text
	return nil
}

func (m *memFullText) Load(_ context.Context, documentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.texts[documentID]
	if !ok {
		return "", fmt.Errorf("%w: full text for %s", domain.ErrNotFound, documentID)
	}
	return text, nil
}

// memIndex implements driven.VectorIndex in memory with the same
// monotonic id discipline as the persistent index.
type memIndex struct {
	mu      sync.Mutex
	ids     []int64
	vectors [][]float32
	metas   map[int64]domain.IndexEntryMeta
	nextID  int64
}

func newMemIndex() *memIndex {
	return &memIndex{metas: make(map[int64]domain.IndexEntryMeta)}
}

func (m *memIndex) InsertBatch(_ context.Context, vectors [][]float32, metas []domain.IndexEntryMeta) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(vectors) != len(metas) {
		return nil, domain.ErrInvalidInput
	}
	ids := make([]int64, len(vectors))
	for i := range vectors {
		id := m.nextID
		m.nextID++
		ids[i] = id
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vectors[i])
		m.metas[id] = metas[i]
	}
	return ids, nil
}

func (m *memIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hits := make([]driven.VectorHit, 0, len(m.ids))
	for i, id := range m.ids {
		dist := 0.0
		for j := range query {
			d := float64(query[j]) - float64(m.vectors[i][j])
			dist += d * d
		}
		hits = append(hits, driven.VectorHit{ID: id, Distance: dist, Meta: m.metas[id]})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *memIndex) Compact(_ context.Context, keep func(segmentID string) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	keptIDs := m.ids[:0]
	keptVecs := m.vectors[:0]
	for i, id := range m.ids {
		if keep(m.metas[id].SegmentID) {
			keptIDs = append(keptIDs, id)
			keptVecs = append(keptVecs, m.vectors[i])
			continue
		}
		delete(m.metas, id)
		removed++
	}
	m.ids = keptIDs
	m.vectors = keptVecs
	return removed, nil
}

func (m *memIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

func (m *memIndex) Close() error { return nil }

// mockEmbedder implements driven.EmbeddingService with a fixed
// text-to-vector table. Unknown texts embed to the zero vector.
// Setting failOnText makes any batch containing that text fail, for
// exercising mid-ingestion embedding failures.
type mockEmbedder struct {
	vectors    map[string][]float32
	dimensions int
	failOnText string
	batchCalls int
}

func newMockEmbedder(dimensions int) *mockEmbedder {
	return &mockEmbedder{vectors: make(map[string][]float32), dimensions: dimensions}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.failOnText != "" && strings.Contains(text, m.failOnText) {
		return nil, fmt.Errorf("%w: deterministic failure", domain.ErrEmbedding)
	}
	if vec, ok := m.vectors[text]; ok {
		return vec, nil
	}
	return make([]float32, m.dimensions), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dimensions }
func (m *mockEmbedder) ModelName() string            { return "mock-embedder" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockExtractor implements driven.TextExtractor with canned text per
// base filename.
type mockExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func newMockExtractor() *mockExtractor {
	return &mockExtractor{texts: make(map[string]string), errs: make(map[string]error)}
}

func (m *mockExtractor) Extract(_ context.Context, sourcePath string) (string, error) {
	name := filepath.Base(sourcePath)
	if err, ok := m.errs[name]; ok {
		return "", err
	}
	text, ok := m.texts[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, name)
	}
	return text, nil
}

func (m *mockExtractor) SupportedExtensions() []string {
	return []string{".txt", ".md", ".docx"}
}

// unitVector returns a 1-dimensional vector placed so its squared
// distance from the origin equals dist.
func unitVector(dist float64) []float32 {
	return []float32{float32(math.Sqrt(dist))}
}
