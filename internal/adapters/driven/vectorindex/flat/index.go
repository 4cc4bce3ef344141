// Package flat provides a persistent exact nearest-neighbour index over
// fixed-dimension float32 vectors.
//
// The index is a flat array scanned linearly with squared L2 distance,
// which is sufficient at the target corpus scale. Two files are persisted
// together: a binary vectors file and a JSON id-to-metadata map keyed by
// the string form of the entry id. The pair must never diverge; a
// divergent or unreadable pair is discarded on load, loudly, and the index
// starts empty. Ingestion is idempotent so a discarded index is recovered
// by reprocessing.
package flat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
	"github.com/bizbrain-labs/bizbrain-cli/internal/logger"
)

// File names within the vector store directory.
const (
	VectorsFilename = "vectors.bin"
	MapFilename     = "document_to_id_map.json"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one id/vector pair held in memory.
type entry struct {
	id  int64
	vec []float32
}

// Index is a flat squared-L2 vector index with durable id assignment.
type Index struct {
	mu        sync.RWMutex
	dir       string
	dimension int
	entries   []entry
	metas     map[int64]domain.IndexEntryMeta
	nextID    int64
}

// Open loads the index from dir, creating an empty one when nothing is
// persisted yet. Any load failure - unreadable file, format mismatch,
// missing counterpart, map/vector divergence - discards the persisted
// state and starts empty. That is a lossy event and is always logged.
func Open(dir string, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating vector store directory: %w", err)
	}

	idx := &Index{
		dir:       dir,
		dimension: dimension,
		metas:     make(map[int64]domain.IndexEntryMeta),
	}

	if err := idx.load(); err != nil {
		logger.Error("vector index discarded, starting empty (reprocess to rebuild): %v", err)
		idx.entries = nil
		idx.metas = make(map[int64]domain.IndexEntryMeta)
		idx.nextID = 0
	}
	return idx, nil
}

// load reads and cross-checks both persisted files.
func (x *Index) load() error {
	vecPath := filepath.Join(x.dir, VectorsFilename)
	mapPath := filepath.Join(x.dir, MapFilename)

	vecData, vecErr := os.ReadFile(vecPath)
	mapData, mapErr := os.ReadFile(mapPath)

	vecMissing := errors.Is(vecErr, fs.ErrNotExist)
	mapMissing := errors.Is(mapErr, fs.ErrNotExist)

	if vecMissing && mapMissing {
		return nil // Fresh store
	}
	if vecMissing != mapMissing {
		return fmt.Errorf("%w: only one of %s and %s exists", domain.ErrIndexCorrupted, VectorsFilename, MapFilename)
	}
	if vecErr != nil {
		return fmt.Errorf("%w: reading vectors: %v", domain.ErrIndexCorrupted, vecErr)
	}
	if mapErr != nil {
		return fmt.Errorf("%w: reading id map: %v", domain.ErrIndexCorrupted, mapErr)
	}

	entries, dim, err := decodeVectors(vecData)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexCorrupted, err)
	}
	if len(entries) > 0 && dim != x.dimension {
		return fmt.Errorf("%w: persisted dimension %d does not match configured %d",
			domain.ErrIndexCorrupted, dim, x.dimension)
	}

	var rawMap map[string]domain.IndexEntryMeta
	if err := json.Unmarshal(mapData, &rawMap); err != nil {
		return fmt.Errorf("%w: parsing id map: %v", domain.ErrIndexCorrupted, err)
	}
	metas := make(map[int64]domain.IndexEntryMeta, len(rawMap))
	for key, meta := range rawMap {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: id map key %q is not an integer", domain.ErrIndexCorrupted, key)
		}
		metas[id] = meta
	}

	// The two files must describe exactly the same id set.
	if len(metas) != len(entries) {
		return fmt.Errorf("%w: %d vectors but %d map entries", domain.ErrIndexCorrupted, len(entries), len(metas))
	}
	var maxID int64 = -1
	for _, e := range entries {
		if _, ok := metas[e.id]; !ok {
			return fmt.Errorf("%w: vector id %d missing from id map", domain.ErrIndexCorrupted, e.id)
		}
		if e.id > maxID {
			maxID = e.id
		}
	}

	x.entries = entries
	x.metas = metas
	x.nextID = maxID + 1
	return nil
}

// InsertBatch assigns ids from the durable counter, stores the vectors and
// metadata, and persists both files.
func (x *Index) InsertBatch(_ context.Context, vectors [][]float32, metas []domain.IndexEntryMeta) ([]int64, error) {
	if len(vectors) != len(metas) {
		return nil, fmt.Errorf("%w: %d vectors but %d metadata entries", domain.ErrInvalidInput, len(vectors), len(metas))
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	for i, vec := range vectors {
		if len(vec) != x.dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d",
				domain.ErrInvalidInput, i, len(vec), x.dimension)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	ids := make([]int64, len(vectors))
	for i := range vectors {
		id := x.nextID
		x.nextID++
		ids[i] = id
		x.entries = append(x.entries, entry{id: id, vec: vectors[i]})
		x.metas[id] = metas[i]
	}

	if err := x.persistLocked(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Search returns up to k hits ascending by squared L2 distance.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d", domain.ErrInvalidInput, len(query), x.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(x.entries))
	for _, e := range x.entries {
		meta, ok := x.metas[e.id]
		if !ok {
			// Should not occur: load cross-checks both files.
			continue
		}
		hits = append(hits, driven.VectorHit{
			ID:       e.id,
			Distance: squaredL2(query, e.vec),
			Meta:     meta,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Compact drops entries whose segment id fails the keep predicate.
// Surviving entries retain their ids and the next-id counter is never
// rewound, so compaction cannot cause id reuse.
func (x *Index) Compact(_ context.Context, keep func(segmentID string) bool) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	kept := x.entries[:0]
	removed := 0
	for _, e := range x.entries {
		if keep(x.metas[e.id].SegmentID) {
			kept = append(kept, e)
			continue
		}
		delete(x.metas, e.id)
		removed++
	}
	x.entries = kept

	if removed == 0 {
		return 0, nil
	}
	if err := x.persistLocked(); err != nil {
		return 0, err
	}
	return removed, nil
}

// Len returns the number of stored entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close releases resources. The index persists on every mutation, so
// there is nothing to flush.
func (x *Index) Close() error {
	return nil
}

// persistLocked writes both files via temp + rename. Callers hold x.mu.
func (x *Index) persistLocked() error {
	vecData := encodeVectors(x.entries, x.dimension)

	rawMap := make(map[string]domain.IndexEntryMeta, len(x.metas))
	for id, meta := range x.metas {
		rawMap[strconv.FormatInt(id, 10)] = meta
	}
	mapData, err := json.MarshalIndent(rawMap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal id map: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(x.dir, VectorsFilename), vecData); err != nil {
		return fmt.Errorf("persist vectors: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(x.dir, MapFilename), mapData); err != nil {
		// The pair has diverged on disk; the next load detects the
		// mismatch and resets rather than silently losing entries.
		return fmt.Errorf("%w: persist id map: %v", domain.ErrIndexCorrupted, err)
	}
	return nil
}

// encodeVectors lays out: dim(uint32), count(uint32), then per entry
// id(uint64) followed by dim little-endian float32 values.
func encodeVectors(entries []entry, dimension int) []byte {
	buf := make([]byte, 8, 8+len(entries)*(8+4*dimension))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(dimension))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(entries)))

	scratch := make([]byte, 8)
	for _, e := range entries {
		binary.LittleEndian.PutUint64(scratch, uint64(e.id))
		buf = append(buf, scratch...)
		for _, v := range e.vec {
			binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(v))
			buf = append(buf, scratch[:4]...)
		}
	}
	return buf
}

// decodeVectors parses the layout produced by encodeVectors.
func decodeVectors(data []byte) ([]entry, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("vectors file too short: %d bytes", len(data))
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	count := int(binary.LittleEndian.Uint32(data[4:8]))

	recordSize := 8 + 4*dim
	want := 8 + count*recordSize
	if len(data) != want {
		return nil, 0, fmt.Errorf("vectors file has %d bytes, want %d for %d entries of dimension %d",
			len(data), want, count, dim)
	}

	entries := make([]entry, count)
	off := 8
	for i := 0; i < count; i++ {
		id := int64(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		entries[i] = entry{id: id, vec: vec}
	}
	return entries, dim, nil
}

// squaredL2 computes the squared Euclidean distance between two vectors
// of equal length.
func squaredL2(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// writeFileAtomic writes data to a temp file and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
