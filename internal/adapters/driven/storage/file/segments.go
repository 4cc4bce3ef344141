package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
)

// Ensure the stores implement their interfaces.
var (
	_ driven.SegmentStore  = (*SegmentStore)(nil)
	_ driven.FullTextStore = (*FullTextStore)(nil)
)

// SegmentStore keeps one JSON file per segment under chunksDir, named
// "{segment_id}.json".
type SegmentStore struct {
	dir string
}

// NewSegmentStore creates a segment store rooted at chunksDir.
func NewSegmentStore(chunksDir string) (*SegmentStore, error) {
	if err := os.MkdirAll(chunksDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating chunks directory: %w", err)
	}
	return &SegmentStore{dir: chunksDir}, nil
}

// SaveSegments writes each segment to its own file. Files are written via
// temp + rename; a segment is never visible half-written.
func (s *SegmentStore) SaveSegments(_ context.Context, segments []domain.Segment) error {
	for i := range segments {
		data, err := json.MarshalIndent(&segments[i], "", "  ")
		if err != nil {
			return fmt.Errorf("marshal segment %s: %w", segments[i].ID, err)
		}
		path := filepath.Join(s.dir, segments[i].ID+".json")
		if err := writeFileAtomic(path, data); err != nil {
			return fmt.Errorf("write segment %s: %w", segments[i].ID, err)
		}
	}
	return nil
}

// Segment retrieves one segment by id.
func (s *SegmentStore) Segment(_ context.Context, id string) (*domain.Segment, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: segment %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read segment %s: %w", id, err)
	}
	var seg domain.Segment
	if err := json.Unmarshal(data, &seg); err != nil {
		return nil, fmt.Errorf("parse segment %s: %w", id, err)
	}
	return &seg, nil
}

// Walk calls fn for every stored segment, in lexical filename order so the
// scan is deterministic. Unparseable files abort the walk: a torn segment
// should be impossible given atomic writes, so one is worth surfacing.
func (s *SegmentStore) Walk(ctx context.Context, fn func(domain.Segment) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read chunks directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return fmt.Errorf("read segment file %s: %w", name, err)
		}
		var seg domain.Segment
		if err := json.Unmarshal(data, &seg); err != nil {
			return fmt.Errorf("parse segment file %s: %w", name, err)
		}
		if err := fn(seg); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFrom removes the document's segment files with ordinal >= keep.
// Used when reprocessing shrank a document, so stale trailing windows do
// not pollute the lexical scan. Files whose ordinal cannot be parsed are
// left alone.
func (s *SegmentStore) DeleteFrom(_ context.Context, documentID string, keep int) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read chunks directory: %w", err)
	}
	prefix := documentID + "_chunk_"
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		ordinal, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(e.Name(), prefix), ".json"))
		if err != nil || ordinal < keep {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("remove segment file %s: %w", e.Name(), err)
		}
	}
	return nil
}

// FullTextStore keeps one plain-text file per document under textDir,
// named "{document_id}_full.txt".
type FullTextStore struct {
	dir string
}

// NewFullTextStore creates a full text store rooted at textDir.
func NewFullTextStore(textDir string) (*FullTextStore, error) {
	if err := os.MkdirAll(textDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating full text directory: %w", err)
	}
	return &FullTextStore{dir: textDir}, nil
}

// Save writes the document's extracted text.
func (s *FullTextStore) Save(_ context.Context, documentID, text string) error {
	path := filepath.Join(s.dir, documentID+"_full.txt")
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return fmt.Errorf("write full text for %s: %w", documentID, err)
	}
	return nil
}

// Load reads the document's extracted text.
func (s *FullTextStore) Load(_ context.Context, documentID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, documentID+"_full.txt"))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: full text for %s", domain.ErrNotFound, documentID)
	}
	if err != nil {
		return "", fmt.Errorf("read full text for %s: %w", documentID, err)
	}
	return string(data), nil
}
