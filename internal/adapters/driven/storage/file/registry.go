// Package file provides file-backed persistence for the registry, segment
// and full text stores. All whole-file replacements go through a temp file
// and an atomic rename so readers never observe a partial write.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
)

// RegistryFilename is the registry file name within the processed directory.
const RegistryFilename = "document_registry.json"

// Ensure RegistryStore implements the interface.
var _ driven.RegistryStore = (*RegistryStore)(nil)

// RegistryStore persists the registry as one JSON document.
type RegistryStore struct {
	path string
}

// NewRegistryStore creates a registry store rooted at processedDir.
func NewRegistryStore(processedDir string) (*RegistryStore, error) {
	if err := os.MkdirAll(processedDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating processed directory: %w", err)
	}
	return &RegistryStore{path: filepath.Join(processedDir, RegistryFilename)}, nil
}

// Path returns the registry file path.
func (s *RegistryStore) Path() string {
	return s.path
}

// Load reads the registry. A missing file yields a fresh empty registry;
// a present but malformed file is a registry error, fatal to all
// registry-dependent operations until repaired.
func (s *RegistryStore) Load(_ context.Context) (*domain.Registry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrRegistry, s.path, err)
	}

	var reg domain.Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrRegistry, s.path, err)
	}
	if reg.Documents == nil {
		reg.Documents = make(map[string]domain.DocumentRecord)
	}
	if reg.Batches == nil {
		reg.Batches = make(map[string]domain.BatchRecord)
	}
	return &reg, nil
}

// Save atomically replaces the registry file.
func (s *RegistryStore) Save(_ context.Context, reg *domain.Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	return writeFileAtomic(s.path, data)
}

// writeFileAtomic writes data to a temp file in the target's directory and
// renames it over the target.
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
