package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, DefaultWindowSize, cfg.Chunking.WindowSize)
	assert.Equal(t, DefaultOverlap, cfg.Chunking.Overlap)
	assert.Equal(t, DefaultTopK, cfg.Retrieval.TopK)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
}

func TestLoad_PartialFileFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "[chunking]\nwindow_size = 500\n\n[embedding]\nprovider = \"ollama\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunking.WindowSize)
	assert.Equal(t, DefaultOverlap, cfg.Chunking.Overlap)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, DefaultTopK, cfg.Retrieval.TopK)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFilename), []byte("not [valid toml"), 0o600))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.DataDir = dir
	cfg.Retrieval.TopK = 9
	cfg.LLM.Model = "claude-3-5-sonnet-latest"
	require.NoError(t, cfg.Save())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Retrieval.TopK)
	assert.Equal(t, "claude-3-5-sonnet-latest", loaded.LLM.Model)
}

func TestEnsureDirs(t *testing.T) {
	cfg := Default()
	cfg.DataDir = t.TempDir()

	require.NoError(t, cfg.EnsureDirs())

	for _, dir := range []string{
		cfg.RawDir(), cfg.ChunksDir(), cfg.FullTextDir(),
		cfg.VectorStoreDir(), cfg.HistoryDir(),
	} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}
