// Package config loads the application configuration from a TOML file
// and API keys from the environment or a .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ConfigFilename is the configuration file name within the data directory.
const ConfigFilename = "config.toml"

// Default values.
const (
	DefaultWindowSize = 1000
	DefaultOverlap    = 200
	DefaultTopK       = 5
)

// Chunking controls the splitter.
type Chunking struct {
	WindowSize int `toml:"window_size"`
	Overlap    int `toml:"overlap"`
}

// Embedding selects and tunes the embedding provider.
type Embedding struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`

	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	Dimensions int    `toml:"dimensions"`

	// RequestsPerSecond throttles batch ingestion.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LLM configures answer generation. Provider is "anthropic" or "ollama";
// BaseURL only applies to ollama.
type LLM struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// Retrieval tunes the hybrid retriever.
type Retrieval struct {
	TopK int `toml:"top_k"`
}

// Config is the full application configuration.
type Config struct {
	// DataDir is the root under which all stores live.
	DataDir string `toml:"data_dir"`

	Chunking  Chunking  `toml:"chunking"`
	Embedding Embedding `toml:"embedding"`
	LLM       LLM       `toml:"llm"`
	Retrieval Retrieval `toml:"retrieval"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Chunking: Chunking{
			WindowSize: DefaultWindowSize,
			Overlap:    DefaultOverlap,
		},
		Embedding: Embedding{
			Provider: "openai",
		},
		LLM: LLM{
			Provider: "anthropic",
		},
		Retrieval: Retrieval{
			TopK: DefaultTopK,
		},
	}
}

// Load reads the configuration from dataDir, falling back to defaults
// when no file exists. A .env file in the working directory, if present,
// supplies API keys; real environment variables win over it.
func Load(dataDir string) (*Config, error) {
	// Missing .env is fine; keys may come from the environment.
	_ = godotenv.Load()

	cfg := Default()
	cfg.DataDir = dataDir
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".bizbrain")
	}

	path := filepath.Join(cfg.DataDir, ConfigFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Re-apply the data dir: the file lives under it, it cannot move it.
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Save writes the configuration to its file under DataDir.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(c.DataDir, ConfigFilename), data, 0o600)
}

// applyDefaults fills zero values left by a sparse config file.
func applyDefaults(cfg *Config) {
	if cfg.Chunking.WindowSize == 0 {
		cfg.Chunking.WindowSize = DefaultWindowSize
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = DefaultOverlap
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
}

// Directory layout under DataDir.

// RawDir is where source documents are dropped for ingestion.
func (c *Config) RawDir() string { return filepath.Join(c.DataDir, "raw_documents") }

// ProcessedDir holds the registry and extracted artifacts.
func (c *Config) ProcessedDir() string { return filepath.Join(c.DataDir, "processed_documents") }

// ChunksDir holds one JSON file per segment.
func (c *Config) ChunksDir() string { return filepath.Join(c.ProcessedDir(), "chunks") }

// FullTextDir holds the extracted full text of each document.
func (c *Config) FullTextDir() string { return filepath.Join(c.ProcessedDir(), "full_text") }

// VectorStoreDir holds the persisted vector index and its id map.
func (c *Config) VectorStoreDir() string { return filepath.Join(c.DataDir, "vector_store") }

// HistoryDir holds the conversation history database.
func (c *Config) HistoryDir() string { return filepath.Join(c.DataDir, "history") }

// EnsureDirs creates the directory layout.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{
		c.RawDir(),
		c.ProcessedDir(),
		c.ChunksDir(),
		c.FullTextDir(),
		c.VectorStoreDir(),
		c.HistoryDir(),
	} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// OpenAIKey returns the OpenAI API key from the environment.
func OpenAIKey() string { return os.Getenv("OPENAI_API_KEY") }

// AnthropicKey returns the Anthropic API key from the environment.
func AnthropicKey() string { return os.Getenv("ANTHROPIC_API_KEY") }
