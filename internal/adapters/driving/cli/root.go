// Package cli implements the bizbrain command-line interface.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/embedding/ollama"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/embedding/openai"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/extract"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/llm/ollama"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/storage/file"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/storage/sqlite"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/vectorindex/flat"
	"github.com/bizbrain-labs/bizbrain-cli/internal/chunker"
	"github.com/bizbrain-labs/bizbrain-cli/internal/config"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driving"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/services"
	"github.com/bizbrain-labs/bizbrain-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verbose bool
	dataDir string

	cfg *config.Config

	// Services are built lazily by the commands that need them.
	// Tests inject fakes directly.
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	answerFlow       driving.AnswerFlow
	historyStore     driven.HistoryStore
)

var rootCmd = &cobra.Command{
	Use:   "bizbrain",
	Short: "Ingest and query business documents",
	Long: `BizBrain ingests legal documents and contracts, indexes them for
hybrid semantic/keyword retrieval, and answers questions about them
with citations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		loaded, err := config.Load(dataDir)
		if err != nil {
			return err
		}
		cfg = loaded
		return cfg.EnsureDirs()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.bizbrain)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newEmbedder builds the configured embedding service.
func newEmbedder() (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:           cfg.Embedding.BaseURL,
			Model:             cfg.Embedding.Model,
			Dimensions:        cfg.Embedding.Dimensions,
			RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		}), nil
	case "openai":
		key := config.OpenAIKey()
		if key == "" {
			return nil, errors.New("OPENAI_API_KEY is not set (environment or .env file)")
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:            key,
			BaseURL:           cfg.Embedding.BaseURL,
			Model:             cfg.Embedding.Model,
			Dimensions:        cfg.Embedding.Dimensions,
			RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// ensureServices wires the ingestion pipeline and retriever. Safe to call
// from multiple commands; the first call wins.
func ensureServices() error {
	if ingestService != nil && retrievalService != nil {
		return nil
	}

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}

	registry, err := file.NewRegistryStore(cfg.ProcessedDir())
	if err != nil {
		return err
	}
	segments, err := file.NewSegmentStore(cfg.ChunksDir())
	if err != nil {
		return err
	}
	fullText, err := file.NewFullTextStore(cfg.FullTextDir())
	if err != nil {
		return err
	}
	index, err := flat.Open(cfg.VectorStoreDir(), embedder.Dimensions())
	if err != nil {
		return err
	}
	splitter, err := chunker.New(
		chunker.WithWindowSize(cfg.Chunking.WindowSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		return err
	}

	ingestService = services.NewIngestPipeline(
		registry, extract.New(), splitter, embedder,
		index, segments, fullText, cfg.RawDir(),
	)
	retrievalService = services.NewHybridRetriever(embedder, index, segments)
	return nil
}

// newAnswerService builds the configured answer backend.
func newAnswerService() (driven.AnswerService, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		return ollamallm.NewAnswerService(ollamallm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		}), nil
	case "anthropic":
		key := config.AnthropicKey()
		if key == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is not set (environment or .env file)")
		}
		return anthropic.NewAnswerService(anthropic.Config{
			APIKey:      key,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// ensureAnswerFlow wires the answer service and conversation history on
// top of the retriever.
func ensureAnswerFlow() error {
	if answerFlow != nil {
		return nil
	}
	if err := ensureServices(); err != nil {
		return err
	}

	answers, err := newAnswerService()
	if err != nil {
		return err
	}

	// History is best-effort: a broken database disables it but never
	// blocks asking questions.
	var hs driven.HistoryStore
	if history, err := sqlite.NewHistoryStore(cfg.HistoryDir()); err != nil {
		logger.Warn("Conversation history unavailable: %v", err)
	} else {
		hs = history
	}
	historyStore = hs

	answerFlow = services.NewAnswerFlowService(retrievalService, answers, hs)
	return nil
}
