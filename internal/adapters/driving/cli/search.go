package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed document segments",
	Long: `Performs hybrid retrieval across all indexed segments, blending
vector similarity with keyword overlap. Lower scores are better.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	limit := searchLimit
	if limit <= 0 {
		limit = cfg.Retrieval.TopK
	}

	results, err := retrievalService.Retrieve(cmd.Context(), args[0], limit)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printResults(cmd, results)
	return nil
}

func printResults(cmd *cobra.Command, results []domain.RetrievedSegment) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		score := fmt.Sprintf("%.4f", r.Score)
		if r.LexicalOnly() {
			score = "keyword-only"
		}
		cmd.Printf("  [%d] %s - %s (%s)\n", i+1, r.Meta.Title, r.Meta.Section, score)
		cmd.Printf("      %s\n", snippet(r.Text, 160))
		cmd.Println()
	}
}

// snippet truncates text to one display line.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > max {
		text = text[:max] + "…"
	}
	return text
}
