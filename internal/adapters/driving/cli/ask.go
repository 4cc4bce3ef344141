package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var askLimit int

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested documents",
	Long: `Retrieves the most relevant segments for the question and generates
an answer grounded in them, with citations. The exchange is recorded in
the conversation history.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 0, "number of segments to retrieve (default from config)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureAnswerFlow(); err != nil {
		return err
	}
	if answerFlow == nil {
		return errors.New("answer flow not configured")
	}

	limit := askLimit
	if limit <= 0 {
		limit = cfg.Retrieval.TopK
	}

	answer, segments, err := answerFlow.Ask(cmd.Context(), args[0], limit)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range answer.Sources {
			cmd.Printf("  - %s\n", src)
		}
	}
	if verbose {
		cmd.Println()
		printResults(cmd, segments)
	}
	return nil
}
