package cli

import (
	"github.com/spf13/cobra"

	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driving/tui"
	"github.com/bizbrain-labs/bizbrain-cli/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive search interface",
	Long: `Opens an interactive terminal interface for searching documents and
asking questions. Ask mode requires ANTHROPIC_API_KEY; without it the
interface runs in search-only mode.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ports := &tui.Ports{
		Retrieval: retrievalService,
		TopK:      cfg.Retrieval.TopK,
	}
	if err := ensureAnswerFlow(); err != nil {
		logger.Debug("Ask mode unavailable: %v", err)
	} else {
		ports.Answer = answerFlow
	}

	return tui.Run(cmd.Context(), ports)
}
