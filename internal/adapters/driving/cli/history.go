package cli

import (
	"github.com/spf13/cobra"

	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/storage/sqlite"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent question/answer exchanges",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of exchanges to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	store := historyStore
	if store == nil {
		opened, err := sqlite.NewHistoryStore(cfg.HistoryDir())
		if err != nil {
			return err
		}
		defer opened.Close()
		store = opened
	}

	exchanges, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(exchanges) == 0 {
		cmd.Println("No history yet.")
		return nil
	}

	for _, ex := range exchanges {
		cmd.Printf("[%s] %s\n", ex.CreatedAt.Local().Format("2006-01-02 15:04"), ex.Question)
		cmd.Printf("    %s\n", ex.Answer)
		for _, src := range ex.Sources {
			cmd.Printf("    - %s\n", src)
		}
		cmd.Println()
	}
	return nil
}
