package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Remove stale vector index entries",
	Long: `Drops vector index entries whose segments were superseded when a
document was reprocessed. Surviving entries keep their ids.`,
	RunE: runCompact,
}

func init() {
	rootCmd.AddCommand(compactCmd)
}

func runCompact(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	removed, err := ingestService.Compact(cmd.Context())
	if err != nil {
		return err
	}
	if removed == 0 {
		cmd.Println("Index is already compact.")
		return nil
	}
	cmd.Printf("Removed %d stale entries.\n", removed)
	return nil
}
