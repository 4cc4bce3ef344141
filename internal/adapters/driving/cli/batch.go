package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Manage ingestion batches",
}

var batchDeleteCmd = &cobra.Command{
	Use:   "delete [batch_id]",
	Short: "Delete an empty batch",
	Long: `Deletes a batch that no longer contains any documents. Deleting a
batch that still has documents, or one that does not exist, fails and
leaves the registry unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatchDelete,
}

func init() {
	batchCmd.AddCommand(batchDeleteCmd)
	rootCmd.AddCommand(batchCmd)
}

func runBatchDelete(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.DeleteBatch(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}
