package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	ingestDate string
	ingestAll  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest documents into the index",
	Long: `Ingests the named source documents as a new batch, splitting them into
overlapping segments and indexing each segment for retrieval.

With --all, every file in the raw documents directory that is new or has
changed since its last ingestion is processed instead.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "effective date for the batch (YYYY-MM-DD)")
	ingestCmd.Flags().BoolVar(&ingestAll, "all", false, "ingest all new or changed raw documents")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()

	files := args
	if ingestAll {
		if len(args) > 0 {
			return errors.New("--all cannot be combined with explicit files")
		}
		pending, err := ingestService.Unprocessed(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			cmd.Println("Nothing to ingest.")
			return nil
		}
		files = pending
	}
	if len(files) == 0 {
		return errors.New("no files given (or use --all)")
	}
	if ingestDate == "" {
		return errors.New("--date is required (YYYY-MM-DD)")
	}

	result, err := ingestService.IngestBatch(ctx, files, ingestDate)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Batch %s (effective %s):\n", result.BatchID, ingestDate)
	for _, r := range result.Results {
		if r.Err != nil {
			cmd.Printf("  ✗ %s: %v\n", r.Filename, r.Err)
			continue
		}
		cmd.Printf("  ✓ %s → %s (%d segments)\n", r.Filename, r.DocumentID, r.SegmentCount)
	}
	if failed := result.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(result.Results))
	}
	return nil
}
