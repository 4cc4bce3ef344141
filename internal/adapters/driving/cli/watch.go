package cli

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/bizbrain-labs/bizbrain-cli/internal/logger"
)

// watchSettle is how long a file must stay quiet before it is ingested,
// so half-copied files are not picked up.
const watchSettle = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the raw documents directory and ingest new files",
	Long: `Watches the raw documents directory and ingests every new or changed
supported file automatically. Files ingested this way carry no batch or
effective date. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	rawDir := cfg.RawDir()
	if err := watcher.Add(rawDir); err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl-C to stop)\n", rawDir)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	// Pending files and the time their last event was seen.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	ctx := cmd.Context()
	for {
		select {
		case <-stop:
			cmd.Println("Stopped.")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !watchable(event.Name) {
				continue
			}
			pending[filepath.Base(event.Name)] = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		case now := <-ticker.C:
			for name, last := range pending {
				if now.Sub(last) < watchSettle {
					continue
				}
				delete(pending, name)

				res, err := ingestService.Ingest(ctx, name, "", "")
				if err != nil {
					cmd.Printf("  ✗ %s: %v\n", name, err)
					continue
				}
				if res.Unchanged {
					logger.Debug("%s unchanged, skipped", name)
					continue
				}
				cmd.Printf("  ✓ %s → %s (%d segments)\n", name, res.DocumentID, res.SegmentCount)
			}
		}
	}
}

// watchable filters events down to supported document files.
func watchable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".docx":
		return true
	}
	return false
}
