package cli

import (
	"os"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/storage/file"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(18)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry and batch summary",
	Long: `Reports the document registry totals, the known batches and their
document counts, and the documents tracked per batch. Reads only; never
modifies any store.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	// Status needs only the registry, not the embedding stack.
	registry, err := file.NewRegistryStore(cfg.ProcessedDir())
	if err != nil {
		return err
	}
	reg, err := registry.Load(cmd.Context())
	if err != nil {
		return err
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	cmd.Println(headerStyle.Render("Registry"))
	cmd.Printf("%s %d\n", labelStyle.Render("Documents"), reg.TotalDocuments)
	cmd.Printf("%s %d\n", labelStyle.Render("Segments"), reg.TotalChunks)
	cmd.Printf("%s %d\n", labelStyle.Render("Batches"), reg.TotalBatches)
	if !reg.LastUpdate.IsZero() {
		cmd.Printf("%s %s\n", labelStyle.Render("Last update"), reg.LastUpdate.Format("2006-01-02 15:04:05"))
	}

	if len(reg.Batches) > 0 {
		cmd.Println()
		cmd.Println(headerStyle.Render("Batches"))

		ids := make([]string, 0, len(reg.Batches))
		for id := range reg.Batches {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			b := reg.Batches[id]
			cmd.Printf("%s effective %s, %d documents\n",
				labelStyle.Render(id), b.EffectiveDate, b.DocumentCount)
		}
	}

	if len(reg.Documents) > 0 {
		cmd.Println()
		cmd.Println(headerStyle.Render("Documents"))

		names := make([]string, 0, len(reg.Documents))
		for name := range reg.Documents {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rec := reg.Documents[name]
			line := labelStyle.Render(rec.DocumentID) + " " + name
			detail := dimStyle.Render(
				" (" + rec.Status + ", " + strconv.Itoa(rec.ChunkCount) + " segments)")
			if lipgloss.Width(line+detail) > width {
				line = line[:width-lipgloss.Width(detail)]
			}
			cmd.Println(line + detail)
		}
	}
	return nil
}
