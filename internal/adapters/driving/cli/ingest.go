package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/core/domain"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest files or folders into the local index",
	Long: `Loads the given files, deduplicates them by content hash, splits
them into passages, embeds the passages and stores everything in the
local database. Each path is registered as a source on first use.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	report, err := ingestService.IngestPaths(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		return printJSON(cmd, report)
	}
	printIngestReport(cmd, report)
	return nil
}

func printIngestReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Job %s: %d processed, %d skipped, %d failed (%d chunks)\n",
		report.JobID,
		report.Stats.Processed, report.Stats.Skipped, report.Stats.Failed,
		report.Stats.Chunks)

	for _, result := range report.Results {
		switch result.Status {
		case domain.IngestProcessed:
			cmd.Printf("  + %s (%d chunks)\n", result.Path, result.Chunks)
		case domain.IngestSkipped:
			cmd.Printf("  %s %s\n", mutedStyle.Render("-"), mutedStyle.Render(result.Path+": "+result.Detail))
		case domain.IngestError:
			cmd.Printf("  %s %s: %s\n", errStyle.Render("!"), result.Path, result.Detail)
		}
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
