package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var syncJSON bool

var syncCmd = &cobra.Command{
	Use:   "sync [source-id...]",
	Short: "Re-ingest configured sources",
	Long: `Runs the ingest pipeline over the given sources. Without
arguments, every configured source is re-ingested. Unchanged documents
are skipped by content hash.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	report, err := ingestService.IngestSources(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if syncJSON {
		return printJSON(cmd, report)
	}
	printIngestReport(cmd, report)
	return nil
}
