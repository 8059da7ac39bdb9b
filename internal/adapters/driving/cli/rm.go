package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm [document-id...]",
	Short: "Remove documents from retrieval",
	Long: `Soft-deletes documents. Removed documents stop appearing in query
results and no longer block re-ingesting the same content; their rows
are kept for the provenance trail.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	if docStore == nil {
		return errors.New("document store not configured")
	}

	for _, id := range args {
		if err := docStore.DeleteDocument(cmd.Context(), id); err != nil {
			return fmt.Errorf("removing %s: %w", id, err)
		}
		cmd.Printf("Removed %s\n", id)
	}
	return nil
}
