package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var whyJSON bool

var whyCmd = &cobra.Command{
	Use:   "why [query-id]",
	Short: "Replay the persisted results of a past query",
	Long: `Prints exactly the results a past query returned, in their stored
order, independent of anything ingested since.`,
	Args: cobra.ExactArgs(1),
	RunE: runWhy,
}

func init() {
	whyCmd.Flags().BoolVar(&whyJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(whyCmd)
}

func runWhy(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	resp, err := queryService.Why(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	if whyJSON {
		return printJSON(cmd, resp)
	}
	printQueryResponse(cmd, resp)
	return nil
}
