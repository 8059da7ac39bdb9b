package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag [document-id] [label...]",
	Short: "Attach tags to a document",
	Long: `Attaches one or more labels to a document. Tags can later narrow
queries: a tag filter requires a document to carry every listed tag.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)
}

func runTag(cmd *cobra.Command, args []string) error {
	if docStore == nil {
		return errors.New("document store not configured")
	}

	documentID := args[0]
	labels := args[1:]

	if err := docStore.AddTags(cmd.Context(), documentID, labels); err != nil {
		return fmt.Errorf("tagging failed: %w", err)
	}

	cmd.Printf("Tagged %s with %s\n", documentID, strings.Join(labels, ", "))
	return nil
}
