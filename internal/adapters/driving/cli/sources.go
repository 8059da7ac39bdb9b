package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/core/domain"
	"github.com/recallhq/recall/internal/logger"
	"github.com/recallhq/recall/internal/secrets"
)

var (
	sourceLabel   string
	sourceInclude string
	sourceExclude string
	sourceToken   string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage configured sources",
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Register a file, folder or mailbox as a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesAdd,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourcesList,
}

var sourcesRmCmd = &cobra.Command{
	Use:   "rm [source-id]",
	Short: "Remove a source and its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesRm,
}

func init() {
	sourcesAddCmd.Flags().StringVar(&sourceLabel, "label", "", "human-readable source name")
	sourcesAddCmd.Flags().StringVar(&sourceInclude, "include", "", "include glob for folder sources")
	sourcesAddCmd.Flags().StringVar(&sourceExclude, "exclude", "", "exclude glob for folder sources")
	sourcesAddCmd.Flags().StringVar(&sourceToken, "token", "", "credential for authenticated sources")

	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesRmCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	abs, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat %s: %w", abs, err)
	}

	kind := domain.SourceKindFile
	switch {
	case info.IsDir():
		kind = domain.SourceKindFolder
	case strings.EqualFold(filepath.Ext(abs), ".mbox"):
		kind = domain.SourceKindMailbox
	}

	label := sourceLabel
	if label == "" {
		label = filepath.Base(abs)
	}

	source := domain.Source{
		ID:          domain.NewID("src"),
		Kind:        kind,
		URI:         "file://" + abs,
		Label:       label,
		IncludeGlob: sourceInclude,
		ExcludeGlob: sourceExclude,
	}
	if err := sourceStore.Save(cmd.Context(), source); err != nil {
		return fmt.Errorf("saving source: %w", err)
	}

	if sourceToken != "" {
		if err := secrets.NewStore().Put(source.ID, sourceToken); err != nil {
			logger.Warn("Token not stored: %v", err)
		}
	}

	cmd.Printf("Added %s source %s (%s)\n", kind, source.ID, label)
	return nil
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	sources, err := sourceStore.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing sources: %w", err)
	}
	if len(sources) == 0 {
		cmd.Println("No sources configured.")
		return nil
	}

	for _, source := range sources {
		cmd.Printf("%s  %-8s %s", source.ID, source.Kind, source.Label)
		if source.URI != "" {
			cmd.Printf("  %s", mutedStyle.Render(source.URI))
		}
		cmd.Println()
	}
	return nil
}

func runSourcesRm(cmd *cobra.Command, args []string) error {
	if sourceStore == nil {
		return errors.New("source store not configured")
	}

	if err := sourceStore.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("removing source: %w", err)
	}
	cmd.Printf("Removed source %s\n", args[0])
	return nil
}
