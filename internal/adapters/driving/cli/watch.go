package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch a folder and re-ingest files as they change",
	Long: `Observes a folder tree and re-ingests files when they are created
or modified. Change bursts collapse into one ingest batch per debounce
window. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "batching window for change events (0 uses the config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	debounce := watchDebounce
	if debounce <= 0 {
		debounce = time.Duration(settings.Watch.DebounceMS) * time.Millisecond
	}

	w := watcher.New(ingestService, watcher.Config{
		IncludeGlob: settings.Watch.IncludeGlob,
		ExcludeGlob: settings.Watch.ExcludeGlob,
		Debounce:    debounce,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", args[0])
	err := w.Watch(ctx, args[0])
	if errors.Is(err, context.Canceled) {
		cmd.Println("Stopped.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
