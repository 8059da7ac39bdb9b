// Package cli implements the command-line interface adapter.
// Commands are thin wrappers around the driving port services.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/adapters/driven/storage/sqlite"
	"github.com/recallhq/recall/internal/adapters/driven/vectorindex/memory"
	"github.com/recallhq/recall/internal/chunker"
	"github.com/recallhq/recall/internal/config"
	"github.com/recallhq/recall/internal/core/ports/driven"
	"github.com/recallhq/recall/internal/core/ports/driving"
	"github.com/recallhq/recall/internal/core/services"
	"github.com/recallhq/recall/internal/embedding"
	"github.com/recallhq/recall/internal/loaders"
	"github.com/recallhq/recall/internal/logger"
	"github.com/recallhq/recall/internal/ranking"
	"github.com/recallhq/recall/internal/rerank"
)

// version is set via Execute.
var version = "dev"

var (
	verbose    bool
	configPath string
)

// Shared services, wired in initServices.
var (
	settings      config.Settings
	store         *sqlite.Store
	ingestService driving.IngestService
	queryService  driving.QueryService
	sourceStore   driven.SourceStore
	docStore      driven.DocumentStore
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Local-first retrieval over your own documents",
	Long: `Recall ingests local documents (markdown, plain text, mailboxes),
chunks and embeds them into a local SQLite database, and answers
queries with ranked passages carrying full provenance.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file")
}

// Execute runs the root command with the given build version.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// initServices loads the configuration, opens the store and wires the
// ingest and query services. The vector index is rebuilt from
// persisted embeddings on every start.
func initServices(ctx context.Context) error {
	var err error
	settings, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err = sqlite.NewStore(settings.DataDir())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	embedders := embedding.NewRegistry(settings.Embeddings.Dim)
	index := memory.New(settings.Embeddings.Dim)
	if err := index.Rebuild(ctx, store.EmbeddingStore(), settings.Embeddings.Model); err != nil {
		return fmt.Errorf("rebuilding vector index: %w", err)
	}
	logger.Debug("Vector index rebuilt: %d vector(s)", index.Size())

	chk := chunker.New(
		chunker.WithTargetTokens(settings.Chunking.TargetTokens),
		chunker.WithMaxTokens(settings.Chunking.MaxTokens),
		chunker.WithMinTokens(settings.Chunking.MinTokens),
		chunker.WithOverlapTokens(settings.Chunking.OverlapTokens),
	)

	pipeline := services.NewPipeline(
		store.SourceStore(),
		store.DocumentStore(),
		store.JobStore(),
		loaders.NewRegistry(),
		chk,
		embedders,
		index,
		settings.Embeddings.Model,
	)
	pipeline.SetFolderGlobs(settings.Watch.IncludeGlob, settings.Watch.ExcludeGlob)

	retriever := services.NewRetriever(
		store.DocumentStore(),
		store.QueryStore(),
		embedders,
		index,
		ranking.NewBM25(),
		rerank.NewScorer(),
		services.RetrieverConfig{
			Model:         settings.Embeddings.Model,
			TopKDense:     settings.Retrieval.TopKDense,
			TopKFinal:     settings.Retrieval.TopKFinal,
			MMRLambda:     settings.Retrieval.MMRLambda,
			RRFWeight:     settings.Retrieval.RRFWeight,
			RerankEnabled: settings.Embeddings.RerankEnabled,
			HybridEnabled: settings.Retrieval.HybridEnabled,
		},
	)

	ingestService = pipeline
	queryService = retriever
	sourceStore = store.SourceStore()
	docStore = store.DocumentStore()
	return nil
}
