package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/core/domain"
	"github.com/recallhq/recall/internal/core/ports/driving"
)

var (
	queryK         int
	queryNoRerank  bool
	queryDenseOnly bool
	querySources   []string
	queryDocs      []string
	queryTags      []string
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve ranked passages for a question",
	Long: `Runs hybrid retrieval over the ingested passages: dense vector
search fused with lexical scoring, diversified and reranked. Every
query is persisted so its ranking can be replayed later with "why".`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "top", "k", 0, "number of results (0 uses the configured default)")
	queryCmd.Flags().BoolVar(&queryNoRerank, "no-rerank", false, "skip the second-pass reranker")
	queryCmd.Flags().BoolVar(&queryDenseOnly, "dense-only", false, "skip lexical fusion, rank by vector similarity alone")
	queryCmd.Flags().StringSliceVar(&querySources, "source", nil, "restrict to the given source IDs")
	queryCmd.Flags().StringSliceVar(&queryDocs, "document", nil, "restrict to the given document IDs")
	queryCmd.Flags().StringSliceVar(&queryTags, "tag", nil, "require documents to carry all given tags")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	opts := driving.QueryOptions{
		K: queryK,
		Filters: domain.QueryFilters{
			SourceIDs:   querySources,
			DocumentIDs: queryDocs,
			Tags:        queryTags,
		},
	}
	if queryNoRerank {
		off := false
		opts.Rerank = &off
	}
	if queryDenseOnly {
		off := false
		opts.Hybrid = &off
	}

	resp, err := queryService.Query(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return printJSON(cmd, resp)
	}
	printQueryResponse(cmd, resp)
	return nil
}

func printQueryResponse(cmd *cobra.Command, resp *domain.QueryResponse) {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		cmd.Println(mutedStyle.Render("query " + resp.QueryID))
		return
	}

	for i, result := range resp.Results {
		cmd.Printf("%s %s\n",
			titleStyle.Render(fmt.Sprintf("[%d]", i+1)),
			scoreStyle.Render(fmt.Sprintf("%.4f", result.Score)))
		cmd.Println(result.Text)
		cmd.Println(mutedStyle.Render(result.Provenance.DeepLink))
		cmd.Println()
	}
	cmd.Println(mutedStyle.Render("query " + resp.QueryID + " (replay with: recall why " + resp.QueryID + ")"))
}
