package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

func newRelationshipsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relationships",
		Aliases: []string{"rels"},
		Short:   "Relationship search",
	}

	findCmd := &cobra.Command{
		Use:   "find",
		Short: "Search relationships between records matching a query",
		Long: `Search relationships. The where-clause and labels in -f select the
records; --limit and --skip page through the relationships.

Examples:
  rushdb relationships find --label USER --limit 50 -o table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var q rushdb.SearchQuery
			if a.inputFile != "" {
				if err := a.loadRequest(cmd, &q); err != nil {
					return err
				}
			}
			if labels, _ := cmd.Flags().GetStringSlice("label"); len(labels) > 0 {
				q.Labels = labels
			}
			var page *rushdb.Pagination
			if cmd.Flags().Changed("limit") || cmd.Flags().Changed("skip") {
				page = &rushdb.Pagination{}
				if cmd.Flags().Changed("limit") {
					n, _ := cmd.Flags().GetInt("limit")
					page.Limit = &n
				}
				if cmd.Flags().Changed("skip") {
					n, _ := cmd.Flags().GetInt("skip")
					page.Skip = &n
				}
			}

			client, err := a.createClient()
			if err != nil {
				return err
			}
			res, err := client.Relationships.Find(cmd.Context(), q, page, a.callOptions()...)
			if err != nil {
				return fmt.Errorf("search relationships failed: %w", err)
			}
			a.logger.Debug("relationships", "loaded", res.Len(), "total", res.Total, "has_more", res.HasMore())
			return a.outputResult(cmd.OutOrStdout(), res)
		},
	}
	addQueryFlags(findCmd)

	cmd.AddCommand(findCmd)
	return cmd
}
