package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

func newLabelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Label statistics",
	}

	findCmd := &cobra.Command{
		Use:   "find",
		Short: "List labels with record counts",
		Long: `List the labels of records matching the query, with counts.

Examples:
  rushdb labels find
  rushdb labels find -f query.yaml -o table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.loadQuery(cmd)
			if err != nil {
				return err
			}
			client, err := a.createClient()
			if err != nil {
				return err
			}
			labels, err := client.Labels.Find(cmd.Context(), q, a.callOptions()...)
			if err != nil {
				return fmt.Errorf("list labels failed: %w", err)
			}
			if labels == nil {
				labels = []rushdb.LabelCount{}
			}
			return a.outputResult(cmd.OutOrStdout(), labels)
		},
	}
	addQueryFlags(findCmd)

	cmd.AddCommand(findCmd)
	return cmd
}
