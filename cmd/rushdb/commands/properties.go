package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

func newPropertiesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "properties",
		Aliases: []string{"props"},
		Short:   "Property metadata and values",
	}

	findCmd := &cobra.Command{
		Use:   "find",
		Short: "List properties of records matching a query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.loadQuery(cmd)
			if err != nil {
				return err
			}
			client, err := a.createClient()
			if err != nil {
				return err
			}
			props, err := client.Properties.Find(cmd.Context(), q, a.callOptions()...)
			if err != nil {
				return fmt.Errorf("list properties failed: %w", err)
			}
			if props == nil {
				props = []rushdb.Property{}
			}
			return a.outputResult(cmd.OutOrStdout(), props)
		},
	}
	addQueryFlags(findCmd)

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a property by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.createClient()
			if err != nil {
				return err
			}
			prop, err := client.Properties.FindByID(cmd.Context(), args[0], a.callOptions()...)
			if err != nil {
				return err
			}
			return a.outputResult(cmd.OutOrStdout(), prop)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a property from all records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.createClient()
			if err != nil {
				return err
			}
			res, err := client.Properties.Delete(cmd.Context(), args[0], a.callOptions()...)
			if err != nil {
				return fmt.Errorf("delete property failed: %w", err)
			}
			return a.mutationOutput(cmd, res, fmt.Sprintf("Property %s deleted", args[0]))
		},
	}

	valuesCmd := &cobra.Command{
		Use:   "values <id>",
		Short: "List distinct values of a property",
		Long: `List the distinct values of a property, optionally restricted to
records matching the query in -f.

Examples:
  rushdb properties values PROP_ID --sort desc --limit 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q rushdb.SearchQuery
			if a.inputFile != "" {
				if err := a.loadRequest(cmd, &q); err != nil {
					return err
				}
			}
			opts := &rushdb.ValuesOptions{Query: q}
			sort, _ := cmd.Flags().GetString("sort")
			if sort != "" {
				opts.Sort = rushdb.Direction(sort)
				if !opts.Sort.Valid() {
					return fmt.Errorf("--sort must be asc or desc, got %q", sort)
				}
			}
			if cmd.Flags().Changed("limit") {
				n, _ := cmd.Flags().GetInt("limit")
				opts.Limit = &n
			}
			if cmd.Flags().Changed("skip") {
				n, _ := cmd.Flags().GetInt("skip")
				opts.Skip = &n
			}

			client, err := a.createClient()
			if err != nil {
				return err
			}
			values, err := client.Properties.Values(cmd.Context(), args[0], opts, a.callOptions()...)
			if err != nil {
				return fmt.Errorf("list property values failed: %w", err)
			}
			return a.outputResult(cmd.OutOrStdout(), values)
		},
	}
	valuesCmd.Flags().String("sort", "", "asc or desc")
	valuesCmd.Flags().Int("limit", 0, "maximum number of values")
	valuesCmd.Flags().Int("skip", 0, "number of values to skip")

	cmd.AddCommand(findCmd, getCmd, deleteCmd, valuesCmd)
	return cmd
}
