package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/cli"
	"github.com/haivivi/rushdb-go/pkg/rushdb"
	"github.com/haivivi/rushdb-go/pkg/storage"
)

func newRecordsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"record", "rec"},
		Short:   "Record operations",
		Long: `Create, update, search and delete records.

Example query file (query.yaml):
  labels: [USER]
  where:
    age: {$gt: 18}
    COMPANY:
      name: Acme
  orderBy: {name: asc}
  limit: 20`,
	}

	cmd.AddCommand(
		newRecordsCreateCmd(a),
		newRecordsCreateManyCmd(a),
		newRecordsImportCSVCmd(a),
		newRecordsWriteCmd(a, "set", "Replace all fields of a record"),
		newRecordsWriteCmd(a, "update", "Merge fields into a record"),
		newRecordsDeleteCmd(a),
		newRecordsDeleteIDCmd(a),
		newRecordsFindCmd(a),
		newRecordsGetCmd(a),
		newRecordsAttachCmd(a),
		newRecordsDetachCmd(a),
		newRecordsExportCmd(a),
	)
	return cmd
}

func addWriteOptionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-suggest-types", false, "store every value as a string")
	cmd.Flags().Bool("no-return", false, "do not ask the server to echo created records")
}

func writeOptionsFromFlags(cmd *cobra.Command) *rushdb.WriteOptions {
	opts := rushdb.DefaultWriteOptions()
	if v, _ := cmd.Flags().GetBool("no-suggest-types"); v {
		opts.SuggestTypes = false
	}
	if v, _ := cmd.Flags().GetBool("no-return"); v {
		opts.ReturnResult = false
	}
	return opts
}

// labelArg returns the label argument or the context's default label.
func (a *app) labelArg(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	ctx, err := a.getContext()
	if err != nil {
		return "", err
	}
	if label := ctx.GetExtra("default_label"); label != "" {
		return label, nil
	}
	return "", fmt.Errorf("a label is required")
}

func newRecordsCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [label]",
		Short: "Create a record",
		Long: `Create one record from a YAML or JSON object.

Examples:
  rushdb records create USER -f ann.yaml
  rushdb records create USER --data '{"name":"Ann","age":31}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := a.labelArg(args)
			if err != nil {
				return err
			}
			var data map[string]any
			if err := a.loadData(cmd, &data); err != nil {
				return err
			}
			client, err := a.createClient()
			if err != nil {
				return err
			}
			rec, err := client.Records.Create(cmd.Context(), label, data, writeOptionsFromFlags(cmd), a.callOptions()...)
			if err != nil {
				return fmt.Errorf("create record failed: %w", err)
			}
			return a.outputResult(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().String("data", "", "record fields as inline JSON")
	addWriteOptionFlags(cmd)
	return cmd
}

func newRecordsCreateManyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-many [label]",
		Short: "Import a list or tree of objects as records",
		Long: `Import a list of objects, or a nested object tree, as records.
Nested objects become related records.

Examples:
  rushdb records create-many USER -f users.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := a.labelArg(args)
			if err != nil {
				return err
			}
			var data any
			if err := a.loadData(cmd, &data); err != nil {
				return err
			}
			client, err := a.createClient()
			if err != nil {
				return err
			}
			recs, err := client.Records.CreateMany(cmd.Context(), label, data, writeOptionsFromFlags(cmd), a.callOptions()...)
			if err != nil {
				return fmt.Errorf("import records failed: %w", err)
			}
			a.logger.Debug("records imported", "count", len(recs))
			return a.outputResult(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().String("data", "", "records as inline JSON")
	addWriteOptionFlags(cmd)
	return cmd
}

func newRecordsImportCSVCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-csv <label> <file>",
		Short: "Import a CSV file as records",
		Long: `Import a CSV file as records. The file may be a local path, a
file:// URI or an s3://bucket/key URI.

Examples:
  rushdb records import-csv USER users.csv
  rushdb records import-csv USER s3://my-bucket/imports/users.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, uri := args[0], args[1]
			ctx := cmd.Context()

			store, name, err := storage.OpenFile(ctx, uri)
			if err != nil {
				return err
			}
			r, err := store.Read(ctx, name)
			if err != nil {
				return fmt.Errorf("cannot open %s: %w", uri, err)
			}
			defer r.Close()
			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", uri, err)
			}
			a.logger.Debug("importing csv", "uri", uri, "bytes", len(data))

			client, err := a.createClient()
			if err != nil {
				return err
			}
			res, err := client.Records.ImportCSV(ctx, label, string(data), writeOptionsFromFlags(cmd), a.callOptions()...)
			if err != nil {
				return fmt.Errorf("import csv failed: %w", err)
			}
			return a.outputResult(cmd.OutOrStdout(), res)
		},
	}
	addWriteOptionFlags(cmd)
	return cmd
}

func newRecordsWriteCmd(a *app, verb, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Long: short + `.

Examples:
  rushdb records ` + verb + ` 0190a6e8-... --data '{"name":"Ann"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data map[string]any
			if err := a.loadData(cmd, &data); err != nil {
				return err
			}
			client, err := a.createClient()
			if err != nil {
				return err
			}
			write := client.Records.Update
			if verb == "set" {
				write = client.Records.Set
			}
			res, err := write(cmd.Context(), args[0], data, a.callOptions()...)
			if err != nil {
				return fmt.Errorf("%s record failed: %w", verb, err)
			}
			return a.mutationOutput(cmd, res, fmt.Sprintf("Record %s %s", args[0], pastTense(verb)))
		},
	}
	cmd.Flags().String("data", "", "record fields as inline JSON")
	return cmd
}

func pastTense(verb string) string {
	if verb == "set" {
		return "set"
	}
	return verb + "d"
}

func newRecordsDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete records matching a query",
		Long: `Delete every record matching the query in -f.

A query without labels or where-clause matches all records and is only
accepted with --all.

Examples:
  rushdb records delete -f stale-users.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.loadQuery(cmd)
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			if len(q.Where) == 0 && len(q.Labels) == 0 && !all {
				return fmt.Errorf("refusing to delete all records without --all")
			}
			client, err := a.createClient()
			if err != nil {
				return err
			}
			res, err := client.Records.Delete(cmd.Context(), q, a.callOptions()...)
			if err != nil {
				return fmt.Errorf("delete records failed: %w", err)
			}
			return a.mutationOutput(cmd, res, "Records deleted")
		},
	}
	cmd.Flags().Bool("all", false, "allow a query matching every record")
	cmd.Flags().StringSlice("label", nil, "restrict to these labels")
	return cmd
}

func newRecordsDeleteIDCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-id <id>...",
		Short: "Delete records by id",
		Long: `Delete records by id. More than one id is sent as a single batch
request, capped at 1000 records.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.createClient()
			if err != nil {
				return err
			}
			res, err := client.Records.DeleteByID(cmd.Context(), args, a.callOptions()...)
			if err != nil {
				return fmt.Errorf("delete records failed: %w", err)
			}
			return a.mutationOutput(cmd, res, fmt.Sprintf("%d record(s) deleted", len(args)))
		},
	}
}

func newRecordsFindCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Search records",
		Long: `Search records with a query file and/or flags.

Examples:
  rushdb records find -f query.yaml
  rushdb records find --label USER --limit 10 -o table
  rushdb records find --from 0190a6e8-... --label BOOK
  rushdb records find -f query.yaml --all --jq '.[].name'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.loadQuery(cmd)
			if err != nil {
				return err
			}
			var extra []rushdb.CallOption
			if from, _ := cmd.Flags().GetString("from"); from != "" {
				extra = append(extra, rushdb.FromRecord(from))
			}
			if cmd.Flags().Changed("strict") {
				strict, _ := cmd.Flags().GetBool("strict")
				extra = append(extra, rushdb.Strict(strict))
			}
			client, err := a.createClient()
			if err != nil {
				return err
			}

			if unique, _ := cmd.Flags().GetBool("unique"); unique {
				rec, err := client.Records.FindUnique(cmd.Context(), q, a.callOptions(extra...)...)
				if err != nil {
					return fmt.Errorf("search records failed: %w", err)
				}
				return a.outputResult(cmd.OutOrStdout(), rec)
			}

			if all, _ := cmd.Flags().GetBool("all"); all {
				pageSize, _ := cmd.Flags().GetInt("page-size")
				var recs []*rushdb.Record
				for rec, err := range client.Records.Iterate(cmd.Context(), q, pageSize, a.callOptions(extra...)...) {
					if err != nil {
						return fmt.Errorf("search records failed: %w", err)
					}
					recs = append(recs, rec)
				}
				return a.outputResult(cmd.OutOrStdout(), recs)
			}

			res, err := client.Records.Find(cmd.Context(), q, a.callOptions(extra...)...)
			if err != nil {
				return fmt.Errorf("search records failed: %w", err)
			}
			a.logger.Debug("search result", "loaded", res.Len(), "total", res.Total, "has_more", res.HasMore())
			return a.outputResult(cmd.OutOrStdout(), res)
		},
	}
	addQueryFlags(cmd)
	cmd.Flags().String("from", "", "search relative to this record")
	cmd.Flags().Bool("strict", false, "return errors instead of an empty result")
	cmd.Flags().Bool("all", false, "fetch every page and print the records")
	cmd.Flags().Int("page-size", 100, "page size used with --all")
	cmd.Flags().Bool("unique", false, "print the only matching record; fail on none or several")
	cmd.MarkFlagsMutuallyExclusive("unique", "all")
	return cmd
}

func newRecordsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>...",
		Short: "Get records by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.createClient()
			if err != nil {
				return err
			}
			if len(args) > 1 {
				recs, err := client.Records.FindByIDs(cmd.Context(), args, a.callOptions()...)
				if err != nil {
					return err
				}
				return a.outputResult(cmd.OutOrStdout(), recs)
			}
			rec, err := client.Records.FindByID(cmd.Context(), args[0], a.callOptions()...)
			if err != nil {
				return err
			}
			if created, err := rec.Date(); err == nil {
				a.logger.Debug("record", "id", rec.ID(), "label", rec.Label(), "created", cli.FormatTime(created))
			}
			return a.outputResult(cmd.OutOrStdout(), rec)
		},
	}
}

func relationFlags(cmd *cobra.Command) (rushdb.RelationDirection, error) {
	dir, _ := cmd.Flags().GetString("direction")
	switch d := rushdb.RelationDirection(dir); d {
	case "", rushdb.DirectionIn, rushdb.DirectionOut:
		return d, nil
	}
	return "", fmt.Errorf("--direction must be in or out, got %q", dir)
}

func newRecordsAttachCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach <source-id> <target>...",
		Short: "Create relationships from a record",
		Long: `Create relationships from the source record to each target. A
target is a record id or a JSON object or list of objects with __id.

Examples:
  rushdb records attach USER_ID BOOK_ID --type READ
  rushdb records attach USER_ID '[{"__id":"a"},{"__id":"b"}]' --direction in`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseTarget(args[1:])
			if err != nil {
				return err
			}
			dir, err := relationFlags(cmd)
			if err != nil {
				return err
			}
			typ, _ := cmd.Flags().GetString("type")
			client, err := a.createClient()
			if err != nil {
				return err
			}
			res, err := client.Records.Attach(cmd.Context(), args[0], target,
				&rushdb.AttachOptions{Direction: dir, Type: typ}, a.callOptions()...)
			if err != nil {
				return fmt.Errorf("attach failed: %w", err)
			}
			return a.mutationOutput(cmd, res, "Relationships created")
		},
	}
	cmd.Flags().String("type", "", "relationship type")
	cmd.Flags().String("direction", "", "in or out (default out)")
	return cmd
}

func newRecordsDetachCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detach <source-id> <target>...",
		Short: "Remove relationships from a record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseTarget(args[1:])
			if err != nil {
				return err
			}
			dir, err := relationFlags(cmd)
			if err != nil {
				return err
			}
			types, _ := cmd.Flags().GetStringSlice("type")
			client, err := a.createClient()
			if err != nil {
				return err
			}
			res, err := client.Records.Detach(cmd.Context(), args[0], target,
				&rushdb.DetachOptions{Direction: dir, Types: types}, a.callOptions()...)
			if err != nil {
				return fmt.Errorf("detach failed: %w", err)
			}
			return a.mutationOutput(cmd, res, "Relationships removed")
		},
	}
	cmd.Flags().StringSlice("type", nil, "relationship types to remove (default all)")
	cmd.Flags().String("direction", "", "in or out")
	return cmd
}
