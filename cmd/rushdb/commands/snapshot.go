package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/cli"
	"github.com/haivivi/rushdb-go/pkg/rushdb"
	"github.com/haivivi/rushdb-go/pkg/snapshot"
)

const snapshotPrefix = "snap"

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Local snapshots of records and relationships",
		Long: `Copy records and relationships into a local Badger database and
browse them offline.

Snapshots are stored in ~/.rushdb/snapshots/<context> unless --dir is given.

Examples:
  rushdb snapshot pull --label USER
  rushdb snapshot show --label USER -o table
  rushdb snapshot neighbors USER_ID --direction out`,
	}
	cmd.PersistentFlags().String("dir", "", "snapshot directory")

	pullCmd := &cobra.Command{
		Use:   "pull",
		Short: "Copy records matching a query into the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.loadQuery(cmd)
			if err != nil {
				return err
			}
			pageSize, _ := cmd.Flags().GetInt("page-size")
			noRels, _ := cmd.Flags().GetBool("no-relationships")

			client, err := a.createClient()
			if err != nil {
				return err
			}
			store, dir, err := a.openSnapshot(cmd, false)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := snapshot.Pull(cmd.Context(), client, q, store, &snapshot.PullOptions{
				PageSize:          pageSize,
				SkipRelationships: noRels,
				CallOptions:       a.callOptions(),
				Logger:            a.logger,
			})
			if err != nil {
				return err
			}
			a.logger.Debug("snapshot pulled", "dir", dir, "records", stats.Records, "relationships", stats.Relationships)
			return a.outputResult(cmd.OutOrStdout(), stats)
		},
	}
	addQueryFlags(pullCmd)
	pullCmd.Flags().Int("page-size", snapshot.DefaultPageSize, "records per request")
	pullCmd.Flags().Bool("no-relationships", false, "copy records only")

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a record, the records of a label, or the label counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := a.openSnapshot(cmd, true)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if len(args) == 1 {
				rec, err := store.GetRecord(ctx, args[0])
				if err != nil {
					return err
				}
				return a.outputResult(cmd.OutOrStdout(), rec)
			}

			label, _ := cmd.Flags().GetString("label")
			if label == "" {
				labels, err := store.Labels(ctx)
				if err != nil {
					return err
				}
				if labels == nil {
					labels = []rushdb.LabelCount{}
				}
				return a.outputResult(cmd.OutOrStdout(), labels)
			}
			recs := []*rushdb.Record{}
			for rec, err := range store.Records(ctx, label) {
				if err != nil {
					return err
				}
				recs = append(recs, rec)
			}
			return a.outputResult(cmd.OutOrStdout(), recs)
		},
	}
	showCmd.Flags().String("label", "", "list the records of this label")

	neighborsCmd := &cobra.Command{
		Use:   "neighbors <id>",
		Short: "Show the relationships of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirFlag, _ := cmd.Flags().GetString("direction")
			direction, err := snapshot.ParseDirection(dirFlag)
			if err != nil {
				return err
			}
			relType, _ := cmd.Flags().GetString("type")

			store, _, err := a.openSnapshot(cmd, true)
			if err != nil {
				return err
			}
			defer store.Close()

			rels, err := store.Relationships(cmd.Context(), args[0], direction)
			if err != nil {
				return err
			}
			out := []rushdb.Relationship{}
			for _, r := range rels {
				if relType == "" || r.Type == relType {
					out = append(out, r)
				}
			}
			return a.outputResult(cmd.OutOrStdout(), out)
		},
	}
	neighborsCmd.Flags().String("type", "", "only relationships of this type")
	neighborsCmd.Flags().String("direction", "both", "both, out or in")

	cmd.AddCommand(pullCmd, showCmd, neighborsCmd)
	return cmd
}

// openSnapshot opens the Badger snapshot of the selected context.
func (a *app) openSnapshot(cmd *cobra.Command, readOnly bool) (*snapshot.Snapshot, string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		ctx, err := a.getContext()
		if err != nil {
			return nil, "", err
		}
		paths, err := cli.NewPaths()
		if err != nil {
			return nil, "", err
		}
		dir = paths.SnapshotDir(ctx.Name)
		if !readOnly {
			if err := paths.EnsureDir(dir); err != nil {
				return nil, "", fmt.Errorf("cannot create snapshot dir: %w", err)
			}
		}
	}
	kv, err := snapshot.OpenBadger(snapshot.BadgerOptions{
		Dir:      dir,
		ReadOnly: readOnly,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, "", err
	}
	return snapshot.New(kv, snapshotPrefix), dir, nil
}
