package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/cli"
	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

type txInfo struct {
	ID    string `json:"id"`
	TTL   string `json:"ttl,omitempty"`
	State string `json:"state"`
}

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Transaction management",
		Long: `Begin, commit and roll back server-side transactions.

A transaction begun here stays open on the server until it is committed,
rolled back or its TTL expires. Pass its id with --tx to run other commands
inside it.

Examples:
  TX=$(rushdb tx begin --ttl 30s -o raw --jq .id)
  rushdb records create USER --data '{"name":"alice"}' --tx $TX
  rushdb tx commit $TX`,
	}

	beginCmd := &cobra.Command{
		Use:   "begin",
		Short: "Begin a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			client, err := a.createClient()
			if err != nil {
				return err
			}
			tx, err := client.Transactions.Begin(cmd.Context(), ttl)
			if err != nil {
				return fmt.Errorf("begin transaction failed: %w", err)
			}
			return a.outputResult(cmd.OutOrStdout(), txInfo{
				ID:    tx.ID(),
				TTL:   cli.FormatDuration(tx.TTL()),
				State: tx.State().String(),
			})
		},
	}
	beginCmd.Flags().Duration("ttl", rushdb.DefaultTransactionTTL, "idle timeout of the transaction")

	cmd.AddCommand(
		beginCmd,
		newTxFinishCmd(a, "commit", "Commit a transaction"),
		newTxFinishCmd(a, "rollback", "Roll back a transaction"),
	)
	return cmd
}

func newTxFinishCmd(a *app, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.createClient()
			if err != nil {
				return err
			}
			tx := client.Transactions.Resume(args[0])
			if verb == "commit" {
				err = tx.Commit(cmd.Context())
			} else {
				err = tx.Rollback(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("%s transaction failed: %w", verb, err)
			}
			if a.format == cli.FormatYAML && a.jq == "" {
				cli.PrintSuccess(cmd.ErrOrStderr(), "Transaction %s: %s", args[0], tx.State())
			}
			return a.outputResult(cmd.OutOrStdout(), txInfo{ID: tx.ID(), State: tx.State().String()})
		},
	}
}
