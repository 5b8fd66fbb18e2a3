package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/cli"
	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.createClient()
			if err != nil {
				return err
			}
			ok := client.Ping(cmd.Context())
			if err := a.outputResult(cmd.OutOrStdout(), map[string]any{
				"base_url":  client.BaseURL(),
				"reachable": ok,
			}); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("server %s is not reachable", client.BaseURL())
			}
			return nil
		},
	}
}

type tokenInfo struct {
	Key      string                `json:"key"`
	Prefixed bool                  `json:"prefixed"`
	Settings *rushdb.TokenSettings `json:"settings,omitempty"`
}

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "API key helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "inspect [api-key]",
		Short: "Show the deployment settings encoded in an API key",
		Long: `Show the plan and deployment flags encoded in a prefixed API key
such as "ff_1010_...". Without an argument the key of the current context
is inspected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				ctx, err := a.getContext()
				if err != nil {
					return err
				}
				key = ctx.APIKey
			}
			if key == "" {
				return errors.New("no API key to inspect")
			}
			settings, _, ok := rushdb.ParseToken(key)
			info := tokenInfo{Key: cli.MaskAPIKey(key), Prefixed: ok}
			if ok {
				info.Settings = &settings
			}
			return a.outputResult(cmd.OutOrStdout(), info)
		},
	})
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.format == cli.FormatYAML && a.jq == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "rushdb", rushdb.Version)
				return nil
			}
			return a.outputResult(cmd.OutOrStdout(), map[string]string{"version": rushdb.Version})
		},
	}
}
