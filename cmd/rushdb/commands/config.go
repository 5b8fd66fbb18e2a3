package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/cli"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long: `Manage CLI configuration and contexts.

Contexts allow you to manage multiple RushDB deployments,
similar to kubectl's context management.

Configuration is stored in ~/.rushdb/config.yaml`,
	}

	addCmd := &cobra.Command{
		Use:   "add-context <name>",
		Short: "Add a new context",
		Long: `Add a new context with the specified name.

Example:
  rushdb config add-context cloud --api-key YOUR_API_KEY
  rushdb config add-context local --api-key KEY --base-url http://localhost:3000/api/v1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			apiKey, err := cmd.Flags().GetString("api-key")
			if err != nil {
				return fmt.Errorf("failed to read 'api-key' flag: %w", err)
			}
			if apiKey == "" {
				return fmt.Errorf("--api-key is required")
			}
			baseURL, err := cmd.Flags().GetString("base-url")
			if err != nil {
				return fmt.Errorf("failed to read 'base-url' flag: %w", err)
			}
			timeout, err := cmd.Flags().GetInt("timeout")
			if err != nil {
				return fmt.Errorf("failed to read 'timeout' flag: %w", err)
			}
			strict, err := cmd.Flags().GetBool("strict-find")
			if err != nil {
				return fmt.Errorf("failed to read 'strict-find' flag: %w", err)
			}
			label, err := cmd.Flags().GetString("default-label")
			if err != nil {
				return fmt.Errorf("failed to read 'default-label' flag: %w", err)
			}

			ctx := &cli.Context{
				APIKey:     apiKey,
				BaseURL:    baseURL,
				Timeout:    timeout,
				StrictFind: strict,
			}
			if label != "" {
				ctx.SetExtra("default_label", label)
			}
			if err := a.cfg.AddContext(name, ctx); err != nil {
				return err
			}

			cli.PrintSuccess(cmd.ErrOrStderr(), "Context %q added successfully", name)
			return nil
		},
	}
	addCmd.Flags().String("api-key", "", "API key (required)")
	addCmd.Flags().String("base-url", "", "API base URL including /api/v1")
	addCmd.Flags().Int("timeout", 0, "Request timeout in seconds")
	addCmd.Flags().Bool("strict-find", false, "Fail record searches instead of returning empty results")
	addCmd.Flags().String("default-label", "", "Label used by records create when none is given")

	deleteCmd := &cobra.Command{
		Use:   "delete-context <name>",
		Short: "Delete a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.DeleteContext(args[0]); err != nil {
				return err
			}
			cli.PrintSuccess(cmd.ErrOrStderr(), "Context %q deleted", args[0])
			return nil
		},
	}

	useCmd := &cobra.Command{
		Use:   "use-context <name>",
		Short: "Set the current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.UseContext(args[0]); err != nil {
				return err
			}
			cli.PrintSuccess(cmd.ErrOrStderr(), "Switched to context %q", args[0])
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get-context",
		Short: "Display the current context",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.CurrentContext == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No current context set")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.cfg.CurrentContext)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:     "list-contexts",
		Aliases: []string{"get-contexts"},
		Short:   "List all contexts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([]map[string]any, 0, len(a.cfg.Contexts))
			for _, name := range a.cfg.ListContexts() {
				ctx := a.cfg.Contexts[name]
				current := ""
				if name == a.cfg.CurrentContext {
					current = "*"
				}
				baseURL := ctx.BaseURL
				if baseURL == "" {
					baseURL = "(default)"
				}
				rows = append(rows, map[string]any{
					"current":  current,
					"name":     name,
					"base_url": baseURL,
				})
			}
			return a.outputResult(cmd.OutOrStdout(), rows)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "View the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			contexts := map[string]any{}
			for name, ctx := range a.cfg.Contexts {
				m := ctx.Masked()
				entry := map[string]any{"api_key": m.APIKey}
				if m.BaseURL != "" {
					entry["base_url"] = m.BaseURL
				}
				if m.Timeout > 0 {
					entry["timeout"] = m.Timeout
				}
				if m.StrictFind {
					entry["strict_find"] = true
				}
				if len(m.Extra) > 0 {
					entry["extra"] = m.Extra
				}
				contexts[name] = entry
			}
			return a.outputResult(cmd.OutOrStdout(), map[string]any{
				"config_file":     a.cfg.Path(),
				"current_context": a.cfg.CurrentContext,
				"contexts":        contexts,
			})
		},
	}

	cmd.AddCommand(addCmd, deleteCmd, useCmd, getCmd, listCmd, viewCmd)
	return cmd
}
