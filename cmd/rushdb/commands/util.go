package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/cli"
	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

// loadRequest loads the -f file into v. "-" reads the command's stdin.
func (a *app) loadRequest(cmd *cobra.Command, v any) error {
	if a.inputFile == "-" {
		return cli.LoadRequestFrom(cmd.InOrStdin(), v)
	}
	return cli.LoadRequest(a.inputFile, v)
}

// requireInputFile checks if input file is provided
func (a *app) requireInputFile() error {
	if a.inputFile == "" {
		return fmt.Errorf("input file is required, use -f flag")
	}
	return nil
}

// loadQuery reads a SearchQuery from -f if given, then applies the common
// --label, --limit and --skip flags.
func (a *app) loadQuery(cmd *cobra.Command) (rushdb.SearchQuery, error) {
	var q rushdb.SearchQuery
	if a.inputFile != "" {
		if err := a.loadRequest(cmd, &q); err != nil {
			return q, err
		}
	}
	flags := cmd.Flags()
	if flags.Lookup("label") != nil {
		labels, err := flags.GetStringSlice("label")
		if err != nil {
			return q, err
		}
		if len(labels) > 0 {
			q.Labels = labels
		}
	}
	if flags.Changed("limit") {
		n, err := flags.GetInt("limit")
		if err != nil {
			return q, err
		}
		q = q.WithLimit(n)
	}
	if flags.Changed("skip") {
		n, err := flags.GetInt("skip")
		if err != nil {
			return q, err
		}
		q = q.WithSkip(n)
	}
	return q, nil
}

// addQueryFlags registers --label, --limit and --skip.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("label", nil, "restrict to these labels")
	cmd.Flags().Int("limit", 0, "maximum number of results")
	cmd.Flags().Int("skip", 0, "number of results to skip")
}

// loadData reads a record body from -f or from --data.
func (a *app) loadData(cmd *cobra.Command, v any) error {
	data, err := cmd.Flags().GetString("data")
	if err != nil {
		return err
	}
	switch {
	case data != "":
		return cli.ParseRequest([]byte(data), "", v)
	case a.inputFile != "":
		return a.loadRequest(cmd, v)
	}
	return fmt.Errorf("record data is required, use -f or --data")
}

// createClient creates a RushDB client from the selected context.
func (a *app) createClient() (*rushdb.Client, error) {
	ctx, err := a.getContext()
	if err != nil {
		return nil, err
	}

	opts := []rushdb.Option{
		rushdb.WithLogger(a.logger),
		rushdb.WithStrictFind(ctx.StrictFind),
	}
	// Use custom base URL if configured
	if ctx.BaseURL != "" {
		opts = append(opts, rushdb.WithBaseURL(ctx.BaseURL))
	}
	if d := ctx.TimeoutDuration(); d > 0 {
		opts = append(opts, rushdb.WithTimeout(d))
	}
	return rushdb.NewClient(ctx.APIKey, opts...)
}

// callOptions returns per-call options from the global flags.
func (a *app) callOptions(extra ...rushdb.CallOption) []rushdb.CallOption {
	var opts []rushdb.CallOption
	if a.txID != "" {
		opts = append(opts, rushdb.InTxID(a.txID))
	}
	return append(opts, extra...)
}

// parseTarget accepts record ids, or a JSON object or list of objects
// carrying __id.
func parseTarget(args []string) (any, error) {
	if len(args) != 1 {
		return args, nil
	}
	s := strings.TrimSpace(args[0])
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return s, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", s, err)
	}
	return v, nil
}

// mutationOutput prints the outcome of a write.
func (a *app) mutationOutput(cmd *cobra.Command, res *rushdb.MutationResult, what string) error {
	if a.format == cli.FormatYAML && a.jq == "" {
		if res.Success {
			cli.PrintSuccess(cmd.ErrOrStderr(), "%s", what)
		} else {
			cli.PrintWarning(cmd.ErrOrStderr(), "%s: %s", what, res.Message)
		}
	}
	return a.outputResult(cmd.OutOrStdout(), res)
}
