package commands

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/cli"
	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Raw queries and query validation",
	}

	rawCmd := &cobra.Command{
		Use:   "raw <query>",
		Short: "Run a raw Cypher query",
		Long: `Run a raw Cypher query. This requires a managed or self-hosted
deployment. Parameters come from --params (JSON) or from the -f file.

Examples:
  rushdb query raw 'MATCH (n:USER) RETURN n LIMIT $limit' --params '{"limit":10}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params map[string]any
			if p, _ := cmd.Flags().GetString("params"); p != "" {
				if err := cli.ParseRequest([]byte(p), ".json", &params); err != nil {
					return fmt.Errorf("invalid --params: %w", err)
				}
			} else if a.inputFile != "" {
				if err := a.loadRequest(cmd, &params); err != nil {
					return err
				}
			}

			client, err := a.createClient()
			if err != nil {
				return err
			}
			if settings, ok := client.TokenSettings(); ok && !settings.CustomDB && !settings.ManagedDB && !settings.SelfHosted {
				a.logger.Warn("raw queries need a managed or self-hosted deployment", "plan", settings.PlanType)
			}
			res, err := client.Query.Raw(cmd.Context(), args[0], params, a.callOptions()...)
			if err != nil {
				return fmt.Errorf("raw query failed: %w", err)
			}
			return a.outputResult(cmd.OutOrStdout(), res)
		},
	}
	rawCmd.Flags().String("params", "", "query parameters as a JSON object")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a search query file without sending it",
		Long: `Check the -f file against the search query schema and the
where-clause grammar. Nothing is sent to the server.

Examples:
  rushdb query validate -f query.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireInputFile(); err != nil {
				return err
			}
			var doc any
			if err := a.loadRequest(cmd, &doc); err != nil {
				return err
			}
			q, err := validateQuery(doc)
			if err != nil {
				return err
			}
			if a.format == cli.FormatYAML && a.jq == "" {
				cli.PrintSuccess(cmd.ErrOrStderr(), "Query is valid")
			}
			return a.outputResult(cmd.OutOrStdout(), q)
		},
	}

	cmd.AddCommand(rawCmd, validateCmd)
	return cmd
}

var (
	querySchemaOnce sync.Once
	querySchema     *jsonschema.Resolved
	querySchemaErr  error
)

// searchQuerySchema describes the envelope of a search query. The contents
// of where are checked by rushdb.Where.Validate.
func searchQuerySchema() (*jsonschema.Resolved, error) {
	querySchemaOnce.Do(func() {
		zero := 0.0
		direction := &jsonschema.Schema{Type: "string", Enum: []any{"asc", "desc"}}
		s := &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"where":  {Type: "object"},
				"labels": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
				"skip":   {Type: "integer", Minimum: &zero},
				"limit":  {Type: "integer", Minimum: &zero},
				"orderBy": {AnyOf: []*jsonschema.Schema{
					direction,
					{Type: "object", AdditionalProperties: direction},
				}},
				"aggregate": {Type: "object"},
			},
			AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
		}
		querySchema, querySchemaErr = s.Resolve(nil)
	})
	return querySchema, querySchemaErr
}

// validateQuery checks doc against the query schema and decodes it.
func validateQuery(doc any) (rushdb.SearchQuery, error) {
	var q rushdb.SearchQuery

	// Round-trip through JSON so YAML input validates like JSON input.
	data, err := json.Marshal(doc)
	if err != nil {
		return q, fmt.Errorf("invalid query: %w", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return q, fmt.Errorf("invalid query: %w", err)
	}

	schema, err := searchQuerySchema()
	if err != nil {
		return q, err
	}
	if err := schema.Validate(instance); err != nil {
		return q, fmt.Errorf("invalid query: %w", err)
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return q, fmt.Errorf("invalid query: %w", err)
	}
	if err := q.Where.Validate(); err != nil {
		return q, err
	}
	return q, nil
}
