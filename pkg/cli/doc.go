// Package cli provides the configuration, input and output plumbing of the
// rushdb command-line tool.
//
// This package includes:
//   - Contexts: named deployments with their API key, kept in
//     ~/.rushdb/config.yaml and overridable with RUSHDB_API_KEY and
//     RUSHDB_BASE_URL
//   - Request loading from YAML or JSON files and stdin, repairing
//     malformed JSON
//   - Output as YAML, JSON, tables or raw text, optionally filtered with jq
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("")
//	ctx, err := cfg.ResolveContext("")
//
//	cli.Output(records, cli.OutputOptions{
//	    Format: cli.FormatTable,
//	    JQ:     "map(select(.age > 30))",
//	})
package cli
