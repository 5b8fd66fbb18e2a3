package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/cli"
)

// app carries the global flags and state shared by all commands.
type app struct {
	// Global flags
	cfgFile     string
	contextName string
	output      string
	jq          string
	inputFile   string
	txID        string
	verbose     bool

	cfg    *cli.Config
	format cli.OutputFormat
	logger *slog.Logger
}

// Execute builds the command tree and runs it with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd returns a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rushdb",
		Short: "RushDB API CLI tool",
		Long: `RushDB CLI - A command line interface for the RushDB graph database.

Records are JSON-like objects with a label. Relationships connect records.
Searches use a where-clause of fields, operators ($gt, $in, ...), logical
groups ($and, $or, ...) and related labels (upper-case keys).

Configuration is stored in ~/.rushdb/config.yaml and supports multiple
contexts, similar to kubectl's context management. RUSHDB_API_KEY,
RUSHDB_BASE_URL and RUSHDB_TIMEOUT override the selected context.

Examples:
  # Set up a new context
  rushdb config add-context cloud --api-key YOUR_API_KEY

  # Search records
  rushdb records find -f query.yaml -o table

  # Pipe output through jq
  rushdb records find -f query.yaml --jq '.data[].name'
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ~/.rushdb/config.yaml)")
	pf.StringVarP(&a.contextName, "context", "c", "", "context name to use")
	pf.StringVarP(&a.output, "output", "o", "yaml", "output format: yaml, json, table or raw")
	pf.StringVar(&a.jq, "jq", "", "jq expression applied to the result")
	pf.StringVarP(&a.inputFile, "file", "f", "", "input request file (YAML or JSON, - for stdin)")
	pf.StringVar(&a.txID, "tx", "", "run the command inside this transaction")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newConfigCmd(a),
		newRecordsCmd(a),
		newLabelsCmd(a),
		newPropertiesCmd(a),
		newRelationshipsCmd(a),
		newTxCmd(a),
		newQueryCmd(a),
		newSnapshotCmd(a),
		newPingCmd(a),
		newTokenCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	format, err := cli.ParseOutputFormat(a.output)
	if err != nil {
		return err
	}
	a.format = format

	a.cfg, err = cli.LoadConfig(a.cfgFile)
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// getContext returns the context configuration to use
func (a *app) getContext() (*cli.Context, error) {
	ctx, err := a.cfg.ResolveContext(a.contextName)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("using context", "name", ctx.Name, "base_url", ctx.BaseURL)
	return ctx, nil
}

// outputResult writes result in the selected format.
func (a *app) outputResult(w io.Writer, result any) error {
	return cli.Output(result, cli.OutputOptions{
		Format: a.format,
		JQ:     a.jq,
		Writer: w,
	})
}
