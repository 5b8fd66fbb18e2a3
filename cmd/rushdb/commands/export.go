package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/rushdb-go/pkg/cli"
	"github.com/haivivi/rushdb-go/pkg/rushdb"
	"github.com/haivivi/rushdb-go/pkg/storage"
)

// exportStats is printed after an export.
type exportStats struct {
	URI     string `json:"uri"`
	Format  string `json:"format"`
	Records int    `json:"records"`
	Size    string `json:"size"`
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func newRecordsExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export records matching a query to a file",
		Long: `Export every record matching the query to a local file or an S3
object. The format follows the file extension (.json, .jsonl or .csv)
unless --format is given.

Examples:
  rushdb records export users.json --label USER
  rushdb records export s3://my-bucket/exports/books.csv -f books.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := args[0]
			format, _ := cmd.Flags().GetString("format")
			if format == "" {
				format = strings.TrimPrefix(path.Ext(uri), ".")
			}
			switch format {
			case "json", "jsonl", "csv":
			default:
				return fmt.Errorf("unsupported export format %q (want json, jsonl or csv)", format)
			}

			q, err := a.loadQuery(cmd)
			if err != nil {
				return err
			}
			pageSize, _ := cmd.Flags().GetInt("page-size")
			client, err := a.createClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var recs []*rushdb.Record
			for rec, err := range client.Records.Iterate(ctx, q, pageSize, a.callOptions()...) {
				if err != nil {
					return fmt.Errorf("search records failed: %w", err)
				}
				recs = append(recs, rec)
			}

			store, name, err := storage.OpenFile(ctx, uri)
			if err != nil {
				return err
			}
			w, err := store.Write(ctx, name)
			if err != nil {
				return fmt.Errorf("cannot create %s: %w", uri, err)
			}
			cw := &countingWriter{w: w}
			if err := writeRecords(cw, format, recs); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("cannot write %s: %w", uri, err)
			}

			a.logger.Debug("export finished", "uri", uri, "records", len(recs), "bytes", cw.n)
			return a.outputResult(cmd.OutOrStdout(), exportStats{
				URI:     uri,
				Format:  format,
				Records: len(recs),
				Size:    cli.FormatBytes(cw.n),
			})
		},
	}
	addQueryFlags(cmd)
	cmd.Flags().String("format", "", "json, jsonl or csv")
	cmd.Flags().Int("page-size", 500, "records per request")
	return cmd
}

func writeRecords(w io.Writer, format string, recs []*rushdb.Record) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if recs == nil {
			recs = []*rushdb.Record{}
		}
		return enc.Encode(recs)
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, r := range recs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	return writeCSV(w, recs)
}

// writeCSV writes __id, __label and the union of user fields. Nested values
// are written as JSON.
func writeCSV(w io.Writer, recs []*rushdb.Record) error {
	var fields []string
	seen := map[string]bool{}
	for _, r := range recs {
		for k := range r.Fields() {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	slices.Sort(fields)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{rushdb.FieldRecordID, rushdb.FieldLabel}, fields...)); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{r.ID(), r.Label()}
		for _, f := range fields {
			v, _ := r.Get(f)
			row = append(row, csvValue(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64, bool:
		return fmt.Sprint(x)
	}
	b, _ := json.Marshal(v)
	return string(b)
}
