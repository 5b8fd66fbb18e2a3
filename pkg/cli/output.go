package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/itchyny/gojq"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatYAML outputs as YAML (default for terminal)
	FormatYAML OutputFormat = "yaml"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatTable outputs as formatted table
	FormatTable OutputFormat = "table"
	// FormatRaw outputs raw data
	FormatRaw OutputFormat = "raw"
)

// ParseOutputFormat validates a -o flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatYAML, FormatJSON, FormatTable, FormatRaw:
		return f, nil
	case "":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want yaml, json, table or raw)", s)
}

// OutputOptions configures output behavior
type OutputOptions struct {
	// Format is the output format (yaml, json, table, raw)
	Format OutputFormat

	// File is the output file path (empty for stdout)
	File string

	// Indent is the indentation for JSON output
	Indent string

	// JQ is a jq program applied to the JSON form of the result before it
	// is formatted.
	JQ string

	// Writer is an optional custom writer (overrides File)
	Writer io.Writer

	// Theme styles table output. The zero value uses DefaultTheme.
	Theme *Theme
}

// Output writes the result to the configured destination
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout

	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if opts.Format == FormatRaw && opts.JQ == "" {
		return outputRaw(w, result)
	}

	v, err := Normalize(result)
	if err != nil {
		return err
	}
	if opts.JQ != "" {
		if v, err = RunJQ(opts.JQ, v); err != nil {
			return err
		}
	}

	switch opts.Format {
	case FormatJSON:
		return outputJSON(w, v, opts.Indent)
	case FormatYAML, "":
		return outputYAML(w, v)
	case FormatTable:
		theme := DefaultTheme
		if opts.Theme != nil {
			theme = *opts.Theme
		}
		return outputTable(w, v, NewStyles(theme))
	case FormatRaw:
		return outputRaw(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// Normalize converts result to plain JSON values: map[string]any, []any,
// string, bool, nil, int64 for integral numbers and float64 otherwise.
// Types with custom JSON encoders, such as records and where-clauses, are
// flattened through their JSON form.
func Normalize(result any) (any, error) {
	var data []byte
	switch r := result.(type) {
	case json.RawMessage:
		data = r
	case []byte:
		data = r
	default:
		var err error
		if data, err = json.Marshal(result); err != nil {
			return nil, fmt.Errorf("failed to encode output: %w", err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}
	return fromNumbers(v), nil
}

func fromNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = fromNumbers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = fromNumbers(e)
		}
	}
	return v
}

// RunJQ runs program against a normalized value. A single result is
// returned as is; several results are returned as a list.
func RunJQ(program string, input any) (any, error) {
	query, err := gojq.Parse(program)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", program, err)
	}

	var results []any
	iter := query.Run(jqInput(input))
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			if err, ok := err.(*gojq.HaltError); ok && err.Value() == nil {
				break
			}
			return nil, fmt.Errorf("jq error: %w", err)
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	}
	return results, nil
}

// jqInput converts int64 to int, which gojq accepts.
func jqInput(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = jqInput(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jqInput(e)
		}
		return out
	}
	return v
}

func outputJSON(w io.Writer, result any, indent string) error {
	enc := json.NewEncoder(w)
	if indent == "" {
		indent = "  "
	}
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func outputRaw(w io.Writer, result any) error {
	switch v := result.(type) {
	case json.RawMessage:
		_, err := fmt.Fprintln(w, string(v))
		return err
	case []byte:
		_, err := w.Write(v)
		return err
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	default:
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
}

// PrintSuccess prints a success message with checkmark
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "⚠ "+format+"\n", args...)
}
