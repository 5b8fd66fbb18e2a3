package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Theme defines the colors of table output.
type Theme struct {
	Primary lipgloss.Color // Header and border color
	Dim     lipgloss.Color // Reserved-field and empty-cell color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
	Dim    lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Dim:    lipgloss.NewStyle().Foreground(t.Dim).Padding(0, 1),
	}
}

// maxCellWidth bounds nested values rendered into a cell.
const maxCellWidth = 48

// outputTable renders a normalized value. Lists of objects become one row
// per object, an object with a "data" list renders that list, any other
// object becomes a key/value table and scalars are printed as is.
func outputTable(w io.Writer, v any, s Styles) error {
	if m, ok := v.(map[string]any); ok {
		if rows, ok := m["data"].([]any); ok {
			v = rows
		}
	}

	var t *table.Table
	switch x := v.(type) {
	case []any:
		if len(x) == 0 {
			_, err := fmt.Fprintln(w, "(no results)")
			return err
		}
		columns := tableColumns(x)
		t = newTable(s, columns)
		for _, item := range x {
			row := make([]string, len(columns))
			obj, isObj := item.(map[string]any)
			for i, col := range columns {
				switch {
				case isObj:
					row[i] = cell(obj[col])
				case col == "value":
					row[i] = cell(item)
				}
			}
			t.Row(row...)
		}
	case map[string]any:
		t = newTable(s, []string{"key", "value"})
		keys := orderedKeys(x)
		for _, k := range keys {
			t.Row(k, cell(x[k]))
		}
	default:
		_, err := fmt.Fprintln(w, cell(v))
		return err
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func newTable(s Styles, headers []string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			if col < len(headers) && strings.HasPrefix(headers[col], "__") {
				return s.Dim
			}
			return s.Cell
		})
}

// tableColumns returns the union of object keys with the record id and
// label first. Lists of scalars get a single "value" column.
func tableColumns(items []any) []string {
	seen := map[string]bool{}
	var keys []string
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for k := range obj {
			if k == "__proptypes" || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return []string{"value"}
	}
	return orderKeys(keys)
}

func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return orderKeys(keys)
}

func orderKeys(keys []string) []string {
	rank := func(k string) int {
		switch k {
		case "__id":
			return 0
		case "__label":
			return 1
		}
		return 2
	}
	slices.SortFunc(keys, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	return keys
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return truncateString(string(data), maxCellWidth)
	}
	return fmt.Sprint(v)
}

// truncateString safely truncates a string to the given width,
// handling multi-byte characters correctly.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	currentWidth := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if currentWidth+w > width-1 {
			return string(runes[:i]) + "…"
		}
		currentWidth += w
	}
	return s
}
