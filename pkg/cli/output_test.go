package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"yaml", "json", "table", "raw"} {
		f, err := ParseOutputFormat(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, string(f))
	}
	f, _ := ParseOutputFormat("")
	assert.Equal(t, FormatYAML, f)
	_, err := ParseOutputFormat("xml")
	assert.Error(t, err)
}

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer

	data := map[string]any{
		"name":  "test",
		"value": 123,
	}

	require.NoError(t, Output(data, OutputOptions{
		Format: FormatJSON,
		Writer: &buf,
	}))

	var result map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "test", result["name"])
	assert.Contains(t, buf.String(), `"value": 123`, "integers should stay integral")
}

type marshalerOnly struct{ id string }

func (m marshalerOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"__id": m.id, "age": 42, "ratio": 0.5})
}

func TestOutput_YAMLUsesJSONForm(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Output(marshalerOnly{id: "r-1"}, OutputOptions{Writer: &buf}))

	out := buf.String()
	for _, want := range []string{"__id: r-1", "age: 42", "ratio: 0.5"} {
		assert.Contains(t, out, want)
	}
}

func TestOutput_Raw(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"bytes", []byte("raw binary data"), "raw binary data"},
		{"string", "raw string data", "raw string data\n"},
		{"raw json", json.RawMessage(`{"a":1}`), "{\"a\":1}\n"},
		{"other", map[string]int{"count": 42}, "{\"count\":42}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Output(tt.data, OutputOptions{Format: FormatRaw, Writer: &buf}))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestOutput_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Output("data", OutputOptions{
		Format: "invalid",
		Writer: &buf,
	})
	assert.Error(t, err)
}

func TestOutput_ToFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "output.json")

	require.NoError(t, Output(map[string]string{"key": "value"}, OutputOptions{
		Format: FormatJSON,
		File:   filePath,
	}))

	content, err := os.ReadFile(filePath)
	require.NoError(t, err)

	var result map[string]string
	require.NoError(t, json.Unmarshal(content, &result))
	assert.Equal(t, "value", result["key"])
}

func TestOutput_JQ(t *testing.T) {
	records := []map[string]any{
		{"__id": "a", "name": "Ann", "age": 31},
		{"__id": "b", "name": "Bo", "age": 25},
		{"__id": "c", "name": "Cy", "age": 40},
	}

	var buf bytes.Buffer
	require.NoError(t, Output(records, OutputOptions{
		Format: FormatJSON,
		Writer: &buf,
		JQ:     "map(select(.age > 30) | .name)",
	}))

	var got []string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"Ann", "Cy"}, got)

	buf.Reset()
	require.NoError(t, Output(records, OutputOptions{Format: FormatRaw, Writer: &buf, JQ: ".[].__id"}))
	assert.Equal(t, "[\"a\",\"b\",\"c\"]\n", buf.String(), "multiple results")
}

func TestRunJQ_Errors(t *testing.T) {
	_, err := RunJQ(".[", nil)
	assert.Error(t, err, "malformed program")
	_, err = RunJQ(`error("boom")`, map[string]any{})
	assert.Error(t, err, "runtime error")

	v, err := RunJQ("empty", map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNormalize(t *testing.T) {
	v, err := Normalize(json.RawMessage(`{"n":3,"f":1.25,"l":[1,{"x":null}]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"n": int64(3),
		"f": 1.25,
		"l": []any{int64(1), map[string]any{"x": nil}},
	}, v)
}

func TestOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	records := []map[string]any{
		{"__id": "id-1", "__label": "USER", "__proptypes": map[string]any{"name": "string"}, "name": "Ann", "tags": []any{"x"}},
		{"__id": "id-2", "__label": "USER", "email": "bo@example.com"},
	}

	require.NoError(t, Output(records, OutputOptions{Format: FormatTable, Writer: &buf}))

	out := buf.String()
	for _, want := range []string{"__id", "__label", "email", "name", "tags", "id-1", "bo@example.com", `["x"]`} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "__proptypes", "table should hide property types")
	assert.Less(t, strings.Index(out, "__id"), strings.Index(out, "email"), "__id should be the first column")
}

func TestOutput_TableShapes(t *testing.T) {
	tests := []struct {
		name string
		data any
		want []string
	}{
		{"search result", map[string]any{"data": []any{map[string]any{"__id": "r-9"}}, "total": 1}, []string{"r-9"}},
		{"object", map[string]any{"planType": "initial", "selfHosted": true}, []string{"key", "planType", "initial", "true"}},
		{"scalars", []string{"USER", "BOOK"}, []string{"value", "USER", "BOOK"}},
		{"empty", []any{}, []string{"(no results)"}},
		{"scalar", "ok", []string{"ok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Output(tt.data, OutputOptions{Format: FormatTable, Writer: &buf}))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc…", truncateString("abcdef", 4))
	assert.Equal(t, "abc", truncateString("abc", 4))
	assert.Equal(t, "你好…", truncateString("你好世界", 5))
}
