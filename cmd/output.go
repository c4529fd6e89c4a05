package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/kiln/internal/config"
	kerrors "github.com/conneroisu/kiln/internal/errors"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return kerrors.NewValidationError(kerrors.ErrCodeValidationFailed,
			fmt.Sprintf("unsupported format: %s (supported: table, json, yaml)", format))
	}
}

// writeStructured writes data as indented JSON or YAML.
func writeStructured(w io.Writer, format string, data any) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case formatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return checkFormat(format)
	}
}

// newTable creates a table writing to w with standard styling.
func newTable(w io.Writer, columns ...string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(columns))
	for _, column := range columns {
		header = append(header, text.FgHiCyan.Sprint(column))
	}
	t.AppendHeader(header)

	return t
}

// writeSettingsTable renders a configuration map as sorted KEY/VALUE rows.
func writeSettingsTable(w io.Writer, settings map[string]any) {
	flat := config.FlattenMap(settings)

	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	t := newTable(w, "KEY", "VALUE")
	for _, key := range keys {
		t.AppendRow(table.Row{key, formatValue(flat[key])})
	}
	t.Render()
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any, map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}
