package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// Tabular is implemented by results with their own table layout.
type Tabular interface {
	Table() *Table
}

// TableFormatter formats data as an aligned text table.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats data as a table. Supported inputs are Table, Tabular,
// structs, maps and slices of those; other values fall back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	switch t := data.(type) {
	case *Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Tabular:
		return t.Table().RenderWithOptions(w, f.NoHeaders)
	}

	table, err := toTable(data)
	if err != nil {
		return (&JSONFormatter{}).Format(w, data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func toTable(data any) (*Table, error) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return &Table{}, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return sliceToTable(v)
	case reflect.Map:
		return mapToTable(v), nil
	case reflect.Struct:
		return structToTable(v), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

func sliceToTable(v reflect.Value) (*Table, error) {
	table := &Table{}
	if v.Len() == 0 {
		return table, nil
	}

	first := indirect(v.Index(0))
	if first.Kind() != reflect.Struct {
		table.Headers = []string{"VALUE"}
		for i := 0; i < v.Len(); i++ {
			table.AddRow(formatValue(v.Index(i)))
		}
		return table, nil
	}

	fields := exportedFields(first.Type())
	for _, f := range fields {
		table.Headers = append(table.Headers, strings.ToUpper(fieldName(f)))
	}
	for i := 0; i < v.Len(); i++ {
		elem := indirect(v.Index(i))
		row := make([]string, 0, len(fields))
		for _, f := range fields {
			row = append(row, formatValue(elem.FieldByIndex(f.Index)))
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func mapToTable(v reflect.Value) *Table {
	table := &Table{Headers: []string{"KEY", "VALUE"}}

	iter := v.MapRange()
	for iter.Next() {
		table.AddRow(formatValue(iter.Key()), formatValue(iter.Value()))
	}
	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i][0] < table.Rows[j][0] })
	return table
}

func structToTable(v reflect.Value) *Table {
	table := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, f := range exportedFields(v.Type()) {
		table.AddRow(fieldName(f), formatValue(v.FieldByIndex(f.Index)))
	}
	return table
}

func exportedFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("table") == "-" || f.Tag.Get("json") == "-" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// fieldName prefers the JSON name so table and JSON output agree.
func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name
		}
	}
	return f.Name
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	v = indirect(v)
	if (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil() {
		return ""
	}

	if s, ok := v.Interface().(fmt.Stringer); ok && v.Kind() != reflect.Struct {
		return s.String()
	}
	if t, ok := v.Interface().(time.Time); ok {
		if t.IsZero() {
			return "-"
		}
		return t.Format(time.RFC3339)
	}

	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "-"
		}
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", v.Float())
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		if (v.Kind() == reflect.Slice || v.Kind() == reflect.Map) && v.Len() == 0 {
			return "-"
		}
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return fmt.Sprintf("%v", v.Interface())
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
