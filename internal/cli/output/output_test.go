package output

import (
	"bytes"
	"strings"
	"testing"
)

type row struct {
	Name   string `json:"name"`
	Score  int64  `json:"score"`
	Secret string `json:"-"`
}

type summary struct{}

func (s summary) Table() *Table {
	t := &Table{Headers: []string{"COUNT"}}
	t.AddRow("custom")
	return t
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TableFormatter); !ok {
		t.Error("expected TableFormatter as the default")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, FormatJSON, row{Name: "ada", Score: 42}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"name": "ada"`) || !strings.Contains(out, `"score": 42`) {
		t.Errorf("Format() = %s", out)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"game": "chess", "players": []row{{Name: "ada", Score: 1}}}
	if err := Print(&buf, FormatYAML, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"game: chess", "- name: ada", "score: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Secret") {
		t.Errorf("json:\"-\" field leaked into YAML:\n%s", out)
	}
}

func TestTableFormatter(t *testing.T) {
	tests := []struct {
		name    string
		data    any
		want    []string
		notWant []string
	}{
		{
			name: "slice of structs",
			data: []row{{Name: "ada", Score: 42}, {Name: "lin", Score: 7}},
			want: []string{"NAME", "SCORE", "ada", "42", "lin"},
		},
		{
			name:    "struct",
			data:    &row{Name: "ada", Score: 42, Secret: "x"},
			want:    []string{"FIELD", "name", "ada"},
			notWant: []string{"Secret"},
		},
		{
			name: "map sorted by key",
			data: map[string]int{"b": 2, "a": 1},
			want: []string{"KEY", "a  ", "b  "},
		},
		{
			name: "tabular",
			data: summary{},
			want: []string{"COUNT", "custom"},
		},
		{
			name: "scalar falls back to json",
			data: 42,
			want: []string{"42"},
		},
		{
			name: "empty string",
			data: row{},
			want: []string{"name   -"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&TableFormatter{}).Format(&buf, tt.data); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Format() missing %q in:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("Format() contains %q in:\n%s", w, out)
				}
			}
		})
	}
}

func TestTable_MapOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{NoHeaders: true}).Format(&buf, map[string]string{"z": "1", "a": "2"}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "a") {
		t.Errorf("rows = %q, want a before z without headers", lines)
	}
}

func TestTable_Render(t *testing.T) {
	table := &Table{}
	table.SetHeaders("A", "B")
	table.AddRow("1", "2")

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := buf.String(); got != "A  B\n1  2\n" {
		t.Errorf("Render() = %q", got)
	}
}
