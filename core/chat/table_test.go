package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLTableParser_ParseTable(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   Table
		wantOK bool
	}{
		{
			name: "thead and tbody",
			html: `<p>Results</p><table><thead><tr><th>ID</th><th> Status </th></tr></thead>
				<tbody><tr><td>1</td><td>open</td></tr><tr><td>2</td><td>closed</td></tr></tbody></table>`,
			want:   Table{Headers: []string{"ID", "Status"}, Rows: [][]string{{"1", "open"}, {"2", "closed"}}},
			wantOK: true,
		},
		{
			name:   "first row as headers",
			html:   `<table><tr><td>a</td><td>b</td><td>c</td></tr><tr><td>1</td><td>2</td><td>3</td></tr></table>`,
			want:   Table{Headers: []string{"a", "b", "c"}, Rows: [][]string{{"1", "2", "3"}}},
			wantOK: true,
		},
		{
			name:   "ragged rows keep their cell counts",
			html:   `<table><tr><th>a</th><th>b</th></tr><tr><td>1</td></tr><tr><td>2</td><td>3</td><td>4</td></tr></table>`,
			want:   Table{Headers: []string{"a", "b"}, Rows: [][]string{{"1"}, {"2", "3", "4"}}},
			wantOK: true,
		},
		{
			name: "nested table rows stay in their cell",
			html: `<table><tr><th>k</th><th>v</th></tr><tr><td>x</td><td><table><tr><td>in</td></tr></table></td></tr></table>`,
			want:   Table{Headers: []string{"k", "v"}, Rows: [][]string{{"x", "in"}}},
			wantOK: true,
		},
		{
			name: "header only",
			html: `<table><tr><th>a</th></tr></table>`,
		},
		{
			name: "empty table",
			html: `<table></table>`,
		},
		{
			name: "no table",
			html: `<div>nothing</div>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HTMLTableParser{}.ParseTable(tt.html)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePipeTable(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Table
		wantOK bool
	}{
		{
			name:   "without outer pipes",
			text:   "a|b|c\n---|---|---\n1|2|3",
			want:   Table{Headers: []string{"a", "b", "c"}, Rows: [][]string{{"1", "2", "3"}}},
			wantOK: true,
		},
		{
			name: "surrounded by text",
			text: "Here you go:\n\n| name | status |\n|:-----|-------:|\n| Ada  | Open   |\n| Bob  | Closed |\n\nAnything else?",
			want: Table{
				Headers: []string{"name", "status"},
				Rows:    [][]string{{"Ada", "Open"}, {"Bob", "Closed"}},
			},
			wantOK: true,
		},
		{
			name:   "no separator",
			text:   "| a | b |\n| 1 | 2 |",
			want:   Table{Headers: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}},
			wantOK: true,
		},
		{
			name: "dash rows after the separator are data",
			text: "name|status\n---|---\nAda|open\n-|-\nBob|closed",
			want: Table{
				Headers: []string{"name", "status"},
				Rows:    [][]string{{"Ada", "open"}, {"-", "-"}, {"Bob", "closed"}},
			},
			wantOK: true,
		},
		{
			name: "header only",
			text: "a|b\n---|---",
		},
		{
			name: "no pipes",
			text: "just some text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePipeTable(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractTable(t *testing.T) {
	tbl, ok := ExtractTable("<table><tr><th>html</th></tr><tr><td>1</td></tr></table>\n\npipe|x\n1|2")
	assert.True(t, ok)
	assert.Equal(t, []string{"html"}, tbl.Headers)

	// falls back to pipes when the html table is unusable
	tbl, ok = ExtractTable("<table></table>\npipe|x\n---|---\n1|2")
	assert.True(t, ok)
	assert.Equal(t, []string{"pipe", "x"}, tbl.Headers)

	_, ok = ExtractTable("Hi there")
	assert.False(t, ok)
}

func TestTable_Markdown(t *testing.T) {
	tbl := Table{Headers: []string{"a", "b"}, Rows: [][]string{{"1", "x|y"}}}
	assert.Equal(t, "| a | b |\n| --- | --- |\n| 1 | x\\|y |\n", tbl.Markdown())
}
