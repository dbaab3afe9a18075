package chat

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is tabular content found in a message.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// TableParser extracts the first table of an HTML fragment.
type TableParser interface {
	ParseTable(html string) (Table, bool)
}

var (
	tableTagRegex     = regexp.MustCompile(`(?i)<table\b`)
	pipeSeparatorLine = regexp.MustCompile(`^[\s|:\-]+$`)

	// DefaultTableParser is the parser used by ExtractTable.
	DefaultTableParser TableParser = HTMLTableParser{}
)

// HTMLTableParser parses tables with goquery (golang.org/x/net/html underneath).
type HTMLTableParser struct{}

var _ TableParser = HTMLTableParser{}

// ParseTable reads the first <table> of html.
// Headers come from <thead><th> when present, else from the first row;
// body rows are the remaining rows, in source order.
func (HTMLTableParser) ParseTable(html string) (Table, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Table{}, false
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return Table{}, false
	}

	var tbl Table
	// rows of this table only (nested tables keep their own rows)
	rows := table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(table)
	})
	if rows.Length() == 0 {
		return Table{}, false
	}

	if ths := table.ChildrenFiltered("thead").Find("th"); ths.Length() > 0 {
		tbl.Headers = cellTexts(ths)
		rows = rows.FilterFunction(func(_ int, tr *goquery.Selection) bool {
			return tr.ParentsFiltered("thead").Length() == 0
		})
	} else {
		tbl.Headers = cellTexts(rows.First().ChildrenFiltered("th, td"))
		rows = rows.Slice(1, goquery.ToEnd)
	}

	rows.Each(func(_ int, tr *goquery.Selection) {
		tbl.Rows = append(tbl.Rows, cellTexts(tr.ChildrenFiltered("th, td")))
	})
	if len(tbl.Headers) == 0 || len(tbl.Rows) == 0 {
		return Table{}, false
	}
	return tbl, true
}

func cellTexts(cells *goquery.Selection) []string {
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, strings.Join(strings.Fields(cell.Text()), " "))
	})
	return texts
}

// ParsePipeTable reads a pipe-delimited table: the first non-empty line holding a pipe is
// the header, an optional separator line (dashes/colons/pipes only) right after it is
// skipped, and the following pipe lines are data rows.
func ParsePipeTable(text string) (Table, bool) {
	var tbl Table
	headerFound := false
	expectSeparator := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "|") {
			expectSeparator = false
			continue
		}
		if !headerFound {
			if pipeSeparatorLine.MatchString(line) {
				continue
			}
			tbl.Headers = splitPipeLine(line)
			headerFound = true
			expectSeparator = true
			continue
		}
		if expectSeparator && pipeSeparatorLine.MatchString(line) {
			expectSeparator = false
			continue
		}
		expectSeparator = false
		tbl.Rows = append(tbl.Rows, splitPipeLine(line))
	}

	if len(tbl.Headers) == 0 || len(tbl.Rows) == 0 {
		return Table{}, false
	}
	return tbl, true
}

func splitPipeLine(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// ExtractTable looks for an HTML table first, then for a pipe-delimited one.
func ExtractTable(content string) (Table, bool) {
	return extractTable(content, DefaultTableParser)
}

func extractTable(content string, parser TableParser) (Table, bool) {
	if tableTagRegex.MatchString(content) {
		if tbl, ok := parser.ParseTable(content); ok {
			return tbl, true
		}
	}
	return ParsePipeTable(content)
}

// Column returns the index of the first header satisfying match, or -1.
func (t Table) Column(match func(header string) bool) int {
	for i, h := range t.Headers {
		if match(strings.ToLower(strings.TrimSpace(h))) {
			return i
		}
	}
	return -1
}

// Markdown renders the table as a pipe-delimited markdown table.
func (t Table) Markdown() string {
	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(strings.ReplaceAll(c, "|", `\|`))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}
	writeRow(t.Headers)
	sep := make([]string, len(t.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, r := range t.Rows {
		writeRow(r)
	}
	return sb.String()
}
