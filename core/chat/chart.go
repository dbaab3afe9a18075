package chat

import (
	"fmt"
	"strings"
)

const blankLabel = "(blank)"

// Bar is one category of a BarChart. Width is a percentage of the largest bar.
type Bar struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Width float64 `json:"width"`
}

// BarChart is a horizontal bar visualization derived from a Table column.
type BarChart struct {
	Column string `json:"column"`
	Bars   []Bar  `json:"bars"`
}

// GroupingColumn picks the column a chart counts values of: a `status` column by
// preference, else a `date` column, else the last column.
func GroupingColumn(headers []string) int {
	if len(headers) == 0 {
		return -1
	}
	tbl := Table{Headers: headers}
	if i := tbl.Column(func(h string) bool { return h == "status" }); i >= 0 {
		return i
	}
	if i := tbl.Column(func(h string) bool { return strings.Contains(h, "status") }); i >= 0 {
		return i
	}
	if i := tbl.Column(func(h string) bool { return h == "date" }); i >= 0 {
		return i
	}
	if i := tbl.Column(func(h string) bool { return strings.Contains(h, "date") }); i >= 0 {
		return i
	}
	return len(headers) - 1
}

// BuildBarChart counts the distinct (lower-cased) values of the grouping column.
// Bars keep the order in which their value first appears.
func BuildBarChart(tbl Table) (BarChart, bool) {
	col := GroupingColumn(tbl.Headers)
	if col < 0 || len(tbl.Rows) == 0 {
		return BarChart{}, false
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, row := range tbl.Rows {
		label := blankLabel
		if col < len(row) {
			if v := strings.ToLower(strings.TrimSpace(row[col])); v != "" {
				label = v
			}
		}
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}

	chart := BarChart{
		Column: tbl.Headers[col],
		Bars:   make([]Bar, 0, len(order)),
	}
	for _, label := range order {
		chart.Bars = append(chart.Bars, Bar{
			Label: label,
			Count: counts[label],
			Width: float64(counts[label]) / float64(max) * 100,
		})
	}
	return chart, true
}

// Text renders the chart with block characters, width columns for the largest bar.
func (c BarChart) Text(width int) string {
	if width <= 0 {
		width = 40
	}
	labelW := 0
	for _, b := range c.Bars {
		if len(b.Label) > labelW {
			labelW = len(b.Label)
		}
	}
	var sb strings.Builder
	for _, b := range c.Bars {
		n := int(b.Width / 100 * float64(width))
		if n == 0 && b.Count > 0 {
			n = 1
		}
		fmt.Fprintf(&sb, "%-*s %s %d\n", labelW, b.Label, strings.Repeat("█", n), b.Count)
	}
	return sb.String()
}
