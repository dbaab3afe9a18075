package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const anchorAttrs = `target="_blank" rel="noopener noreferrer"`

func TestIsRichMarkup(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"<table><tr><td>1</td></tr></table>", true},
		{`text <img src="https://x.io/a.png"> text`, true},
		{"<DIV class='x'>hi</DIV>", true},
		{"## Heading\nbody", true},
		{"intro\n# Title", true},
		{"![chart](https://x.io/c.png)", true},
		{"data:image/png;base64,AAAA", true},
		{"plain text where a < b and #hashtag", false},
		{"<b>bold</b> and <i>italics</i>", false},
		{"| a | b |\n|---|---|\n| 1 | 2 |", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRichMarkup(tt.content), tt.content)
	}
}

func TestToMarkup(t *testing.T) {
	content := "# Title\n\nHello https://x.io/a\nsecond line\n\n---\n\n![c](https://x.io/c.png)"
	want := strings.Join([]string{
		"<h1>Title</h1>",
		`<p>Hello <a href="https://x.io/a" ` + anchorAttrs + `>https://x.io/a</a><br/>`,
		`second line</p>`,
		"<hr/>",
		`<p><img src="https://x.io/c.png" alt="c"/></p>`,
	}, "\n")
	assert.Equal(t, want, ToMarkup(content))
}

func TestToMarkup_PassesHTMLBlocksThrough(t *testing.T) {
	content := "<table><tr><td>https://x.io</td></tr></table>\n\n### Next"
	assert.Equal(t, "<table><tr><td>https://x.io</td></tr></table>\n<h3>Next</h3>", ToMarkup(content))
}

func TestToMarkup_ConvertsMarkdownAfterHTMLLines(t *testing.T) {
	tests := []struct {
		name, content, want string
	}{
		{
			name:    "heading and url after a closed div",
			content: "<div>Summary</div>\n## Results\nsee https://x.io/a",
			want: strings.Join([]string{
				"<div>Summary</div>",
				"<h2>Results</h2>",
				`<p>see <a href="https://x.io/a" ` + anchorAttrs + `>https://x.io/a</a></p>`,
			}, "\n"),
		},
		{
			name:    "lines inside an open div are kept",
			content: "<div>\nintro https://x.io\n</div>\n## After",
			want:    "<div>\nintro https://x.io\n</div>\n<h2>After</h2>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToMarkup(tt.content)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ToMarkup(got))
		})
	}
}

func TestToMarkup_KeepsExistingAnchors(t *testing.T) {
	got := ToMarkup(`see <a href="https://x.io">https://x.io</a> now`)
	assert.Equal(t, `<p>see <a href="https://x.io">https://x.io</a> now</p>`, got)
	assert.Equal(t, 1, strings.Count(got, "<a "))
}

func TestToMarkup_Idempotent(t *testing.T) {
	inputs := []string{
		"# Title\n\nHello https://x.io/a\nsecond line\n\n---\n\n![c](https://x.io/c.png)",
		"one paragraph\n\ntwo paragraphs with https://example.com/page.",
		"<div>html</div>\n\nthen text",
		"<div>Summary</div>\n## Results\nsee https://x.io/a\nand more",
		"",
	}
	for _, in := range inputs {
		once := ToMarkup(in)
		twice := ToMarkup(once)
		assert.Equal(t, once, twice, in)
		assert.Equal(t, strings.Count(once, "<p>"), strings.Count(twice, "<p>"))
		assert.Equal(t, strings.Count(once, "<a "), strings.Count(twice, "<a "))
	}
}

func TestLinkify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"no links here", "no links here"},
		{
			"a < b https://x.io/?q=1&r=2.",
			`a &lt; b <a href="https://x.io/?q=1&amp;r=2" ` + anchorAttrs + `>https://x.io/?q=1&amp;r=2</a>.`,
		},
		{
			"(see http://x.io/a)",
			`(see <a href="http://x.io/a" ` + anchorAttrs + `>http://x.io/a</a>)`,
		},
		{"<script>alert(1)</script>", "&lt;script&gt;alert(1)&lt;/script&gt;"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Linkify(tt.in), tt.in)
	}
}
