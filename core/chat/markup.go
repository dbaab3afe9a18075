package chat

import (
	"fmt"
	stdhtml "html"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	headingLineRegex = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+\S`)
	headingRegex     = regexp.MustCompile(`^\s{0,3}(#{1,6})\s+(.*?)\s*#*\s*$`)
	ruleRegex        = regexp.MustCompile(`^\s{0,3}(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)
	urlRegex         = regexp.MustCompile(`https?://[^\s<>"']+[^\s<>"'.,;:!?)\]}]`)
	tagRegex         = regexp.MustCompile(`<[^>]*>`)

	// block-level fragments passed through untouched by ToMarkup
	blockTags = map[atom.Atom]bool{
		atom.P: true, atom.Div: true, atom.Table: true, atom.Thead: true, atom.Tbody: true,
		atom.Tr: true, atom.Th: true, atom.Td: true, atom.H1: true, atom.H2: true, atom.H3: true,
		atom.H4: true, atom.H5: true, atom.H6: true, atom.Hr: true, atom.Ul: true, atom.Ol: true,
		atom.Li: true, atom.Pre: true, atom.Blockquote: true, atom.Figure: true, atom.Img: true,
		atom.Section: true, atom.Br: true,
	}
	voidTags = map[atom.Atom]bool{atom.Br: true, atom.Hr: true, atom.Img: true}
)

// IsRichMarkup reports whether content should be rendered as markup rather than plain
// linkified text: it holds a <table>, <img> or <div> tag, a data-image URI, a markdown
// image or a markdown heading line. This is a heuristic; it never fails.
func IsRichMarkup(content string) bool {
	if strings.Contains(content, "data:image/") ||
		markdownImageRegex.MatchString(content) ||
		headingLineRegex.MatchString(content) {
		return true
	}
	if !strings.Contains(content, "<") {
		return false
	}

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Table, atom.Img, atom.Div:
				return true
			}
		}
	}
}

// startsWithBlockTag reports whether s opens with a block-level HTML element.
func startsWithBlockTag(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(s))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
		name, _ := z.TagName()
		return blockTags[atom.Lookup(name)]
	}
	return false
}

// ToMarkup converts markdown-ish content into HTML fragments: headings, horizontal rules,
// paragraphs (blank-line separated), images and bare URLs. Lines that already are HTML
// are passed through along with the lines of any block element they leave open, so
// converting its own output again changes nothing.
// The conversion is lossy and best-effort; it is not a markdown parser.
func ToMarkup(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var (
		frags []string
		para  []string
		open  int // block elements left open by passed-through lines
	)
	flush := func() {
		if len(para) > 0 {
			frags = append(frags, "<p>"+inlineMarkup(strings.Join(para, "\n"))+"</p>")
			para = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case open > 0:
			if strings.TrimSpace(line) != "" {
				frags = append(frags, strings.TrimRight(line, " \t"))
			}
			open = openBlocks(line, open)
		case strings.TrimSpace(line) == "":
			flush()
		case headingRegex.MatchString(line):
			flush()
			m := headingRegex.FindStringSubmatch(line)
			lvl := len(m[1])
			frags = append(frags, fmt.Sprintf("<h%d>%s</h%d>", lvl, inlineMarkup(m[2]), lvl))
		case ruleRegex.MatchString(line):
			flush()
			frags = append(frags, "<hr/>")
		case startsWithBlockTag(line):
			flush()
			frags = append(frags, strings.TrimSpace(line))
			open = openBlocks(line, 0)
		default:
			para = append(para, strings.TrimRight(line, " \t"))
		}
	}
	flush()
	return strings.Join(frags, "\n")
}

// openBlocks returns the number of block elements still open after line, starting from open.
func openBlocks(line string, open int) int {
	z := html.NewTokenizer(strings.NewReader(line))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return open
		case html.StartTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); blockTags[a] && !voidTags[a] {
				open++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if blockTags[atom.Lookup(name)] && open > 0 {
				open--
			}
		}
	}
}

// inlineMarkup rewrites markdown images into <img> tags, linkifies bare URLs outside of
// tags and anchors, and turns single newlines into <br/>.
func inlineMarkup(s string) string {
	s = markdownImageRegex.ReplaceAllStringFunc(s, func(match string) string {
		sub := markdownImageRegex.FindStringSubmatch(match)
		return fmt.Sprintf(`<img src="%s" alt="%s"/>`, stdhtml.EscapeString(sub[2]), stdhtml.EscapeString(sub[1]))
	})
	s = linkifyOutsideTags(s, false)
	return strings.ReplaceAll(s, "\n", "<br/>\n")
}

// Linkify escapes text for HTML display and wraps bare URLs into anchors.
func Linkify(text string) string {
	return linkifyOutsideTags(text, true)
}

// linkifyOutsideTags walks s segment by segment: tags are kept verbatim (unless escape is
// set, in which case everything is text) and URLs inside existing anchors are left alone.
func linkifyOutsideTags(s string, escape bool) string {
	var sb strings.Builder
	inAnchor := false

	writeText := func(text string) {
		if inAnchor {
			sb.WriteString(text)
			return
		}
		last := 0
		for _, loc := range urlRegex.FindAllStringIndex(text, -1) {
			sb.WriteString(escapeIf(text[last:loc[0]], escape))
			u := text[loc[0]:loc[1]]
			href := u
			if !escape {
				href = stdhtml.UnescapeString(u)
			}
			fmt.Fprintf(&sb, `<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
				stdhtml.EscapeString(href), escapeIf(u, escape))
			last = loc[1]
		}
		sb.WriteString(escapeIf(text[last:], escape))
	}

	if escape {
		writeText(s)
		return sb.String()
	}

	last := 0
	for _, loc := range tagRegex.FindAllStringIndex(s, -1) {
		writeText(s[last:loc[0]])
		tag := s[loc[0]:loc[1]]
		lower := strings.ToLower(tag)
		switch {
		case strings.HasPrefix(lower, "<a ") || lower == "<a>":
			inAnchor = true
		case strings.HasPrefix(lower, "</a"):
			inAnchor = false
		}
		sb.WriteString(tag)
		last = loc[1]
	}
	writeText(s[last:])
	return sb.String()
}

func escapeIf(s string, escape bool) string {
	if escape {
		return stdhtml.EscapeString(s)
	}
	return s
}
