package chat

import (
	"regexp"
	"strconv"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Format tells the client how View.HTML is to be displayed.
type Format string

const (
	FormatText   Format = "text"   // linkified text, whitespace preserved
	FormatMarkup Format = "markup" // sanitized HTML fragments
)

// AttachmentView is an Attachment as displayed.
type AttachmentView struct {
	Attachment
	IsImage bool `json:"is_image"`
	// Download is set for non-image attachments; it is relative to the message.
	Download string `json:"download,omitempty"`
}

// View is a display-ready Message.
type View struct {
	ID          string           `json:"id"`
	Role        Role             `json:"role"`
	Content     string           `json:"content"`
	Format      Format           `json:"format"`
	HTML        string           `json:"html"`
	IsError     bool             `json:"is_error,omitempty"`
	Table       *Table           `json:"table,omitempty"`
	Chart       *BarChart        `json:"chart,omitempty"`
	Attachments []AttachmentView `json:"attachments,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Renderer turns messages into views.
type Renderer struct {
	parser TableParser
	policy *bluemonday.Policy
}

// NewRenderer returns a Renderer using parser for HTML tables (DefaultTableParser if nil).
func NewRenderer(parser TableParser) *Renderer {
	if parser == nil {
		parser = DefaultTableParser
	}
	return &Renderer{parser: parser, policy: newMarkupPolicy()}
}

func newMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataURIImages()
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w\- ]+$`)).OnElements("div", "span", "table")
	return p
}

// Render builds the View of msg: user messages and plain assistant text are linkified,
// rich assistant content is converted to sanitized markup. A table found in assistant
// content is attached, with its bar chart unless the message already embeds a chart image.
func (r *Renderer) Render(msg Message) View {
	v := View{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		Format:    FormatText,
		IsError:   msg.IsError,
		CreatedAt: msg.CreatedAt,
	}

	if msg.Role != RoleAssistant || msg.IsError {
		v.HTML = Linkify(msg.Content)
		return v
	}

	if IsRichMarkup(msg.Content) {
		v.Format = FormatMarkup
		v.HTML = r.policy.Sanitize(ToMarkup(msg.Content))
	} else {
		v.HTML = Linkify(msg.Content)
	}

	if tbl, ok := extractTable(msg.Content, r.parser); ok {
		v.Table = &tbl
		if !HasEmbeddedChart(msg) {
			if chart, ok := BuildBarChart(tbl); ok {
				v.Chart = &chart
			}
		}
	}

	for i, at := range msg.Attachments {
		av := AttachmentView{Attachment: at, IsImage: at.IsImage()}
		if !av.IsImage {
			av.Download = attachmentPath(i)
		}
		v.Attachments = append(v.Attachments, av)
	}
	return v
}

// RenderAll renders a transcript.
func (r *Renderer) RenderAll(msgs []Message) []View {
	views := make([]View, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, r.Render(m))
	}
	return views
}

func attachmentPath(i int) string {
	return "attachments/" + strconv.Itoa(i)
}
