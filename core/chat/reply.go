package chat

import (
	"bytes"
	"encoding/json"
)

// ReplyKind discriminates the shapes a classification reply is decoded into.
type ReplyKind int

const (
	// PlainText: the reply is displayed as-is.
	PlainText ReplyKind = iota
	// StructuredAnswer: the reply had a `response.answer` field and optional figures.
	StructuredAnswer
)

func (k ReplyKind) String() string {
	if k == StructuredAnswer {
		return "structured_answer"
	}
	return "plain_text"
}

// Reply is the normalized classification reply.
type Reply struct {
	Kind    ReplyKind
	Text    string
	Figures []string // StructuredAnswer only; base64 payloads or URLs
}

// Attachments turns the reply's figures into image attachments, preserving their order.
func (r Reply) Attachments() []Attachment {
	if len(r.Figures) == 0 {
		return nil
	}
	ats := make([]Attachment, 0, len(r.Figures))
	for _, fig := range r.Figures {
		src := NormalizeImageSource(fig)
		if src == "" {
			continue
		}
		ats = append(ats, Attachment{URL: src})
	}
	if len(ats) == 0 {
		return nil
	}
	return ats
}

type structuredPayload struct {
	Response *struct {
		Answer  *string         `json:"answer"`
		Figures json.RawMessage `json:"figures"`
	} `json:"response"`
}

// DecodeReply turns a raw classification body of unknown shape into a single display string.
// Shapes are tried in order:
//   - {"response": {"answer": "...", "figures": [...]}}
//   - a bare JSON string
//   - an object with a single key whose value is a string
//   - any other JSON (displayed compacted)
//   - a body that is not JSON at all (displayed raw)
func DecodeReply(body []byte) Reply {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) || len(trimmed) == 0 {
		return Reply{Kind: PlainText, Text: string(body)}
	}

	var payload structuredPayload
	if err := json.Unmarshal(trimmed, &payload); err == nil && payload.Response != nil && payload.Response.Answer != nil {
		return Reply{
			Kind:    StructuredAnswer,
			Text:    *payload.Response.Answer,
			Figures: decodeFigures(payload.Response.Figures),
		}
	}

	var str string
	if err := json.Unmarshal(trimmed, &str); err == nil {
		return Reply{Kind: PlainText, Text: str}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err == nil && len(obj) == 1 {
		for _, v := range obj {
			if err := json.Unmarshal(v, &str); err == nil {
				return Reply{Kind: PlainText, Text: str}
			}
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return Reply{Kind: PlainText, Text: string(body)}
	}
	return Reply{Kind: PlainText, Text: buf.String()}
}

// decodeFigures keeps the string entries of a figures list; anything else is ignored.
func decodeFigures(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err == nil && single != "" {
			return []string{single}
		}
		return nil
	}
	figs := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil && s != "" {
			figs = append(figs, s)
		}
	}
	if len(figs) == 0 {
		return nil
	}
	return figs
}
