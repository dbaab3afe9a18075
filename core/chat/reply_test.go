package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Reply
	}{
		{
			name: "structured answer",
			body: `{"response":{"answer":"Hi there"}}`,
			want: Reply{Kind: StructuredAnswer, Text: "Hi there"},
		},
		{
			name: "structured answer with figures",
			body: `{"response":{"answer":"see chart","figures":["AAAA","https://x.io/a.png", 3]}}`,
			want: Reply{Kind: StructuredAnswer, Text: "see chart", Figures: []string{"AAAA", "https://x.io/a.png"}},
		},
		{
			name: "structured answer with a single figure",
			body: `{"response":{"answer":"","figures":"AAAA"}}`,
			want: Reply{Kind: StructuredAnswer, Text: "", Figures: []string{"AAAA"}},
		},
		{
			name: "bare string",
			body: `"just text"`,
			want: Reply{Kind: PlainText, Text: "just text"},
		},
		{
			name: "single-key wrapper",
			body: `{"result": "wrapped"}`,
			want: Reply{Kind: PlainText, Text: "wrapped"},
		},
		{
			name: "response without answer falls through",
			body: `{"response": {"text": "x"}}`,
			want: Reply{Kind: PlainText, Text: `{"response":{"text":"x"}}`},
		},
		{
			name: "other json compacted",
			body: "{\"a\": 1,\n \"b\": [true, null]}",
			want: Reply{Kind: PlainText, Text: `{"a":1,"b":[true,null]}`},
		},
		{
			name: "number",
			body: `42`,
			want: Reply{Kind: PlainText, Text: `42`},
		},
		{
			name: "not json",
			body: "Internal <b>oops</b>",
			want: Reply{Kind: PlainText, Text: "Internal <b>oops</b>"},
		},
		{
			name: "empty",
			body: "",
			want: Reply{Kind: PlainText, Text: ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeReply([]byte(tt.body)))
		})
	}
}

func TestReply_Attachments(t *testing.T) {
	r := Reply{Kind: StructuredAnswer, Figures: []string{"AAAA", " https://x.io/a.png ", "data:image/jpeg;base64,BBBB"}}
	assert.Equal(t, []Attachment{
		{URL: "data:image/png;base64,AAAA"},
		{URL: "https://x.io/a.png"},
		{URL: "data:image/jpeg;base64,BBBB"},
	}, r.Attachments())

	assert.Nil(t, Reply{Kind: PlainText, Text: "x"}.Attachments())
}

func TestReplyKind_String(t *testing.T) {
	assert.Equal(t, "plain_text", PlainText.String())
	assert.Equal(t, "structured_answer", StructuredAnswer.String())
}
