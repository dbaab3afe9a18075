// Package chat holds the chat widget's domain: the transcript model, the decoding of
// classification replies and the pipeline that turns assistant content into display views.
package chat

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment is a file referenced by an assistant reply.
// URL is either a direct HTTP(S) link or a data URI.
type Attachment struct {
	URL         string `json:"url"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// IsImage reports whether the attachment should be displayed inline rather than downloaded.
func (at Attachment) IsImage() bool {
	if strings.HasPrefix(at.ContentType, "image/") || strings.HasPrefix(at.URL, "data:image/") {
		return true
	}
	name := at.Filename
	if name == "" {
		name = at.URL
		if i := strings.IndexAny(name, "?#"); i >= 0 {
			name = name[:i]
		}
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp":
		return true
	}
	return false
}

// Message is an entry of a session transcript. Messages are never mutated once appended.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	IsError     bool         `json:"is_error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"` // UTC
}

func newMessage(role Role, content string, attachments []Attachment) Message {
	return Message{
		ID:          uuid.New().String(),
		Role:        role,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewUserMessage returns a user message holding the query as typed.
func NewUserMessage(query string) Message {
	return newMessage(RoleUser, query, nil)
}

// NewAssistantMessage returns an assistant message whose content no longer carries
// inline images that duplicate one of the attachments.
func NewAssistantMessage(content string, attachments []Attachment) Message {
	return newMessage(RoleAssistant, StripDuplicateImages(content, attachments), attachments)
}

// NewErrorMessage returns an assistant message reporting a failed exchange.
func NewErrorMessage(notice string) Message {
	msg := newMessage(RoleAssistant, notice, nil)
	msg.IsError = true
	return msg
}

// Attachment returns the attachment at index i of the message.
func (m Message) Attachment(i int) (Attachment, error) {
	if i < 0 || i >= len(m.Attachments) {
		return Attachment{}, ErrAttachmentNotFound
	}
	return m.Attachments[i], nil
}
