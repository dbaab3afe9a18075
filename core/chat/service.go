package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/session"
)

var (
	// errors
	ErrBusy               = errors.New("a previous message is still awaiting its response")
	ErrMessageNotFound    = errors.New("message not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// StatusError is returned by a Classifier or Fetcher when the remote answered with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return e.Status
	}
	return fmt.Sprintf("%s: %s", e.Status, body)
}

// UnreachableError is returned when a remote endpoint could not be reached at all.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return "remote endpoint unreachable: " + errors.Cause(e.Err).Error()
}

type (
	// Query is what is sent to the classification endpoint.
	Query struct {
		Text   string
		UserID string
		Role   string
	}

	// Download is a retrieved attachment. The caller closes Body.
	Download struct {
		Body        io.ReadCloser
		ContentType string
		Filename    string
	}

	// Classifier sends free-text queries to the external classification endpoint.
	Classifier interface {
		// Classify returns the raw response body of a 2xx response, a *StatusError otherwise.
		Classify(ctx context.Context, q Query) ([]byte, error)
	}

	// Fetcher retrieves remote attachments with the configured credentials.
	Fetcher interface {
		Fetch(ctx context.Context, rawURL string) (Download, error)
	}

	TranscriptRepository interface {
		AppendMessages(ctx context.Context, sessionID string, msgs ...Message) error
		ListMessages(ctx context.Context, sessionID string) ([]Message, error)
		DeleteTranscript(ctx context.Context, sessionID string) error
	}

	HistoryRepository interface {
		AddEntry(ctx context.Context, entry HistoryEntry) error
		// FilterEntries returns the entries matching filter, newest first.
		FilterEntries(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error)
	}

	// Exchange is the result of a Send: the appended messages and, on failure, a notice for the user.
	Exchange struct {
		Messages []Message
		Notice   string
	}

	Service struct {
		classifier  Classifier
		fetcher     Fetcher
		transcripts TranscriptRepository
		history     HistoryRepository

		mu       sync.Mutex
		awaiting map[string]struct{} // session IDs with an in-flight query
	}
)

func NewService(classifier Classifier, fetcher Fetcher, transcripts TranscriptRepository, history HistoryRepository) *Service {
	return &Service{
		classifier:  classifier,
		fetcher:     fetcher,
		transcripts: transcripts,
		history:     history,
		awaiting:    make(map[string]struct{}),
	}
}

// idle -> awaiting-response
func (svc *Service) acquire(sessionID string) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if _, busy := svc.awaiting[sessionID]; busy {
		return false
	}
	svc.awaiting[sessionID] = struct{}{}
	return true
}

// awaiting-response -> idle
func (svc *Service) release(sessionID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	delete(svc.awaiting, sessionID)
}

func (svc *Service) IsAwaiting(sess session.Session) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	_, busy := svc.awaiting[sess.ID]
	return busy
}

// Send posts query on behalf of sess. Only one query per session may await its response;
// a second one gets ErrBusy. A failed query is not an error: it is answered by an error
// message and the Exchange carries a notice.
func (svc *Service) Send(ctx context.Context, sess session.Session, query string) (Exchange, error) {
	if strings.TrimSpace(query) == "" {
		return Exchange{}, core.NewValidationError(nil, core.FieldError{Field: "query", Error: "this field cannot be blank"})
	}
	if !svc.acquire(sess.ID) {
		return Exchange{}, ErrBusy
	}
	defer svc.release(sess.ID)

	userMsg := NewUserMessage(query)
	if err := svc.transcripts.AppendMessages(ctx, sess.ID, userMsg); err != nil {
		return Exchange{}, errors.Wrap(err, "appending user message")
	}

	var (
		reply  Message
		notice string
		status = StatusAnswered
	)
	body, err := svc.classifier.Classify(ctx, Query{Text: query, UserID: sess.UserID, Role: string(sess.Role)})
	if err != nil {
		notice = failureNotice(err)
		reply = NewErrorMessage(notice)
		status = StatusFailed
	} else {
		decoded := DecodeReply(body)
		reply = NewAssistantMessage(decoded.Text, decoded.Attachments())
	}

	if err = svc.transcripts.AppendMessages(ctx, sess.ID, reply); err != nil {
		return Exchange{}, errors.Wrap(err, "appending assistant message")
	}

	entry := HistoryEntry{
		ChatID:   uuid.New().String(),
		UserID:   sess.UserID,
		Role:     string(sess.Role),
		Question: query,
		Answer:   reply.Content,
		Status:   status,
		DateTime: time.Now().UTC(),
	}
	if err = svc.history.AddEntry(ctx, entry); err != nil {
		return Exchange{}, errors.Wrap(err, "recording history entry")
	}

	return Exchange{Messages: []Message{userMsg, reply}, Notice: notice}, nil
}

// failureNotice is the text surfaced to the user when a query could not be answered.
func failureNotice(err error) string {
	if serr, ok := errors.Cause(err).(*StatusError); ok {
		return "Request failed (" + serr.Error() + ")"
	}
	return "Network error: " + errors.Cause(err).Error()
}

func (svc *Service) Transcript(ctx context.Context, sess session.Session) ([]Message, error) {
	msgs, err := svc.transcripts.ListMessages(ctx, sess.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing messages")
	}
	return msgs, nil
}

func (svc *Service) Message(ctx context.Context, sess session.Session, id string) (Message, error) {
	msgs, err := svc.Transcript(ctx, sess)
	if err != nil {
		return Message{}, err
	}
	for _, m := range msgs {
		if m.ID == id {
			return m, nil
		}
	}
	return Message{}, ErrMessageNotFound
}

func (svc *Service) DownloadAttachment(ctx context.Context, sess session.Session, msgID string, index int) (Download, error) {
	msg, err := svc.Message(ctx, sess, msgID)
	if err != nil {
		return Download{}, err
	}
	at, err := msg.Attachment(index)
	if err != nil {
		return Download{}, err
	}

	if strings.HasPrefix(at.URL, "data:") {
		dl, err := decodeDataURI(at.URL)
		if err != nil {
			return Download{}, errors.Wrap(err, "decoding data URI")
		}
		dl.Filename = attachmentFilename(at, dl.ContentType, index)
		return dl, nil
	}

	dl, err := svc.fetcher.Fetch(ctx, at.URL)
	if err != nil {
		if _, ok := errors.Cause(err).(*StatusError); !ok {
			err = &UnreachableError{Err: err}
		}
		return Download{}, errors.Wrap(err, "fetching attachment")
	}
	if at.ContentType != "" {
		dl.ContentType = at.ContentType
	}
	if at.Filename != "" || dl.Filename == "" {
		dl.Filename = attachmentFilename(at, dl.ContentType, index)
	}
	return dl, nil
}

func (svc *Service) Clear(ctx context.Context, sess session.Session) error {
	return errors.Wrap(svc.transcripts.DeleteTranscript(ctx, sess.ID), "deleting transcript")
}

func (svc *Service) History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error) {
	filter.Clean()
	entries, err := svc.history.FilterEntries(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "filtering history")
	}
	return entries, nil
}

// decodeDataURI decodes `data:[<mediatype>][;base64],<data>`.
func decodeDataURI(uri string) (Download, error) {
	meta, data, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return Download{}, errors.New("malformed data URI")
	}
	isBase64 := strings.HasSuffix(meta, ";base64")
	ct := strings.TrimSuffix(meta, ";base64")
	if ct == "" {
		ct = "text/plain;charset=US-ASCII"
	}

	var content []byte
	if isBase64 {
		var err error
		compact := strings.Join(strings.Fields(data), "")
		if content, err = base64.StdEncoding.DecodeString(compact); err != nil {
			if content, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(compact, "=")); err != nil {
				return Download{}, err
			}
		}
	} else {
		unescaped, err := url.PathUnescape(data)
		if err != nil {
			return Download{}, err
		}
		content = []byte(unescaped)
	}
	return Download{
		Body:        io.NopCloser(strings.NewReader(string(content))),
		ContentType: ct,
	}, nil
}

// attachmentFilename: the attachment's own name, else the URL's last path segment,
// else attachment-<index> with an extension guessed from the content type.
func attachmentFilename(at Attachment, contentType string, index int) string {
	if at.Filename != "" {
		return path.Base(at.Filename)
	}
	if !strings.HasPrefix(at.URL, "data:") {
		if u, err := url.Parse(at.URL); err == nil {
			if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
				return base
			}
		}
	}
	name := fmt.Sprintf("attachment-%d", index+1)
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
			return name + exts[0]
		}
	}
	return name
}
