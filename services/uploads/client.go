// Package uploadsvc forwards multi-file uploads to the external uploads endpoint.
package uploadsvc

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/chat"
)

const maxResponseBody = 1 << 20

// File is one `files` entry of an upload.
type File struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Response is the uploads endpoint's answer, passed back to the caller as-is.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type Client struct {
	http  *http.Client
	url   string
	token string
}

func NewClient(conf *core.Config) *Client {
	return &Client{
		http:  &http.Client{Timeout: conf.Classifier.Timeout},
		url:   conf.Uploads.URL,
		token: conf.Classifier.AuthToken,
	}
}

// Upload posts a multipart/form-data body with a `type` field and one `files` part per file.
// The body is streamed; files are opened one at a time.
func (c *Client) Upload(ctx context.Context, kind string, files []File) (Response, error) {
	if len(files) == 0 {
		return Response{}, core.NewValidationError(nil, core.FieldError{Field: "files", Error: "at least one file is required"})
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		_ = pw.CloseWithError(writeParts(mw, kind, files))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, pr)
	if err != nil {
		_ = pr.Close()
		return Response{}, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		_ = pr.Close()
		return Response{}, &chat.UnreachableError{Err: errors.Wrap(err, "uploading files")}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Response{}, errors.Wrap(err, "reading response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &chat.StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
	return Response{StatusCode: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

func writeParts(mw *multipart.Writer, kind string, files []File) error {
	if err := mw.WriteField("type", kind); err != nil {
		return err
	}
	for _, f := range files {
		if err := writeFile(mw, f); err != nil {
			return errors.Wrapf(err, "writing %s", f.Name)
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func writeFile(mw *multipart.Writer, f File) error {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="`+quoteEscaper.Replace(filepath.Base(f.Name))+`"`)
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	_, err = io.Copy(part, rc)
	return err
}
