package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/session"
)

const BackendToken = "test-token"

// Upload is a multipart upload received by the Backend.
type Upload struct {
	Type  string
	Files map[string]string // filename: content
}

type reply struct {
	code int
	body string
}

// Backend fakes the remote endpoints the app talks to:
//   - GET  /classify      answers `{"response":{"answer":"You asked: <query>"}}` unless told otherwise
//   - POST /uploads       records the upload and answers {"type": ..., "uploaded": n}
//   - GET  /files/<name>  serves the files registered with AddFile
type Backend struct {
	*httptest.Server

	mu      sync.Mutex
	replies map[string]reply
	files   map[string]string
	uploads []Upload
	queries []string
	hold    chan struct{}
	held    chan struct{}
}

func NewBackend(t *testing.T) *Backend {
	b := &Backend{
		replies: make(map[string]reply),
		files:   make(map[string]string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/classify", b.classify)
	mux.HandleFunc("/uploads", b.upload)
	mux.HandleFunc("/files/", b.file)
	b.Server = httptest.NewServer(b.authorized(mux))
	t.Cleanup(b.Close)
	return b
}

// Config returns a test config pointing at the backend.
func (b *Backend) Config() *core.Config {
	conf := core.NewTestConfig()
	conf.Classifier.URL = b.URL + "/classify"
	conf.Classifier.AuthToken = BackendToken
	conf.Uploads.URL = b.URL + "/uploads"
	return conf
}

// Reply sets the answer to query.
func (b *Backend) Reply(query string, code int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[query] = reply{code: code, body: body}
}

// AddFile serves content under /files/name and returns its URL.
func (b *Backend) AddFile(name, content string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[name] = content
	return b.URL + "/files/" + name
}

// Hold makes classification requests block until release is called.
// started is closed once a request is being held.
func (b *Backend) Hold() (started <-chan struct{}, release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hold = make(chan struct{})
	b.held = make(chan struct{})
	hold := b.hold
	var once sync.Once
	return b.held, func() { once.Do(func() { close(hold) }) }
}

func (b *Backend) Uploads() []Upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Upload(nil), b.uploads...)
}

func (b *Backend) Queries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries...)
}

func (b *Backend) authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+BackendToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) classify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("user_query")

	b.mu.Lock()
	b.queries = append(b.queries, query)
	rep, ok := b.replies[query]
	hold, held := b.hold, b.held
	b.hold, b.held = nil, nil
	b.mu.Unlock()

	if hold != nil {
		close(held)
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	if !ok {
		body, _ := json.Marshal(map[string]interface{}{
			"response": map[string]string{"answer": "You asked: " + query},
		})
		rep = reply{code: http.StatusOK, body: string(body)}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.code)
	_, _ = io.WriteString(w, rep.body)
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	up := Upload{Type: r.FormValue("type"), Files: make(map[string]string)}
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		content, _ := io.ReadAll(f)
		_ = f.Close()
		up.Files[fh.Filename] = string(content)
	}

	b.mu.Lock()
	b.uploads = append(b.uploads, up)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"type":%q,"uploaded":%d}`, up.Type, len(up.Files))
}

func (b *Backend) file(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/files/")

	b.mu.Lock()
	content, ok := b.files[name]
	b.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	_, _ = io.WriteString(w, content)
}

// StartSession opens a session with role through svc.
func StartSession(t *testing.T, svc *session.Service, role session.Role, userID ...string) session.Session {
	ns := session.NewSession{Role: string(role)}
	if len(userID) > 0 {
		ns.UserID = userID[0]
	}
	sess, err := svc.Start(context.Background(), ns)
	if err != nil {
		t.Fatalf("StartSession() failed: %v", err)
	}
	return sess
}
