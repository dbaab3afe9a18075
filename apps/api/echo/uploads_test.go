package echoapi_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliscript/intelliscript/core/session"
	"github.com/intelliscript/intelliscript/tests"
)

func newUploadRequest(t *testing.T, token, kind string, files map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if kind != "" {
		require.NoError(t, mw.WriteField("type", kind))
	}
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func Test_uploadApi_upload(t *testing.T) {
	app := setup(t)
	adminToken, _ := startSession(t, app, session.RoleAdmin)
	teacherToken, _ := startSession(t, app, session.RoleTeacher)

	files := map[string]string{
		"syllabus.pdf": "%PDF-1.4 fake",
		"grades.csv":   "name,grade\nada,A\n",
	}

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newUploadRequest(t, "", "syllabus", files)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}, rec)
	})

	t.Run("Admin required", func(t *testing.T) {
		req, rec := newUploadRequest(t, teacherToken, "syllabus", files)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	t.Run("Files required", func(t *testing.T) {
		req, rec := newUploadRequest(t, adminToken, "syllabus", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "at least one file is required"}),
		}, rec)
	})

	t.Run("Forwarded", func(t *testing.T) {
		req, rec := newUploadRequest(t, adminToken, "syllabus", files)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"type":"syllabus","uploaded":2}`),
		}, rec)

		uploads := app.backend.Uploads()
		require.Len(t, uploads, 1)
		assert.Equal(t, testutil.Upload{Type: "syllabus", Files: files}, uploads[0])
	})

	t.Run("Uploads endpoint down", func(t *testing.T) {
		app.backend.Close()
		req, rec := newUploadRequest(t, adminToken, "syllabus", files)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
