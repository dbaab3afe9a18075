package echoapi_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/intelliscript/intelliscript/core/chat"
	"github.com/intelliscript/intelliscript/core/session"
)

func Test_historyApi(t *testing.T) {
	app := setup(t)
	adminToken, _ := startSession(t, app, session.RoleAdmin)
	studentToken, student := startSession(t, app, session.RoleStudent)

	app.backend.Reply("How many students?", http.StatusOK, `{"response":{"answer":"There are 42 students"}}`)
	app.backend.Reply("broken", http.StatusServiceUnavailable, "")
	for _, q := range []string{"How many students?", "broken"} {
		rec, _ := sendQuery(t, app, studentToken, q)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec, _ := sendQuery(t, app, adminToken, "list teachers")
	require.Equal(t, http.StatusCreated, rec.Code)

	path := func(p string, params map[string]string) string {
		v := make(url.Values)
		for k, val := range params {
			v.Set(k, val)
		}
		if len(v) == 0 {
			return "/v1/admin/history" + p
		}
		return "/v1/admin/history" + p + "?" + v.Encode()
	}
	getEntries := func(t *testing.T, params map[string]string) []chat.HistoryEntry {
		req, rec := newAuthRequest(http.MethodGet, path("", params), adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var entries []chat.HistoryEntry
		unmarshallObj(t, rec.Body.Bytes(), &entries)
		return entries
	}
	questions := func(entries []chat.HistoryEntry) []string {
		qs := make([]string, 0, len(entries))
		for _, e := range entries {
			qs = append(qs, e.Question)
		}
		return qs
	}

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", path: path("", nil), wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "Admin required", path: path("", nil), token: studentToken, wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Admin required (chart)", path: path("/chart", nil), token: studentToken, wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
	})

	t.Run("all, newest first", func(t *testing.T) {
		entries := getEntries(t, nil)
		assert.Equal(t, []string{"list teachers", "broken", "How many students?"}, questions(entries))

		e := entries[2]
		assert.Equal(t, student.UserID, e.UserID)
		assert.Equal(t, "student", e.Role)
		assert.Equal(t, "There are 42 students", e.Answer)
		assert.Equal(t, chat.StatusAnswered, e.Status)
		assert.NotEmpty(t, e.ChatID)

		assert.Equal(t, chat.StatusFailed, entries[1].Status)
		assert.Equal(t, "Request failed (503 Service Unavailable)", entries[1].Answer)
	})

	t.Run("filters", func(t *testing.T) {
		tests := []struct {
			name   string
			params map[string]string
			want   []string
		}{
			{name: "status", params: map[string]string{"status": "FAILED"}, want: []string{"broken"}},
			{name: "question", params: map[string]string{"question": "students"}, want: []string{"How many students?"}},
			{name: "answer", params: map[string]string{"answer": "42"}, want: []string{"How many students?"}},
			{name: "combined", params: map[string]string{"status": "answered", "question": "teach"}, want: []string{"list teachers"}},
			{name: "no match", params: map[string]string{"question": "lol"}, want: []string{}},
			{name: "limit", params: map[string]string{"limit": "2"}, want: []string{"list teachers", "broken"}},
			{name: "blank filters", params: map[string]string{"status": "  "}, want: []string{"list teachers", "broken", "How many students?"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, questions(getEntries(t, tt.params)))
			})
		}
	})

	t.Run("chart", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path("/chart", nil), adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"total":3,"chart":{"column":"status","bars":[
				{"label":"answered","count":2,"width":100},
				{"label":"failed","count":1,"width":50}
			]}}`),
		}, rec)

		req, rec = newAuthRequest(http.MethodGet, path("/chart", map[string]string{"question": "lol"}), adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"total":0,"chart":null}`)}, rec)
	})

	t.Run("xlsx export", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path("/export.xlsx", map[string]string{"status": "answered"}), adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "chat-history-")

		f, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		rows, err := f.GetRows("chat history")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, chat.HistoryHeaders, rows[0])
		assert.Equal(t, "list teachers", rows[1][3])
		assert.Equal(t, "How many students?", rows[2][3])
	})
}
