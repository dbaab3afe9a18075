package sqlxrepos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/chat"
	"github.com/intelliscript/intelliscript/storage/database"
)

func TestFilterQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   chat.HistoryFilter
		wantQ    string
		wantArgs []interface{}
	}{
		{
			name:  "no filter",
			wantQ: "SELECT chat_id, user_id, role, question, answer, status, date_time FROM chat_history ORDER BY date_time DESC",
		},
		{
			name:     "fields are ANDed",
			filter:   chat.HistoryFilter{UserID: "1", Status: "fail", Limit: 10},
			wantQ:    "SELECT chat_id, user_id, role, question, answer, status, date_time FROM chat_history WHERE user_id ILIKE $1 AND status ILIKE $2 ORDER BY date_time DESC LIMIT 10",
			wantArgs: []interface{}{"%1%", "%fail%"},
		},
		{
			name:     "like wildcards are escaped",
			filter:   chat.HistoryFilter{Question: "100%_done"},
			wantQ:    "SELECT chat_id, user_id, role, question, answer, status, date_time FROM chat_history WHERE question ILIKE $1 ORDER BY date_time DESC",
			wantArgs: []interface{}{`%100\%\_done%`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := filterQuery(tt.filter)
			assert.Equal(t, tt.wantQ, q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestHistoryRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	conf := core.NewTestConfig()
	conf.Database.URL = dsn

	db, err := database.Open(ctx, conf)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, database.Migrate(ctx, db))
	_, err = db.ExecContext(ctx, "TRUNCATE chat_history")
	require.NoError(t, err)

	repo := NewHistoryRepository(db)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.AddEntry(ctx, chat.HistoryEntry{
		ChatID: "a", UserID: "1", Role: "admin", Question: "How many students?", Answer: "42",
		Status: chat.StatusAnswered, DateTime: now,
	}))
	require.NoError(t, repo.AddEntry(ctx, chat.HistoryEntry{
		ChatID: "b", UserID: "2", Role: "student", Question: "fees", Answer: "Network error",
		Status: chat.StatusFailed, DateTime: now.Add(time.Minute),
	}))

	all, err := repo.FilterEntries(ctx, chat.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ChatID)

	got, err := repo.FilterEntries(ctx, chat.HistoryFilter{Question: "STUDENTS"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ChatID)
	assert.True(t, now.Equal(got[0].DateTime))
}
