package chat

import (
	"strings"
	"time"
)

// History statuses
const (
	StatusAnswered = "answered"
	StatusFailed   = "failed"
)

// HistoryHeaders are the columns of the chat history table, in display order.
var HistoryHeaders = []string{"chat_id", "user_id", "role", "question", "answer", "status", "date_time"}

// HistoryEntry records one completed exchange for admin review.
type HistoryEntry struct {
	ChatID   string    `json:"chat_id" db:"chat_id"`
	UserID   string    `json:"user_id" db:"user_id"`
	Role     string    `json:"role" db:"role"`
	Question string    `json:"question" db:"question"`
	Answer   string    `json:"answer" db:"answer"`
	Status   string    `json:"status" db:"status"`
	DateTime time.Time `json:"date_time" db:"date_time"` // UTC
}

// HistoryFilter does case-insensitive substring matches; empty fields match everything.
type HistoryFilter struct {
	ChatID   string `query:"chat_id"`
	UserID   string `query:"user_id"`
	Question string `query:"question"`
	Answer   string `query:"answer"`
	Status   string `query:"status"`
	DateTime string `query:"date_time"`
	Limit    int    `query:"limit"`
}

func (f *HistoryFilter) Clean() {
	f.ChatID = strings.TrimSpace(f.ChatID)
	f.UserID = strings.TrimSpace(f.UserID)
	f.Question = strings.TrimSpace(f.Question)
	f.Answer = strings.TrimSpace(f.Answer)
	f.Status = strings.TrimSpace(f.Status)
	f.DateTime = strings.TrimSpace(f.DateTime)
	if f.Limit < 0 {
		f.Limit = 0
	}
}

func (f HistoryFilter) IsEmpty() bool {
	return f.ChatID == "" && f.UserID == "" && f.Question == "" && f.Answer == "" && f.Status == "" && f.DateTime == ""
}

// Match applies the AND of all set fields to entry.
func (f HistoryFilter) Match(entry HistoryEntry) bool {
	return containsFold(entry.ChatID, f.ChatID) &&
		containsFold(entry.UserID, f.UserID) &&
		containsFold(entry.Question, f.Question) &&
		containsFold(entry.Answer, f.Answer) &&
		containsFold(entry.Status, f.Status) &&
		containsFold(entry.DateTime.Format(historyTimeLayout), f.DateTime)
}

const historyTimeLayout = "2006-01-02 15:04:05"

func containsFold(s, substr string) bool {
	return substr == "" || strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// HistoryTable lays entries out as a Table (HistoryHeaders columns).
func HistoryTable(entries []HistoryEntry) Table {
	tbl := Table{
		Headers: append([]string(nil), HistoryHeaders...),
		Rows:    make([][]string, 0, len(entries)),
	}
	for _, e := range entries {
		tbl.Rows = append(tbl.Rows, []string{
			e.ChatID, e.UserID, e.Role, e.Question, e.Answer, e.Status, e.DateTime.Format(historyTimeLayout),
		})
	}
	return tbl
}
