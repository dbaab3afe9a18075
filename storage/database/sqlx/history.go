package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core/chat"
)

type historyRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) chat.HistoryRepository {
	return &historyRepository{db: db}
}

func (repo *historyRepository) AddEntry(ctx context.Context, entry chat.HistoryEntry) error {
	const q = `INSERT INTO chat_history (chat_id, user_id, role, question, answer, status, date_time)
		VALUES (:chat_id, :user_id, :role, :question, :answer, :status, :date_time)`
	if _, err := repo.db.NamedExecContext(ctx, q, entry); err != nil {
		return errors.Wrap(err, "inserting history entry")
	}
	return nil
}

func (repo *historyRepository) FilterEntries(ctx context.Context, filter chat.HistoryFilter) ([]chat.HistoryEntry, error) {
	q, args := filterQuery(filter)
	entries := make([]chat.HistoryEntry, 0)
	if err := repo.db.SelectContext(ctx, &entries, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting history entries")
	}
	return entries, nil
}

// filterQuery builds the SELECT for filter; each set field adds an ILIKE condition.
func filterQuery(filter chat.HistoryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(expr, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+escapeLike(value)+"%")
		conds = append(conds, expr+" ILIKE $"+strconv.Itoa(len(args)))
	}
	add("chat_id", filter.ChatID)
	add("user_id", filter.UserID)
	add("question", filter.Question)
	add("answer", filter.Answer)
	add("status", filter.Status)
	add("to_char(date_time AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS')", filter.DateTime)

	var sb strings.Builder
	sb.WriteString("SELECT chat_id, user_id, role, question, answer, status, date_time FROM chat_history")
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY date_time DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(filter.Limit))
	}
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
