package inmemdb

import (
	"context"

	"github.com/intelliscript/intelliscript/core/chat"
)

type historyRepository struct {
	db *historyTable
}

func NewHistoryRepository(db *DB) chat.HistoryRepository {
	return &historyRepository{db: db.history}
}

func (repo *historyRepository) AddEntry(_ context.Context, entry chat.HistoryEntry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table = append(repo.db.table, entry)
	return nil
}

func (repo *historyRepository) FilterEntries(_ context.Context, filter chat.HistoryFilter) ([]chat.HistoryEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]chat.HistoryEntry, 0)
	for i := len(repo.db.table) - 1; i >= 0; i-- {
		if e := repo.db.table[i]; filter.Match(e) {
			entries = append(entries, e)
			if filter.Limit > 0 && len(entries) == filter.Limit {
				break
			}
		}
	}
	return entries, nil
}
