package inmemdb

import (
	"context"

	"github.com/intelliscript/intelliscript/core/chat"
)

type transcriptRepository struct {
	db *transcriptTable
}

func NewTranscriptRepository(db *DB) chat.TranscriptRepository {
	return &transcriptRepository{db: db.transcript}
}

func (repo *transcriptRepository) AppendMessages(_ context.Context, sessionID string, msgs ...chat.Message) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table[sessionID] = append(repo.db.table[sessionID], msgs...)
	return nil
}

func (repo *transcriptRepository) ListMessages(_ context.Context, sessionID string) ([]chat.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	msgs := repo.db.table[sessionID]
	out := make([]chat.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (repo *transcriptRepository) DeleteTranscript(_ context.Context, sessionID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.table, sessionID)
	return nil
}
