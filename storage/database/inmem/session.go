package inmemdb

import (
	"context"
	"time"

	"github.com/intelliscript/intelliscript/core/session"
)

// sessionStore owns the transcripts of its sessions: dropping a session drops its transcript.
type sessionStore struct {
	db          *sessionTable
	transcripts *transcriptTable
}

func NewSessionStore(db *DB) session.Store {
	return &sessionStore{db: db.session, transcripts: db.transcript}
}

func (store *sessionStore) SaveSession(_ context.Context, sess session.Session) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()
	store.purgeExpired(time.Now().UTC())
	store.db.table[sess.ID] = sess
	return nil
}

func (store *sessionStore) GetSession(_ context.Context, id string) (session.Session, error) {
	store.db.mutex.RLock()
	defer store.db.mutex.RUnlock()

	if sess, ok := store.db.table[id]; ok {
		return sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (store *sessionStore) DeleteSession(_ context.Context, id string) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()
	delete(store.db.table, id)
	store.dropTranscripts(id)
	return nil
}

// purgeExpired drops sessions that expired more than a minute ago. Caller holds the lock.
func (store *sessionStore) purgeExpired(now time.Time) {
	var expired []string
	for id, sess := range store.db.table {
		if sess.IsExpired(now.Add(-time.Minute)) {
			delete(store.db.table, id)
			expired = append(expired, id)
		}
	}
	store.dropTranscripts(expired...)
}

func (store *sessionStore) dropTranscripts(ids ...string) {
	if len(ids) == 0 {
		return
	}
	store.transcripts.mutex.Lock()
	defer store.transcripts.mutex.Unlock()
	for _, id := range ids {
		delete(store.transcripts.table, id)
	}
}
