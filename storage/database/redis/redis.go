// Package redisdb stores sessions and transcripts in redis, for deployments running more
// than one API instance.
package redisdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/chat"
	"github.com/intelliscript/intelliscript/core/session"
)

const (
	sessionPrefix    = "session:"    // String: session:{id} -> JSON session
	transcriptPrefix = "transcript:" // List: transcript:{sessionID} -> JSON messages
)

// Open connects to the redis server of conf.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

type sessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) session.Store {
	return &sessionStore{client: client}
}

func (store *sessionStore) SaveSession(ctx context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err = store.client.Set(ctx, sessionPrefix+sess.ID, data, sess.TTL(time.Now().UTC())).Err(); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return nil
}

func (store *sessionStore) GetSession(ctx context.Context, id string) (session.Session, error) {
	data, err := store.client.Get(ctx, sessionPrefix+id).Bytes()
	if err == redis.Nil {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, errors.Wrap(err, "getting session")
	}
	var sess session.Session
	if err = json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (store *sessionStore) DeleteSession(ctx context.Context, id string) error {
	return errors.Wrap(store.client.Del(ctx, sessionPrefix+id).Err(), "deleting session")
}

type transcriptRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTranscriptRepository returns a transcript store whose lists expire ttl after their last append (0: never).
func NewTranscriptRepository(client *redis.Client, ttl time.Duration) chat.TranscriptRepository {
	return &transcriptRepository{client: client, ttl: ttl}
}

func (repo *transcriptRepository) AppendMessages(ctx context.Context, sessionID string, msgs ...chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return errors.Wrap(err, "encoding message")
		}
		values = append(values, data)
	}

	key := transcriptPrefix + sessionID
	pipe := repo.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if repo.ttl > 0 {
		pipe.Expire(ctx, key, repo.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "appending messages")
	}
	return nil
}

func (repo *transcriptRepository) ListMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	items, err := repo.client.LRange(ctx, transcriptPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "listing messages")
	}
	msgs := make([]chat.Message, 0, len(items))
	for _, item := range items {
		var m chat.Message
		if err = json.Unmarshal([]byte(item), &m); err != nil {
			return nil, errors.Wrap(err, "decoding message")
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (repo *transcriptRepository) DeleteTranscript(ctx context.Context, sessionID string) error {
	return errors.Wrap(repo.client.Del(ctx, transcriptPrefix+sessionID).Err(), "deleting transcript")
}
