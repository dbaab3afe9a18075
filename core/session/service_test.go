package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/chat"
	"github.com/intelliscript/intelliscript/core/session"
	inmemdb "github.com/intelliscript/intelliscript/storage/database/inmem"
)

func newService(t *testing.T, mutate func(conf *core.Config)) *session.Service {
	t.Helper()
	conf := core.NewTestConfig()
	if mutate != nil {
		mutate(conf)
	}
	return session.NewService(inmemdb.NewSessionStore(inmemdb.Open()), conf)
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	sess, err := svc.Start(ctx, session.NewSession{Role: "Teacher"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, session.RoleTeacher, sess.Role)
	assert.Equal(t, "1", sess.UserID) // configured default
	assert.WithinDuration(t, sess.CreatedAt.Add(time.Hour), sess.ExpiresAt, time.Second)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, svc.End(ctx, sess.ID))
	_, err = svc.Get(ctx, sess.ID)
	assert.Equal(t, session.ErrNotFound, err)

	// ending twice is fine
	assert.NoError(t, svc.End(ctx, sess.ID))
}

func TestService_Start(t *testing.T) {
	hash, err := session.HashPasscode("s3cret")
	require.NoError(t, err)
	svc := newService(t, func(conf *core.Config) { conf.Session.AdminPasscodeHash = hash })

	tests := []struct {
		name    string
		ns      session.NewSession
		wantErr error
		wantUID string
	}{
		{name: "student with user id", ns: session.NewSession{Role: "student", UserID: " 42 "}, wantUID: "42"},
		{name: "instructor", ns: session.NewSession{Role: "instructor"}, wantUID: "1"},
		{name: "teacher needs no passcode", ns: session.NewSession{Role: "teacher"}, wantUID: "1"},
		{name: "admin with passcode", ns: session.NewSession{Role: "admin", Passcode: "s3cret"}, wantUID: "1"},
		{name: "admin without passcode", ns: session.NewSession{Role: "admin"}, wantErr: session.ErrInvalidPasscode},
		{name: "admin with wrong passcode", ns: session.NewSession{Role: "admin", Passcode: "nope"}, wantErr: session.ErrInvalidPasscode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := svc.Start(context.Background(), tt.ns)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, sess.UserID)
		})
	}

	t.Run("invalid role", func(t *testing.T) {
		_, err := svc.Start(context.Background(), session.NewSession{Role: "janitor"})
		verr, ok := err.(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, session.ErrInvalidRole, verr.Err)
		assert.Equal(t, "role", verr.Fields[0].Field)
	})
}

func TestService_AdminWithoutPasscodeHash(t *testing.T) {
	sess, err := newService(t, nil).Start(context.Background(), session.NewSession{Role: "admin"})
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin())
}

func TestService_Expired(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, func(conf *core.Config) { conf.Session.TTL = time.Millisecond })

	sess, err := svc.Start(ctx, session.NewSession{Role: "student"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = svc.Get(ctx, sess.ID)
	assert.Equal(t, session.ErrExpired, err)
	_, err = svc.Get(ctx, sess.ID)
	assert.Equal(t, session.ErrNotFound, err)
}

func TestService_ExpiredSessionDropsTranscript(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	conf := core.NewTestConfig()
	conf.Session.TTL = time.Millisecond
	svc := session.NewService(inmemdb.NewSessionStore(db), conf)
	transcripts := inmemdb.NewTranscriptRepository(db)

	sess, err := svc.Start(ctx, session.NewSession{Role: "student"})
	require.NoError(t, err)
	require.NoError(t, transcripts.AppendMessages(ctx, sess.ID, chat.NewUserMessage("hello")))
	time.Sleep(5 * time.Millisecond)

	_, err = svc.Get(ctx, sess.ID)
	assert.Equal(t, session.ErrExpired, err)
	msgs, err := transcripts.ListMessages(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestRole(t *testing.T) {
	r, ok := session.ParseRole(" ADMIN ")
	assert.True(t, ok)
	assert.Equal(t, session.RoleAdmin, r)
	_, ok = session.ParseRole("")
	assert.False(t, ok)

	assert.True(t, session.RoleAdmin.AtLeast(session.RoleTeacher))
	assert.True(t, session.RoleTeacher.AtLeast(session.RoleInstructor))
	assert.False(t, session.RoleStudent.AtLeast(session.RoleInstructor))
}
