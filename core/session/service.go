package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/intelliscript/intelliscript/core"
)

var (
	// errors
	ErrNotFound        = errors.New("session not found")
	ErrExpired         = errors.New("session expired")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidPasscode = errors.New("invalid passcode")
)

type (
	Store interface {
		// SaveSession stores sess until it expires.
		SaveSession(ctx context.Context, sess Session) error
		GetSession(ctx context.Context, id string) (Session, error)
		DeleteSession(ctx context.Context, id string) error
	}

	Service struct {
		store         Store
		ttl           time.Duration
		passcodeHash  []byte
		defaultUserID string
		now           func() time.Time
	}
)

func NewService(store Store, conf *core.Config) *Service {
	svc := &Service{
		store:         store,
		ttl:           conf.Session.TTL,
		defaultUserID: conf.Session.DefaultUserID,
		now:           func() time.Time { return time.Now().UTC() },
	}
	if conf.Session.AdminPasscodeHash != "" {
		svc.passcodeHash = []byte(conf.Session.AdminPasscodeHash)
	}
	return svc
}

// HashPasscode returns the bcrypt hash to configure as session.adminPasscodeHash.
func HashPasscode(passcode string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Start opens a session for the selected role. The admin role requires the passcode
// when an admin passcode hash is configured.
func (svc *Service) Start(ctx context.Context, ns NewSession) (Session, error) {
	role, ok := ParseRole(ns.Role)
	if !ok {
		return Session{}, core.NewValidationError(ErrInvalidRole, core.FieldError{Field: "role", Error: ErrInvalidRole.Error()})
	}
	if role == RoleAdmin && svc.passcodeHash != nil {
		if err := bcrypt.CompareHashAndPassword(svc.passcodeHash, []byte(ns.Passcode)); err != nil {
			return Session{}, ErrInvalidPasscode
		}
	}

	userID := core.CleanString(ns.UserID)
	if userID == "" {
		userID = svc.defaultUserID
	}
	now := svc.now()
	sess := Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
	}
	if svc.ttl > 0 {
		sess.ExpiresAt = now.Add(svc.ttl)
	}
	if err := svc.store.SaveSession(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get returns the live session id; expired sessions are dropped and reported as ErrExpired.
func (svc *Service) Get(ctx context.Context, id string) (Session, error) {
	sess, err := svc.store.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.IsExpired(svc.now()) {
		_ = svc.store.DeleteSession(ctx, id)
		return Session{}, ErrExpired
	}
	return sess, nil
}

// End clears the session. Ending an unknown session is not an error.
func (svc *Service) End(ctx context.Context, id string) error {
	if err := svc.store.DeleteSession(ctx, id); err != nil && err != ErrNotFound {
		return err
	}
	return nil
}
