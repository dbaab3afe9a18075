// Package session holds the role sessions chat users act under: a session is set when a role
// is selected, read by the route guard of every authenticated request and cleared at logout.
package session

import (
	"strings"
	"time"
)

type Role string

// Roles
const (
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

var (
	AllRoles = []Role{RoleAdmin, RoleTeacher, RoleInstructor, RoleStudent}

	rolePriorities = map[Role]int{
		RoleAdmin:      30,
		RoleTeacher:    20,
		RoleInstructor: 15,
		RoleStudent:    1,
	}
)

// ParseRole returns the Role named s (case-insensitive).
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := rolePriorities[r]
	return r, ok
}

func (r Role) Priority() int {
	return rolePriorities[r]
}

// AtLeast reports whether r ranks as high as other (admin > teacher > instructor > student).
func (r Role) AtLeast(other Role) bool {
	return r.Priority() >= other.Priority()
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"` // UTC
	ExpiresAt time.Time `json:"expires_at"` // UTC; zero: never
}

func (s Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// TTL is the time left before the session expires (0 if it never does).
func (s Session) TTL(now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return time.Millisecond
}

type NewSession struct {
	Role     string `json:"role" validate:"required,oneof=admin teacher instructor student"`
	UserID   string `json:"user_id" validate:"omitempty,max=64,alphanum_"`
	Passcode string `json:"passcode"`
}
