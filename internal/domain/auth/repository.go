package auth

import (
	"context"
	"errors"

	"tourbook/internal/domain/query"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrSessionNotFound = errors.New("session not found")
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// GetUser retrieves a user by id
	GetUser(ctx context.Context, userID string) (*User, error)

	// GetUserByEmail retrieves a user by normalized email
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateUser creates a new user, ErrEmailTaken on duplicate email
	CreateUser(ctx context.Context, user *User) error

	// UpdateUser replaces an existing user
	UpdateUser(ctx context.Context, user *User) error

	// DeleteUser deletes a user
	DeleteUser(ctx context.Context, userID string) error

	// ListUsers retrieves users matching a translated query
	ListUsers(ctx context.Context, q query.Spec) ([]*User, error)
}

// SessionRepository persists sessions. It carries no lifecycle logic.
type SessionRepository interface {
	CreateSession(ctx context.Context, s *Session) error

	// GetSession returns ErrSessionNotFound when absent
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// InvalidateSession sets Valid=false. Already-invalid sessions are left untouched
	// and reported as success; unknown ids return ErrSessionNotFound.
	InvalidateSession(ctx context.Context, sessionID string) error

	// InvalidateUserSessions invalidates every valid session of userID except keepID
	InvalidateUserSessions(ctx context.Context, userID, keepID string) (int, error)

	ListUserSessions(ctx context.Context, userID string) ([]*Session, error)
}
