package memory

import (
	"context"
	"sync"
	"time"

	"tourbook/internal/domain/auth"
	"tourbook/internal/domain/query"
)

// UserRepository is an in-memory implementation of auth.UserRepository
type UserRepository struct {
	mu           sync.RWMutex
	users        map[string]*auth.User // userID -> User
	usersByEmail map[string]string     // email -> userID
}

// NewUserRepository creates a new in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:        make(map[string]*auth.User),
		usersByEmail: make(map[string]string),
	}
}

// GetUser retrieves a user by id
func (r *UserRepository) GetUser(ctx context.Context, userID string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[userID]
	if !exists {
		return nil, auth.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByEmail[email]
	if !exists {
		return nil, auth.ErrUserNotFound
	}
	cp := *r.users[id]
	return &cp, nil
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByEmail[user.Email]; exists {
		return auth.ErrEmailTaken
	}

	cp := *user
	r.users[user.ID] = &cp
	r.usersByEmail[user.Email] = user.ID
	return nil
}

// UpdateUser updates an existing user
func (r *UserRepository) UpdateUser(ctx context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, exists := r.users[user.ID]
	if !exists {
		return auth.ErrUserNotFound
	}

	// Update email index if email changed
	if old.Email != user.Email {
		if _, taken := r.usersByEmail[user.Email]; taken {
			return auth.ErrEmailTaken
		}
		delete(r.usersByEmail, old.Email)
		r.usersByEmail[user.Email] = user.ID
	}

	cp := *user
	r.users[user.ID] = &cp
	return nil
}

// DeleteUser deletes a user
func (r *UserRepository) DeleteUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return auth.ErrUserNotFound
	}
	delete(r.usersByEmail, user.Email)
	delete(r.users, userID)
	return nil
}

// ListUsers retrieves users matching q
func (r *UserRepository) ListUsers(ctx context.Context, q query.Spec) ([]*auth.User, error) {
	r.mu.RLock()
	users := make([]*auth.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		users = append(users, &cp)
	}
	r.mu.RUnlock()

	return applySpec(users, q)
}

// SessionRepository is an in-memory implementation of auth.SessionRepository
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*auth.Session // sessionID -> Session
}

// NewSessionRepository creates a new in-memory session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*auth.Session)}
}

// CreateSession stores a new session
func (r *SessionRepository) CreateSession(ctx context.Context, s *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

// GetSession retrieves a session by id
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.sessions[sessionID]
	if !exists {
		return nil, auth.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

// InvalidateSession marks a session invalid, leaving invalid sessions untouched
func (r *SessionRepository) InvalidateSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[sessionID]
	if !exists {
		return auth.ErrSessionNotFound
	}
	if s.Valid {
		s.Valid = false
		s.UpdatedAt = time.Now()
	}
	return nil
}

// InvalidateUserSessions invalidates every valid session of userID except keepID
func (r *SessionRepository) InvalidateUserSessions(ctx context.Context, userID, keepID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	now := time.Now()
	for _, s := range r.sessions {
		if s.UserID != userID || s.ID == keepID || !s.Valid {
			continue
		}
		s.Valid = false
		s.UpdatedAt = now
		n++
	}
	return n, nil
}

// ListUserSessions returns the sessions of userID, newest first
func (r *SessionRepository) ListUserSessions(ctx context.Context, userID string) ([]*auth.Session, error) {
	r.mu.RLock()
	var sessions []*auth.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			cp := *s
			sessions = append(sessions, &cp)
		}
	}
	r.mu.RUnlock()

	return applySpec(sessions, query.Spec{Sort: []query.SortKey{
		{Field: "createdAt", Descending: true},
		{Field: "id"},
	}})
}
