// Package session owns every mutation of session records and mints access tokens
// from refresh tokens.
//
// A session moves from valid to invalid exactly once and never back. Refresh tokens
// are only honored while their session is valid.
//
// Invalidation is best-effort, not linearizable: a refresh racing a logout may read
// the session before the invalidation commits and still mint one access token. That
// token lives at most one access TTL. Stores only need read-your-writes consistency
// for a single session record.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbook/internal/application/token"
	"tourbook/internal/domain/auth"

	"github.com/google/uuid"
)

// UserLookup resolves the current user record of a session owner
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*auth.User, error)
}

// Outcome classifies a ReissueAccessToken attempt
type Outcome int

const (
	Reissued Outcome = iota
	RefreshRejected
	SessionMissing
	SessionUnknown
	SessionRevoked
	UserGone
	ReissueFailed
)

func (o Outcome) String() string {
	switch o {
	case Reissued:
		return "reissued"
	case RefreshRejected:
		return "refresh_rejected"
	case SessionMissing:
		return "session_missing"
	case SessionUnknown:
		return "session_unknown"
	case SessionRevoked:
		return "session_revoked"
	case UserGone:
		return "user_gone"
	default:
		return "failed"
	}
}

// Reissue is the result of ReissueAccessToken.
// AccessToken, User and SessionID are only set when Outcome is Reissued.
type Reissue struct {
	Outcome     Outcome
	AccessToken string
	User        *auth.User
	SessionID   string
}

// OK reports whether a new access token was minted
func (r Reissue) OK() bool {
	return r.Outcome == Reissued
}

// Tokens is a freshly signed access/refresh pair
type Tokens struct {
	Access  string
	Refresh string
}

// Manager implements the session lifecycle
type Manager struct {
	sessions auth.SessionRepository
	users    UserLookup
	codec    *token.Codec
	now      func() time.Time
}

// NewManager creates a new session manager
func NewManager(sessions auth.SessionRepository, users UserLookup, codec *token.Codec) *Manager {
	return &Manager{
		sessions: sessions,
		users:    users,
		codec:    codec,
		now:      time.Now,
	}
}

// CreateSession always stores a new valid session. A user may hold any number of sessions.
func (m *Manager) CreateSession(ctx context.Context, userID string, meta auth.SessionMeta) (*auth.Session, error) {
	now := m.now()
	s := &auth.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Valid:     true,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.sessions.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// IssueTokens signs an access and a refresh token bound to sessionID
func (m *Manager) IssueTokens(user *auth.User, sessionID string) (Tokens, error) {
	snap := user.Snapshot()
	access, err := m.codec.Sign(token.Access, snap, sessionID)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := m.codec.Sign(token.Refresh, snap, sessionID)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}

// InvalidateSession marks a session invalid. Invalidating an invalid session succeeds
// without touching it; an unknown id returns auth.ErrSessionNotFound.
func (m *Manager) InvalidateSession(ctx context.Context, sessionID string) error {
	if err := m.sessions.InvalidateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("invalidate session %s: %w", sessionID, err)
	}
	return nil
}

// InvalidateUserSessions revokes every session of userID except keepID
func (m *Manager) InvalidateUserSessions(ctx context.Context, userID, keepID string) (int, error) {
	n, err := m.sessions.InvalidateUserSessions(ctx, userID, keepID)
	if err != nil {
		return 0, fmt.Errorf("invalidate sessions of %s: %w", userID, err)
	}
	return n, nil
}

// ListUserSessions returns all sessions of userID, valid or not
func (m *Manager) ListUserSessions(ctx context.Context, userID string) ([]*auth.Session, error) {
	return m.sessions.ListUserSessions(ctx, userID)
}

// LookupSession resolves a session id into Found, NotFound or Invalidated.
// Only store failures are returned as errors.
func (m *Manager) LookupSession(ctx context.Context, sessionID string) (auth.SessionLookup, error) {
	if sessionID == "" {
		return auth.SessionLookup{State: auth.SessionNotFound}, nil
	}
	s, err := m.sessions.GetSession(ctx, sessionID)
	switch {
	case errors.Is(err, auth.ErrSessionNotFound):
		return auth.SessionLookup{State: auth.SessionNotFound}, nil
	case err != nil:
		return auth.SessionLookup{}, fmt.Errorf("get session %s: %w", sessionID, err)
	case !s.Valid:
		return auth.SessionLookup{State: auth.SessionInvalidated, Session: s}, nil
	default:
		return auth.SessionLookup{State: auth.SessionFound, Session: s}, nil
	}
}

// ReissueAccessToken mints a new access token from a refresh token.
// The new token embeds the current stored user, not the snapshot carried by the
// refresh token. Neither the refresh token nor the session is modified.
// The error is non-nil only for store or signing failures, with Outcome ReissueFailed.
func (m *Manager) ReissueAccessToken(ctx context.Context, refreshToken string) (Reissue, error) {
	res := m.codec.Verify(token.Refresh, refreshToken)
	if !res.Valid {
		return Reissue{Outcome: RefreshRejected}, nil
	}

	sessionID := res.Claims.SessionID
	if sessionID == "" {
		return Reissue{Outcome: SessionMissing}, nil
	}

	lookup, err := m.LookupSession(ctx, sessionID)
	if err != nil {
		return Reissue{Outcome: ReissueFailed}, err
	}
	switch lookup.State {
	case auth.SessionNotFound:
		return Reissue{Outcome: SessionUnknown}, nil
	case auth.SessionInvalidated:
		return Reissue{Outcome: SessionRevoked}, nil
	}

	user, err := m.users.GetUser(ctx, lookup.Session.UserID)
	if errors.Is(err, auth.ErrUserNotFound) {
		return Reissue{Outcome: UserGone}, nil
	}
	if err != nil {
		return Reissue{Outcome: ReissueFailed}, fmt.Errorf("get user %s: %w", lookup.Session.UserID, err)
	}
	if !user.Active {
		return Reissue{Outcome: UserGone}, nil
	}

	access, err := m.codec.Sign(token.Access, user.Snapshot(), sessionID)
	if err != nil {
		return Reissue{Outcome: ReissueFailed}, err
	}

	return Reissue{
		Outcome:     Reissued,
		AccessToken: access,
		User:        user,
		SessionID:   sessionID,
	}, nil
}
