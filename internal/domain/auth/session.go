package auth

import "time"

// Session is the server-side revocation anchor for refresh tokens.
// Valid only ever transitions from true to false.
type Session struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"user"`
	Valid     bool      `json:"valid" bson:"valid"`
	UserAgent string    `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	IP        string    `json:"ip,omitempty" bson:"ip,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SessionState discriminates the outcome of a session lookup
type SessionState int

const (
	SessionNotFound SessionState = iota
	SessionFound
	SessionInvalidated
)

func (s SessionState) String() string {
	switch s {
	case SessionFound:
		return "found"
	case SessionInvalidated:
		return "invalidated"
	default:
		return "not_found"
	}
}

// SessionLookup is the result of resolving a session id.
// Session is set for SessionFound and SessionInvalidated.
type SessionLookup struct {
	State   SessionState
	Session *Session
}

// Usable reports whether the session may still mint access tokens
func (l SessionLookup) Usable() bool {
	return l.State == SessionFound && l.Session != nil && l.Session.Valid
}

// SessionMeta carries request details recorded on a new session
type SessionMeta struct {
	UserAgent string
	IP        string
}
