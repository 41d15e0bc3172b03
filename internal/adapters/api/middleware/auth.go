// Package middleware resolves the caller's identity from cookies and enforces
// authentication, role and ownership requirements on routes.
//
// Identity resolution never fails a request: a missing, corrupt or fully expired
// credential leaves the request unauthenticated and the gates decide what that means.
package middleware

import (
	"context"

	"tourbook/internal/application/session"
	"tourbook/internal/application/token"
	"tourbook/internal/domain/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	// IdentityContextKey is the key used to store the caller in gin context
	IdentityContextKey = "identity"
)

// Identity is the authenticated caller of one request
type Identity struct {
	User      auth.Snapshot
	SessionID string
}

// RequestState is threaded through the authentication stages
type RequestState struct {
	AccessToken    string
	RefreshToken   string
	AccessExpired  bool
	Identity       *Identity
	NewAccessToken string
}

// Stage takes the request state and returns the updated state or a terminal error
type Stage func(ctx context.Context, st RequestState) (RequestState, error)

// Compose runs stages in order, stopping at the first error
func Compose(stages ...Stage) Stage {
	return func(ctx context.Context, st RequestState) (RequestState, error) {
		var err error
		for _, stage := range stages {
			if st, err = stage(ctx, st); err != nil {
				return st, err
			}
		}
		return st, nil
	}
}

// TokenVerifier verifies access tokens
type TokenVerifier interface {
	Verify(kind token.Kind, raw string) token.Result
}

// AccessReissuer mints access tokens from refresh tokens
type AccessReissuer interface {
	ReissueAccessToken(ctx context.Context, refreshToken string) (session.Reissue, error)
}

// Authenticator builds the identity resolution chain
type Authenticator struct {
	tokens     TokenVerifier
	sessions   AccessReissuer
	cookies    *Cookies
	onRotation func(session.Outcome)
	chain      Stage
}

// NewAuthenticator creates the identity chain: verify the access token, then rotate it when expired
func NewAuthenticator(tokens TokenVerifier, sessions AccessReissuer, cookies *Cookies) *Authenticator {
	a := &Authenticator{
		tokens:     tokens,
		sessions:   sessions,
		cookies:    cookies,
		onRotation: func(session.Outcome) {},
	}
	a.chain = Compose(a.VerifyAccess, a.Rotate)
	return a
}

// OnRotation registers an observer for every silent rotation attempt
func (a *Authenticator) OnRotation(fn func(session.Outcome)) {
	if fn != nil {
		a.onRotation = fn
	}
}

// VerifyAccess sets the identity from a valid access token and flags an expired one
func (a *Authenticator) VerifyAccess(ctx context.Context, st RequestState) (RequestState, error) {
	if st.AccessToken == "" {
		return st, nil
	}

	res := a.tokens.Verify(token.Access, st.AccessToken)
	switch {
	case res.Valid:
		st.Identity = &Identity{User: res.Claims.User, SessionID: res.Claims.SessionID}
	case res.Expired:
		st.AccessExpired = true
	}
	return st, nil
}

// Rotate mints a new access token when the current one expired and a refresh token
// is present. Any failure leaves the request unauthenticated.
func (a *Authenticator) Rotate(ctx context.Context, st RequestState) (RequestState, error) {
	if st.Identity != nil || !st.AccessExpired || st.RefreshToken == "" {
		return st, nil
	}

	res, err := a.sessions.ReissueAccessToken(ctx, st.RefreshToken)
	a.onRotation(res.Outcome)
	if err != nil {
		log.Warn().Err(err).Msg("silent token rotation failed, continuing unauthenticated")
		return st, nil
	}
	if !res.OK() {
		log.Debug().Str("outcome", res.Outcome.String()).Msg("silent token rotation refused")
		return st, nil
	}

	st.Identity = &Identity{User: res.User.Snapshot(), SessionID: res.SessionID}
	st.NewAccessToken = res.AccessToken
	return st, nil
}

// Resolve runs the chain on an explicit state
func (a *Authenticator) Resolve(ctx context.Context, st RequestState) (RequestState, error) {
	return a.chain(ctx, st)
}

// Middleware reads the auth cookies, resolves the identity and writes a rotated access token cookie
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		st := RequestState{
			AccessToken:  readCookie(c, AccessCookie),
			RefreshToken: readCookie(c, RefreshCookie),
		}

		st, err := a.Resolve(c.Request.Context(), st)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		if st.NewAccessToken != "" {
			a.cookies.SetAccess(c, st.NewAccessToken)
		}
		if st.Identity != nil {
			c.Set(IdentityContextKey, st.Identity)
		}
		c.Next()
	}
}

// CurrentIdentity retrieves the caller from the gin context, nil when unauthenticated
func CurrentIdentity(c *gin.Context) *Identity {
	if v, exists := c.Get(IdentityContextKey); exists {
		if id, ok := v.(*Identity); ok {
			return id
		}
	}
	return nil
}

func readCookie(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}
