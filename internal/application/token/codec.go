// Package token signs and verifies access and refresh tokens.
//
// Each kind has its own asymmetric key pair: the private key signs, the public key
// verifies, so verifiers never hold the issuing key. The codec keeps no state
// besides its configuration and is safe for concurrent use.
package token

import (
	"errors"
	"fmt"
	"time"

	"tourbook/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes the two independent token families
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

// Claims is the signed payload of both token kinds
type Claims struct {
	User      auth.Snapshot `json:"user"`
	SessionID string        `json:"sid"`
	TokenKind string        `json:"kind"`
	jwt.RegisteredClaims
}

// Result is the outcome of Verify. Claims is only set when Valid is true.
//
//	Valid=true  Expired=false  signature and expiry check out
//	Valid=false Expired=true   signature checks out, expiry has passed
//	Valid=false Expired=false  missing, corrupt, wrong key or wrong kind
type Result struct {
	Valid   bool
	Expired bool
	Claims  *Claims
}

// Config holds the key pairs and lifetimes of both kinds
type Config struct {
	Access     KeyPair
	Refresh    KeyPair
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

type kindConfig struct {
	keys   KeyPair
	method jwt.SigningMethod
	ttl    time.Duration
	kid    string
}

// Codec signs and verifies tokens
type Codec struct {
	kinds  [2]kindConfig
	issuer string
	now    func() time.Time
}

// NewCodec validates the key pairs and builds a Codec.
// A zero TTL is accepted and yields tokens that are already expired.
func NewCodec(cfg Config) (*Codec, error) {
	c := &Codec{issuer: cfg.Issuer, now: time.Now}

	for kind, kc := range map[Kind]struct {
		keys KeyPair
		ttl  time.Duration
	}{
		Access:  {cfg.Access, cfg.AccessTTL},
		Refresh: {cfg.Refresh, cfg.RefreshTTL},
	} {
		if kc.ttl < 0 {
			return nil, fmt.Errorf("token: negative %s TTL", kind)
		}
		method, err := kc.keys.signingMethod()
		if err != nil {
			return nil, fmt.Errorf("token: %s key pair: %w", kind, err)
		}
		c.kinds[kind] = kindConfig{keys: kc.keys, method: method, ttl: kc.ttl, kid: keyID(kc.keys.Public)}
	}

	return c, nil
}

// SetClock overrides the time source
func (c *Codec) SetClock(now func() time.Time) {
	c.now = now
}

// TTL returns the lifetime of tokens of the given kind
func (c *Codec) TTL(kind Kind) time.Duration {
	return c.kinds[kind].ttl
}

// Sign issues a token of the given kind for user bound to sessionID
func (c *Codec) Sign(kind Kind, user auth.Snapshot, sessionID string) (string, error) {
	kc := c.kinds[kind]
	now := c.now()

	claims := Claims{
		User:      user,
		SessionID: sessionID,
		TokenKind: kind.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(kc.ttl)),
		},
	}

	t := jwt.NewWithClaims(kc.method, claims)
	t.Header["kid"] = kc.kid

	signed, err := t.SignedString(kc.keys.Private)
	if err != nil {
		return "", fmt.Errorf("token: sign %s: %w", kind, err)
	}
	return signed, nil
}

// Verify checks a token of the given kind. It never fails; the outcome is data.
func (c *Codec) Verify(kind Kind, raw string) Result {
	if raw == "" {
		return Result{}
	}
	kc := c.kinds[kind]

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{kc.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	parsed, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return kc.keys.Public, nil
	})

	claims, _ := claimsOf(parsed)
	if claims == nil || claims.TokenKind != kind.String() || claims.Issuer != c.issuer {
		return Result{}
	}

	switch {
	case err == nil && parsed.Valid:
		return Result{Valid: true, Claims: claims}
	case errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Result{Expired: true}
	default:
		return Result{}
	}
}

func claimsOf(t *jwt.Token) (*Claims, bool) {
	if t == nil {
		return nil, false
	}
	claims, ok := t.Claims.(*Claims)
	return claims, ok
}
