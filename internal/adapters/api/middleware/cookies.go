package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// CookieOptions scopes the auth cookies
type CookieOptions struct {
	Domain string
	Path   string
	// MaxAge applies to both cookies; the refresh TTL bounds how long either is useful
	MaxAge time.Duration
	// Production switches to Secure + SameSite=None for cross-site frontends
	Production bool
}

// Cookies writes and clears the http-only auth cookies
type Cookies struct {
	opts CookieOptions
}

// NewCookies creates a cookie writer
func NewCookies(opts CookieOptions) *Cookies {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &Cookies{opts: opts}
}

// SetAuth sets both cookies at login
func (k *Cookies) SetAuth(c *gin.Context, access, refresh string) {
	k.set(c, AccessCookie, access, int(k.opts.MaxAge.Seconds()))
	k.set(c, RefreshCookie, refresh, int(k.opts.MaxAge.Seconds()))
}

// SetAccess overwrites the access cookie after a silent rotation
func (k *Cookies) SetAccess(c *gin.Context, access string) {
	k.set(c, AccessCookie, access, int(k.opts.MaxAge.Seconds()))
}

// Clear expires both cookies
func (k *Cookies) Clear(c *gin.Context) {
	k.set(c, AccessCookie, "", -1)
	k.set(c, RefreshCookie, "", -1)
}

func (k *Cookies) set(c *gin.Context, name, value string, maxAge int) {
	if k.opts.Production {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(name, value, maxAge, k.opts.Path, k.opts.Domain, k.opts.Production, true)
}
