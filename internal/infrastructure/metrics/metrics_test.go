package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tourbook/internal/application/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/tours/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/tours/a", "/tours/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/tours/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestAuthCounters(t *testing.T) {
	m := New()
	m.Rotation(session.Reissued)
	m.Rotation(session.SessionRevoked)
	m.Rotation(session.Reissued)
	m.LoginAttempt("rejected")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RotationsTotal.WithLabelValues(session.Reissued.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RotationsTotal.WithLabelValues(session.SessionRevoked.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("rejected")))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.LoginAttempt("success")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `tourbook_auth_logins_total{result="success"} 1`)
}
