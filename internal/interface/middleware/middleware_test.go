package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func newJWT(t *testing.T) *helpers.JWTManager {
	t.Helper()
	m, err := helpers.NewJWTManager(bytes.Repeat([]byte("m"), helpers.MinSigningKeyBytes), "event-api", time.Hour)
	require.NoError(t, err)
	return m
}

// principalEcho reports what the filter attached, without rejecting anything.
func principalEcho(c *gin.Context) {
	p := PrincipalFrom(c)
	if p == nil {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, p.AccountID+"|"+p.Email+"|"+p.Role.String()+"|"+c.GetString(CtxUserIDKey))
}

func serve(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	jwt := newJWT(t)
	r := gin.New()
	r.Use(Authenticate(jwt, helpers.NewNopLogger()))
	r.GET("/who", principalEcho)

	tok, _, err := jwt.Mint("acc-1", "a@x.com", "PREMIUM")
	require.NoError(t, err)

	other, err := helpers.NewJWTManager(bytes.Repeat([]byte("x"), helpers.MinSigningKeyBytes), "event-api", time.Hour)
	require.NoError(t, err)
	foreign, _, err := other.Mint("acc-1", "a@x.com", "ADMIN")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer " + tok, "acc-1|a@x.com|PREMIUM|acc-1"},
		{"no header", "", "anonymous"},
		{"lowercase scheme", "bearer " + tok, "anonymous"},
		{"no space", "Bearer" + tok, "anonymous"},
		{"garbage", "Bearer not-a-token", "anonymous"},
		{"foreign key", "Bearer " + foreign, "anonymous"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := map[string]string{}
			if tc.header != "" {
				h["Authorization"] = tc.header
			}
			w := serve(r, http.MethodGet, "/who", h)
			assert.Equal(t, http.StatusOK, w.Code, "the filter never rejects")
			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}

func TestAuthenticate_UnknownRoleIsAnonymous(t *testing.T) {
	jwt := newJWT(t)
	r := gin.New()
	r.Use(Authenticate(jwt, helpers.NewNopLogger()))
	r.GET("/who", principalEcho)

	tok, _, err := jwt.Mint("acc-1", "a@x.com", "ROOT")
	require.NoError(t, err)
	w := serve(r, http.MethodGet, "/who", map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestRequireAuthAndRole(t *testing.T) {
	jwt := newJWT(t)
	r := gin.New()
	r.Use(Authenticate(jwt, helpers.NewNopLogger()))
	r.GET("/me", RequireAuth(), principalEcho)
	r.GET("/admin", RequireRole(entity.RoleAdmin), principalEcho)

	basic, _, err := jwt.Mint("acc-1", "a@x.com", "BASIC")
	require.NoError(t, err)
	admin, _, err := jwt.Mint("acc-2", "root@x.com", "ADMIN")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + basic}).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/admin", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + basic}).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + admin}).Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(RealIP(false))
	r.GET("/limited", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil, helpers.NewNopLogger()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := serve(r, http.MethodGet, "/limited", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/limited", nil).Code)

	w = serve(r, http.MethodGet, "/limited", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/limited", nil).Code)
}

func TestRateLimit_AllowAndFailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(RealIP(false))
	r.GET("/private", RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPrivateIP(), nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	// httptest requests come from 192.0.2.1, a documentation address, so seed a private one
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	}

	mr.Close()
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/private", nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/private", nil).Code)
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.GET("/trusted", RealIP(true), func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIPKey)) })
	r.GET("/untrusted", RealIP(false), func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIPKey)) })

	h := map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}
	assert.Equal(t, "203.0.113.7", serve(r, http.MethodGet, "/trusted", h).Body.String())
	assert.Equal(t, "192.0.2.1", serve(r, http.MethodGet, "/untrusted", h).Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestIDKey)) })

	w := serve(r, http.MethodGet, "/", nil)
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))

	const given = "6f1f6b5e-3d2a-4c1b-9a7e-0c2b1e4d5f60"
	w = serve(r, http.MethodGet, "/", map[string]string{"X-Request-ID": given})
	assert.Equal(t, given, w.Body.String())

	w = serve(r, http.MethodGet, "/", map[string]string{"X-Request-ID": "<script>"})
	assert.NotEqual(t, "<script>", w.Body.String())
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(RequestIDMiddleware(), AccessLog(logger))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(r, http.MethodGet, "/x", map[string]string{"Authorization": "Bearer secret-token"})
	out := buf.String()
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"level":"warning"`)
	assert.NotContains(t, out, "secret-token")
}

func TestLocalRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RealIP(false))
	r.GET("/local", LocalRateLimit(2, time.Hour, KeyByIP(), nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/local", nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/local", nil).Code)

	w := serve(r, http.MethodGet, "/local", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1800", w.Header().Get("Retry-After"))

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/local", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLimiterStore_SweepsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	s := &limiterStore{limiters: map[string]*limiterEntry{}, every: 1, burst: 1, lastSweep: now}

	s.get("a", now)
	s.get("b", now.Add(10*time.Minute))
	s.get("c", now.Add(20*time.Minute))

	assert.NotContains(t, s.limiters, "a")
	assert.Contains(t, s.limiters, "b")
	assert.Contains(t, s.limiters, "c")
}
