package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/auth"
	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/store/memstore"
	"github.com/cleantrack-dev/cleantrack/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type authFixture struct {
	router *gin.Engine
	tokens *auth.TokenManager
	repo   *memstore.Store
	owner  models.User
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()

	tokens, err := auth.NewTokenManager("secret", time.Hour)

	if err != nil {
		t.Fatalf("tokens: %v", err)
	}

	repo := memstore.New()
	owner := models.User{Name: "Olive", Email: "olive@example.com", PasswordHash: "x", Role: models.RoleOwner}

	if err := repo.CreateUser(context.Background(), &owner); err != nil {
		t.Fatalf("create owner: %v", err)
	}

	router := gin.New()
	router.Use(RequestID())

	authed := router.Group("/", AuthMiddleware(tokens, repo, quietLogger()))
	authed.GET("/me", func(c *gin.Context) {
		user := c.MustGet(types.ContextUserKey).(AuthenticatedUser)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": user.Role})
	})
	authed.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return authFixture{router: router, tokens: tokens, repo: repo, owner: owner}
}

func (f authFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	f := newAuthFixture(t)

	token, _, _ := f.tokens.Issue(f.owner.ID, models.RoleOwner)
	wrongRole, _, _ := f.tokens.Issue(f.owner.ID, models.RoleAdmin)
	ghost, _, _ := f.tokens.Issue(999, models.RoleOwner)

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) }, http.StatusOK},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", token) }, http.StatusUnauthorized},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"role mismatch", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+wrongRole) }, http.StatusUnauthorized},
		{"deleted user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+ghost) }, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		tc.setup(req)

		if w := f.do(req); w.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.name, tc.status, w.Code, w.Body.String())
		}
	}
}

func TestAuthMiddlewareStorageFailure(t *testing.T) {
	f := newAuthFixture(t)
	token, _, _ := f.tokens.Issue(f.owner.ID, models.RoleOwner)

	f.repo.Fail = errors.New("down")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	if w := f.do(req); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	f := newAuthFixture(t)
	token, _, _ := f.tokens.Issue(f.owner.ID, models.RoleOwner)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	if w := f.do(req); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	f := newAuthFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/me", nil))

	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")

	if got := f.do(req).Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected the incoming id echoed, got %q", got)
	}
}

type countingLimiter struct {
	counts map[string]int
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, int, error) {
	if l.err != nil {
		return false, 0, l.err
	}

	l.counts[key]++

	return l.counts[key] <= limit, l.counts[key], nil
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int{}}

	router := gin.New()
	router.POST("/login", RateLimit(limiter, "auth", 2, time.Minute, quietLogger()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := []int{}

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	limiter.err = errors.New("redis down")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("limiter failure must not block requests, got %d", w.Code)
	}
}
