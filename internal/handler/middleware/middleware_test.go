package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/handler/response"
	"github.com/andressep95/city-news-api/internal/repository"
	"github.com/andressep95/city-news-api/pkg/blacklist"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubVerifier struct {
	payloads map[string]*domain.TokenPayload
}

func (v *stubVerifier) Verify(_ context.Context, token string) (*domain.TokenPayload, error) {
	p, ok := v.payloads[token]
	if !ok {
		return nil, errors.New("signature is invalid")
	}
	return p, nil
}

type stubUsers struct {
	users map[string]*domain.User
	err   error
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

type authEnv struct {
	app       *fiber.App
	ann       *domain.User
	admin     *domain.User
	blacklist *blacklist.TokenBlacklist
	redis     *miniredis.Miniredis
	users     *stubUsers
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exp := time.Now().Add(time.Hour)
	env := &authEnv{
		ann:       &domain.User{ID: uuid.New(), Email: "ann@x.com", Role: domain.RoleUser},
		admin:     &domain.User{ID: uuid.New(), Email: "root@x.com", Role: domain.RoleAdmin},
		blacklist: blacklist.NewTokenBlacklist(client),
		redis:     mr,
	}
	env.users = &stubUsers{users: map[string]*domain.User{
		env.ann.Email:   env.ann,
		env.admin.Email: env.admin,
	}}
	verifier := &stubVerifier{payloads: map[string]*domain.TokenPayload{
		"ann-token":   {Subject: "ann@x.com", Email: "ann@x.com", ExpiresAt: exp},
		"admin-token": {Subject: "root@x.com", Email: "root@x.com", ExpiresAt: exp},
		"no-email":    {Subject: "someone", ExpiresAt: exp},
		"ghost-token": {Subject: "ghost@x.com", Email: "ghost@x.com", ExpiresAt: exp},
	}}

	env.app = fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(false)})
	auth := AuthMiddleware(verifier, env.users, env.blacklist)
	env.app.Get("/me", auth, func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return errors.New("principal missing")
		}
		return c.JSON(fiber.Map{"userId": p.UserID, "role": p.Role, "token": p.Token})
	})
	env.app.Get("/admin", auth, RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return env
}

func do(t *testing.T, app *fiber.App, method, path, token string) (*http.Response, response.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var env response.Envelope
	if resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON && resp.StatusCode >= 400 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	env := newAuthEnv(t)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "Authorization token is required"},
		{"wrong scheme", "Basic abc", "Authorization token is required"},
		{"lowercase bearer", "bearer ann-token", "Authorization token is required"},
		{"empty token", "Bearer ", "Authorization token is required"},
		{"bad signature", "Bearer forged", "Invalid or expired token"},
		{"no email claim", "Bearer no-email", "Token missing email claim"},
		{"unknown user", "Bearer ghost-token", "User not found for this token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, env.app, "GET", "/me", tt.header)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.message, body.Message)
			assert.False(t, body.Success)
		})
	}
}

func TestAuthMiddleware_StoresPrincipal(t *testing.T) {
	env := newAuthEnv(t)

	resp, _ := do(t, env.app, "GET", "/me", "Bearer ann-token")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		UserID uuid.UUID   `json:"userId"`
		Role   domain.Role `json:"role"`
		Token  string      `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, env.ann.ID, got.UserID)
	assert.Equal(t, domain.RoleUser, got.Role)
	assert.Equal(t, "ann-token", got.Token)
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	env := newAuthEnv(t)
	require.NoError(t, env.blacklist.Revoke(context.Background(), "ann-token", time.Now().Add(time.Hour)))

	resp, body := do(t, env.app, "GET", "/me", "Bearer ann-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token has been revoked", body.Message)
}

func TestAuthMiddleware_BlacklistDownIsServerError(t *testing.T) {
	env := newAuthEnv(t)
	env.redis.Close()

	resp, _ := do(t, env.app, "GET", "/me", "Bearer ann-token")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAuthMiddleware_UserStoreFailureIsServerError(t *testing.T) {
	env := newAuthEnv(t)
	env.users.err = errors.New("db down")

	resp, _ := do(t, env.app, "GET", "/me", "Bearer ann-token")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAuthMiddleware_NilRevocationChecker(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "ann@x.com", Role: domain.RoleUser}
	verifier := &stubVerifier{payloads: map[string]*domain.TokenPayload{"t": {Subject: "ann@x.com", Email: "ann@x.com"}}}

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(false)})
	app.Get("/me", AuthMiddleware(verifier, &stubUsers{users: map[string]*domain.User{"ann@x.com": user}}, nil), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, _ := do(t, app, "GET", "/me", "Bearer t")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	env := newAuthEnv(t)

	resp, body := do(t, env.app, "GET", "/admin", "Bearer ann-token")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Admin access required", body.Message)

	resp, _ = do(t, env.app, "GET", "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, env.app, "GET", "/admin", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type observedRequest struct {
	method, route string
	status        int
}

type recordingObserver struct {
	requests []observedRequest
}

func (r *recordingObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	r.requests = append(r.requests, observedRequest{method, route, status})
}

func TestLoggerMiddleware_LogsRenderedStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	obs := &recordingObserver{}

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(true)})
	app.Use(requestid.New())
	app.Use(LoggerMiddleware(zap.New(core).Sugar(), obs))
	app.Use(RecoveryMiddleware())
	app.Get("/sessions/:id", func(c *fiber.Ctx) error {
		return domain.ErrNotFound("Session not found")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("nil map")
	})

	resp, body := do(t, app, "GET", "/sessions/42", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Session not found", body.Message)

	resp, body = do(t, app, "GET", "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body.Message)

	require.Len(t, obs.requests, 2)
	assert.Equal(t, observedRequest{"GET", "/sessions/:id", 404}, obs.requests[0])
	assert.Equal(t, 500, obs.requests[1].status)

	entries := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/sessions/:id", fields["route"])
	assert.EqualValues(t, 404, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimiter(time.Minute, 2))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, _ := do(t, app, "GET", "/", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := do(t, app, "GET", "/", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests, please try again later.", body.Message)
}

func TestCORSMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(CORSMiddleware("https://admin.example.com"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://admin.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
