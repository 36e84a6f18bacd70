package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/quizgate/internal/api/http/handlers"
	"github.com/spec-kit/quizgate/internal/auth"
	"github.com/spec-kit/quizgate/internal/domain"
	"github.com/spec-kit/quizgate/internal/observability"
	"github.com/spec-kit/quizgate/internal/repository"
	"github.com/spec-kit/quizgate/internal/service"
)

const testPassword = "correct-password"

// stubAuthenticator keeps accounts in memory and mints real tokens.
type stubAuthenticator struct {
	tokens  *auth.TokenManager
	users   map[string]*domain.User
	logouts []*auth.Identity
}

func (s *stubAuthenticator) Register(_ context.Context, in service.RegisterInput) (*service.Session, error) {
	role, ok := domain.ParseRole(in.Role)
	if !ok || len(in.Password) < 8 {
		return nil, service.ErrInvalidInput
	}
	email := domain.NormalizeEmail(in.Email)
	if _, exists := s.users[email]; exists {
		return nil, repository.ErrEmailTaken
	}
	user := &domain.User{ID: "id-" + email, Name: in.Name, Email: in.Email, EmailNormalized: email, Role: role}
	s.users[email] = user
	return s.session(user)
}

func (s *stubAuthenticator) Login(_ context.Context, email, password string) (*service.Session, error) {
	user, ok := s.users[domain.NormalizeEmail(email)]
	if email == "throttled@example.com" {
		return nil, service.ErrLoginThrottled
	}
	if !ok || password != testPassword {
		return nil, auth.ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *stubAuthenticator) Logout(_ context.Context, identity *auth.Identity) {
	s.logouts = append(s.logouts, identity)
}

func (s *stubAuthenticator) CurrentUser(_ context.Context, identity auth.Identity) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == identity.SubjectID {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubAuthenticator) session(user *domain.User) (*service.Session, error) {
	token, payload, err := s.tokens.Mint(auth.Claims{SubjectID: user.ID, Email: user.EmailNormalized, Role: user.Role})
	if err != nil {
		return nil, err
	}
	return &service.Session{User: user, Token: token, Payload: payload}, nil
}

type testServer struct {
	app     *fiber.App
	authn   *stubAuthenticator
	tokens  *auth.TokenManager
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	tokens, err := auth.NewTokenManager("router-test-secret", time.Hour)
	require.NoError(t, err)

	authn := &stubAuthenticator{tokens: tokens, users: map[string]*domain.User{}}
	metrics := observability.NewMetrics()
	gate := auth.NewGate(tokens, auth.DefaultRoutes(), auth.DefaultGateConfig())
	cookies := auth.CookieConfig{Name: auth.DefaultCookieName, MaxAge: tokens.Lifetime()}

	app := NewApp("quizgate")
	logger := zap.NewNop()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("quizgate", "test", nil, nil, metrics),
		Auth:           handlers.NewAuthHandler(authn, tokens, cookies, gate),
		Pages:          handlers.NewPagesHandler("quizgate"),
		GateMiddleware: auth.NewGateMiddleware(gate, cookies, logger, metrics),
	})

	return testServer{app: app, authn: authn, tokens: tokens, metrics: metrics}
}

type result struct {
	status   int
	location string
	cookie   string
	cleared  bool
	body     string
}

func (s testServer) do(t *testing.T, method, path, token string, payload any) result {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderCookie, auth.DefaultCookieName+"="+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := result{status: resp.StatusCode, location: resp.Header.Get(fiber.HeaderLocation), body: string(raw)}
	for _, c := range resp.Cookies() {
		if c.Name != auth.DefaultCookieName {
			continue
		}
		if c.Value == "" {
			out.cleared = true
		} else {
			out.cookie = c.Value
		}
	}
	return out
}

func (s testServer) signup(t *testing.T, email, role string) string {
	t.Helper()
	res := s.do(t, fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"name": "Test", "email": email, "password": testPassword, "role": role,
	})
	require.Equal(t, fiber.StatusCreated, res.status, res.body)
	require.NotEmpty(t, res.cookie)
	return res.cookie
}

func TestSignupSetsCookieAndHidesToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	res := s.do(t, fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"name": "Ada", "email": "ada@example.com", "password": testPassword, "role": "instructor",
	})
	require.Equal(t, fiber.StatusCreated, res.status)
	require.NotEmpty(t, res.cookie)
	assert.NotContains(t, res.body, res.cookie)
	assert.NotContains(t, res.body, "password")

	var body struct {
		Data struct {
			User struct {
				Role string `json:"role"`
			} `json:"user"`
			Redirect string `json:"redirect"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.body), &body))
	assert.Equal(t, "instructor", body.Data.User.Role)
	assert.Equal(t, "/instructor/dashboard", body.Data.Redirect)

	dup := s.do(t, fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"name": "Ada", "email": "ADA@example.com", "password": testPassword, "role": "student",
	})
	assert.Equal(t, fiber.StatusConflict, dup.status)

	bad := s.do(t, fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"name": "Ada", "email": "x@example.com", "password": testPassword, "role": "admin",
	})
	assert.Equal(t, fiber.StatusBadRequest, bad.status)
}

func TestLoginErrors(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.signup(t, "bo@example.com", "student")

	wrong := s.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "bo@example.com", "password": "nope-nope"})
	unknown := s.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "who@example.com", "password": testPassword})
	assert.Equal(t, fiber.StatusUnauthorized, wrong.status)
	assert.Equal(t, wrong.body, unknown.body)
	assert.Empty(t, wrong.cookie)

	throttled := s.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "throttled@example.com", "password": testPassword})
	assert.Equal(t, fiber.StatusTooManyRequests, throttled.status)

	ok := s.do(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "BO@example.com", "password": testPassword})
	assert.Equal(t, fiber.StatusOK, ok.status)
	assert.NotEmpty(t, ok.cookie)
}

func TestRoleScopedRoutes(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	student := s.signup(t, "student@example.com", "student")
	instructor := s.signup(t, "prof@example.com", "instructor")

	cases := []struct {
		name     string
		path     string
		token    string
		status   int
		location string
	}{
		{"student dashboard page", "/student/dashboard", student, fiber.StatusOK, ""},
		{"student on instructor page", "/instructor/dashboard", student, fiber.StatusFound, "/student/dashboard"},
		{"instructor on student page", "/student/dashboard", instructor, fiber.StatusFound, "/instructor/dashboard"},
		{"anonymous page", "/instructor/dashboard", "", fiber.StatusFound, "/login"},
		{"student api", "/api/student/dashboard", student, fiber.StatusOK, ""},
		{"student on instructor api", "/api/instructor/dashboard", student, fiber.StatusForbidden, ""},
		{"anonymous api", "/api/instructor/dashboard", "", fiber.StatusUnauthorized, ""},
		{"login page while signed in", "/login", instructor, fiber.StatusFound, "/instructor/dashboard"},
		{"home", "/", "", fiber.StatusOK, ""},
		{"health", "/health/live", "", fiber.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := s.do(t, fiber.MethodGet, tc.path, tc.token, nil)
			assert.Equal(t, tc.status, res.status, res.body)
			assert.Equal(t, tc.location, res.location)
			assert.False(t, res.cleared)
		})
	}

	snapshot := s.metrics.Snapshot()
	assert.Positive(t, snapshot.Decisions["redirect"])
	assert.Positive(t, snapshot.Decisions["deny-403"])
}

func TestMeReturnsCurrentUser(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	token := s.signup(t, "me@example.com", "student")

	res := s.do(t, fiber.MethodGet, "/api/me", token, nil)
	require.Equal(t, fiber.StatusOK, res.status)
	assert.Contains(t, res.body, `"email":"me@example.com"`)
	assert.Contains(t, res.body, `"role":"student"`)

	orphan, _, err := s.tokens.Mint(auth.Claims{SubjectID: "deleted", Role: domain.RoleStudent})
	require.NoError(t, err)
	gone := s.do(t, fiber.MethodGet, "/api/me", orphan, nil)
	assert.Equal(t, fiber.StatusUnauthorized, gone.status)
	assert.True(t, gone.cleared)
}

func TestDeadTokenIsCleared(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	expired, _, err := s.tokens.MintWithLifetime(auth.Claims{SubjectID: "x", Role: domain.RoleStudent}, -time.Second)
	require.NoError(t, err)

	res := s.do(t, fiber.MethodGet, "/student/dashboard", expired, nil)
	assert.Equal(t, fiber.StatusFound, res.status)
	assert.Equal(t, "/login", res.location)
	assert.True(t, res.cleared)

	res = s.do(t, fiber.MethodGet, "/api/me", expired+"x", nil)
	assert.Equal(t, fiber.StatusUnauthorized, res.status)
	assert.True(t, res.cleared)
}

func TestLogoutClearsCookie(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	token := s.signup(t, "out@example.com", "student")

	res := s.do(t, fiber.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, fiber.StatusNoContent, res.status)
	assert.True(t, res.cleared)

	res = s.do(t, fiber.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, fiber.StatusNoContent, res.status)

	require.Len(t, s.authn.logouts, 2)
	require.NotNil(t, s.authn.logouts[0])
	assert.Equal(t, "id-out@example.com", s.authn.logouts[0].SubjectID)
	assert.Nil(t, s.authn.logouts[1])
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	req := httptest.NewRequest(fiber.MethodGet, "/health/live", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestCaseVariantPathsNeverReachHandlers(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	student := s.signup(t, "case@example.com", "student")

	for _, path := range []string{"/API/ME", "/LOGIN", "/INSTRUCTOR/dashboard", "/Student/Dashboard", "/API/INSTRUCTOR/DASHBOARD"} {
		t.Run("authenticated "+path, func(t *testing.T) {
			res := s.do(t, fiber.MethodGet, path, student, nil)
			assert.Equal(t, fiber.StatusNotFound, res.status, res.body)
			assert.NotContains(t, res.body, "<html")
		})
		t.Run("anonymous "+path, func(t *testing.T) {
			res := s.do(t, fiber.MethodGet, path, "", nil)
			assert.Equal(t, fiber.StatusFound, res.status)
			assert.Equal(t, "/login", res.location)
		})
	}

	res := s.do(t, fiber.MethodPost, "/API/AUTH/LOGIN", "", fiber.Map{"email": "case@example.com", "password": testPassword})
	assert.Empty(t, res.cookie, "login handler must not run for a case variant")
}

func TestUnknownAuthRouteIsNotFound(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	for _, method := range []string{fiber.MethodGet, fiber.MethodPost} {
		res := s.do(t, method, "/api/auth/unknown", "", nil)
		assert.Equal(t, fiber.StatusNotFound, res.status, method)
	}
}

func TestErrorMetricsKeyedByRoute(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	for _, path := range []string{"/api/random-1", "/api/random-2", "/api/random-3"} {
		res := s.do(t, fiber.MethodGet, path, "", nil)
		require.Equal(t, fiber.StatusUnauthorized, res.status)
	}

	errs := s.metrics.Snapshot().Errors
	require.Len(t, errs, 1)
	for key, count := range errs {
		assert.NotContains(t, key, "random")
		assert.Equal(t, int64(3), count)
	}
}
