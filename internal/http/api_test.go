package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"account-api/internal/domain"
	"account-api/internal/repository/sqlite"
	"account-api/internal/security"
	"account-api/internal/service"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

type testServer struct {
	router *gin.Engine
	users  *sqlite.UserRepository
	hasher security.PasswordHasher
	clock  *stubClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	users := sqlite.NewUserRepository(db, sqlite.Options{Timeout: 5 * time.Second, Retries: 3})
	require.NoError(t, users.Init(context.Background()))

	log := logrus.New()
	log.SetOutput(io.Discard)
	clock := &stubClock{now: time.Now()}
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	issuer := security.NewTokenIssuer(clock, 0)

	handler := NewHandler(Services{
		Registration: service.NewRegistrationService(users, hasher, log),
		Auth:         service.NewAuthService(users, hasher, issuer, log),
		Guard:        service.NewSessionGuard(users, clock, log),
		Profile:      service.NewProfileService(users, hasher, log),
	}, NewMetrics(), log, "")

	router := gin.New()
	handler.RegisterRoutes(router)
	return &testServer{router: router, users: users, hasher: hasher, clock: clock}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var envelope map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func (s *testServer) seedUser(t *testing.T, username, name, password, token string, expiresAt time.Time) {
	t.Helper()
	hash, err := s.hasher.Hash(password)
	require.NoError(t, err)
	user := &domain.User{Username: username, PasswordHash: hash, Name: name}
	if token != "" {
		user.SetSession(token, expiresAt)
	}
	require.NoError(t, s.users.Save(context.Background(), user))
}

func registerBody() map[string]string {
	return map[string]string{"username": "test", "password": "rahasia", "name": "krisna"}
}

func TestRegisterLoginScenario(t *testing.T) {
	srv := newTestServer(t)

	rec, body := srv.do(t, http.MethodPost, "/api/users", registerBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", body["data"])
	assert.Nil(t, body["errors"])

	rec, body = srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "test", "password": "rahasia"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body["errors"])
	data := body["data"].(map[string]any)
	token := data["token"].(string)
	assert.GreaterOrEqual(t, len(token), 64)
	expected := srv.clock.now.Add(30 * 24 * time.Hour).UnixMilli()
	assert.InDelta(t, float64(expected), data["expiresAt"].(float64), 1000)

	rec, body = srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "test", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotNil(t, body["errors"])
	assert.Nil(t, body["data"])

	rec, body = srv.do(t, http.MethodGet, "/api/users/current", nil,
		map[string]string{DefaultTokenHeader: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"username": "test", "name": "krisna"}, body["data"])
}

func TestRegisterFailures(t *testing.T) {
	srv := newTestServer(t)

	t.Run("blank fields", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodPost, "/api/users",
			map[string]string{"username": "", "password": "", "name": ""}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["errors"], "username is required")
	})

	t.Run("malformed json", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodPost, "/api/users", "{not json", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", body["errors"])
	})

	t.Run("duplicate", func(t *testing.T) {
		srv.seedUser(t, "test", "krisna", "rahasia", "", time.Time{})
		rec, body := srv.do(t, http.MethodPost, "/api/users", registerBody(), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "username already registered", body["errors"])
	})
}

func TestLoginUnknownUser(t *testing.T) {
	srv := newTestServer(t)
	srv.seedUser(t, "test", "krisna", "rahasia", "", time.Time{})

	_, unknown := srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "ghost", "password": "rahasia"}, nil)
	rec, wrong := srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "test", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, unknown, wrong)
}

func TestCurrentUser(t *testing.T) {
	srv := newTestServer(t)
	now := srv.clock.now
	srv.seedUser(t, "test", "test", "rahasia", "valid", now.Add(time.Hour))
	srv.seedUser(t, "old", "old", "rahasia", "expired", now.Add(-time.Second))

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"token not sent", nil, http.StatusUnauthorized},
		{"unknown token", map[string]string{DefaultTokenHeader: "notfound"}, http.StatusUnauthorized},
		{"expired token", map[string]string{DefaultTokenHeader: "expired"}, http.StatusUnauthorized},
		{"valid token", map[string]string{DefaultTokenHeader: "valid"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := srv.do(t, http.MethodGet, "/api/users/current", nil, tt.headers)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Nil(t, body["errors"])
				assert.Equal(t, map[string]any{"username": "test", "name": "test"}, body["data"])
			} else {
				assert.NotNil(t, body["errors"])
				assert.Nil(t, body["data"])
			}
		})
	}
}

func TestUpdateCurrentUser(t *testing.T) {
	srv := newTestServer(t)
	srv.seedUser(t, "test", "test", "rahasia", "test", srv.clock.now.Add(time.Hour))

	t.Run("unauthorized", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodPatch, "/api/users/current", map[string]string{}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotNil(t, body["errors"])
	})

	t.Run("success", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodPatch, "/api/users/current",
			map[string]string{"name": "Krisna", "password": "Krisna123"},
			map[string]string{DefaultTokenHeader: "test"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, body["errors"])
		assert.Equal(t, map[string]any{"username": "test", "name": "Krisna"}, body["data"])

		user, err := srv.users.FindByUsername(context.Background(), "test")
		require.NoError(t, err)
		assert.True(t, srv.hasher.Verify("Krisna123", user.PasswordHash))
	})

	t.Run("invalid name", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodPatch, "/api/users/current",
			map[string]string{"name": ""},
			map[string]string{DefaultTokenHeader: "test"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotNil(t, body["errors"])
	})
}

func TestRequestIDAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rec, body := srv.do(t, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", body["data"])
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	const id = "6f1c2d9e-8b0a-4a43-9a43-2f6b1c7d8e90"
	rec, _ = srv.do(t, http.MethodGet, "/api/health", nil, map[string]string{requestIDHeader: id})
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	srv.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "x", "password": "y"}, nil)

	rec, _ = srv.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := rec.Body.String()
	assert.Contains(t, metrics, `account_logins_total{result="authentication"} 1`)
	assert.Contains(t, metrics, "account_http_request_duration_seconds")
}

func TestNotFoundUsesEnvelope(t *testing.T) {
	srv := newTestServer(t)
	rec, body := srv.do(t, http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", body["errors"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(service.KindValidation))
	assert.Equal(t, http.StatusBadRequest, statusFor(service.KindConflict))
	assert.Equal(t, http.StatusUnauthorized, statusFor(service.KindAuthentication))
	assert.Equal(t, http.StatusInternalServerError, statusFor(service.KindInternal))
}
