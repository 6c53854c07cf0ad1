package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/storifal/storifal/internal/domain"
	"github.com/storifal/storifal/internal/dto"
	"github.com/storifal/storifal/internal/jwtsigner"
	"github.com/storifal/storifal/internal/service/impl"
	"github.com/storifal/storifal/internal/store"
	"github.com/storifal/storifal/internal/store/storetest"
)

type captureNotifier struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (c *captureNotifier) Dispatch(_ context.Context, to, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[to] = token
}

func (c *captureNotifier) tokenFor(to string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens[to]
}

type testServer struct {
	handler  http.Handler
	st       *store.Store
	tokens   *impl.TokenServiceImpl
	notifier *captureNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st := storetest.NewSQLite(t)
	signer, err := jwtsigner.NewHS256("test-secret", "storifal-test")
	require.NoError(t, err)
	tokens := impl.NewTokenServiceHS256(impl.TokenConfig{VerificationTTL: 30 * time.Minute, AccessTTL: time.Hour}, signer)
	notifier := &captureNotifier{tokens: map[string]string{}}

	auth := impl.NewAuthServiceImpl(st, impl.NewPasswordServiceBcrypt(bcrypt.MinCost), tokens, notifier, impl.WithLogger(logger))
	contacts := impl.NewContactServiceImpl(st, logger)

	h := NewRouter(RouterConfig{Logger: logger}, auth, contacts, tokens)
	return &testServer{handler: h, st: st, tokens: tokens, notifier: notifier}
}

func (s *testServer) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v))
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["message"].(string)
}

const registerBody = `{"name":"Ada","email":"ada@storifal.test","password":"Abc123!"}`

func TestVerifyEmailReusedLinkIsAlreadyVerified(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/auth/register", registerBody).Code)
	token := s.notifier.tokenFor("ada@storifal.test")
	require.NotEmpty(t, token)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/auth/verify-email?token="+token, "").Code)

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodGet, "/api/auth/verify-email?token="+token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email already verified.", message(t, rec))
		assert.NotEqual(t, "Invalid or expired token.", message(t, rec))
	}
}

func TestCORSCredentials(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/", "", "Origin", "https://anywhere.example")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewRouter(RouterConfig{CORSOrigins: []string{"https://app.storifal.test"}, Logger: logger}, nil, nil, s.tokens)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.storifal.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.storifal.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRootHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, welcome, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, "ok", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterVerifyLoginMe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[dto.RegisterResponse](t, rec)
	assert.Equal(t, "Verification link sent to your email. Please verify your account.", reg.Message)
	_, err := uuid.Parse(reg.UserID)
	require.NoError(t, err)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "token")

	// unverified login
	rec = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@storifal.test","password":"Abc123!"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Email is not verified. Please verify your email.", message(t, rec))

	token := s.notifier.tokenFor("ada@storifal.test")
	require.NotEmpty(t, token)

	rec = s.do(t, http.MethodGet, "/api/auth/verify-email?token="+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email verified successfully. You can now log in.", message(t, rec))

	// A consumed link reports the account state rather than a bad token.
	rec = s.do(t, http.MethodGet, "/api/auth/verify-email?token="+token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already verified.", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@storifal.test","password":"Abc123!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[dto.LoginResponse](t, rec)
	assert.Equal(t, "Login successful.", login.Message)
	assert.Equal(t, reg.UserID, login.User.ID)
	assert.Equal(t, "Ada", login.User.Name)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = s.do(t, http.MethodGet, "/api/auth/me", "", "Authorization", "Bearer "+login.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[dto.MeResponse](t, rec)
	assert.Equal(t, reg.UserID, me.User.ID)
	assert.True(t, me.User.IsVerified)
	assert.Equal(t, domain.AuthTypeManual, me.User.AuthType)
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/auth/register", registerBody).Code)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing fields", `{"email":"b@storifal.test"}`, "All fields are required."},
		{"malformed json", `{"email":`, "All fields are required."},
		{"bad email", `{"name":"B","email":"nope","password":"Abc123!"}`, "Invalid email format."},
		{"disposable", `{"name":"B","email":"b@yopmail.com","password":"Abc123!"}`, "Disposable emails are not allowed."},
		{"weak password", `{"name":"B","email":"b@storifal.test","password":"abc123"}`,
			"Password must contain an uppercase letter, contain a special character (@$!%*?&)."},
		{"duplicate", registerBody, "Email already exists."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.msg, message(t, rec))
		})
	}
}

func TestVerifyEmailErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/auth/verify-email", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired token.", message(t, rec))

	rec = s.do(t, http.MethodGet, "/api/auth/verify-email?token=abc.def.ghi", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired token.", message(t, rec))

	ghost, err := s.tokens.IssueVerification("ghost@storifal.test")
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/auth/verify-email?token="+ghost, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found.", message(t, rec))
}

func TestCheckEmail(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/auth/register", registerBody).Code)

	rec := s.do(t, http.MethodPost, "/api/auth/check-email", `{"email":"ada@storifal.test"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists":true}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/auth/check-email", `{"email":"other@storifal.test"}`)
	assert.JSONEq(t, `{"exists":false}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/auth/check-email", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is required.", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/auth/check-email", `{"email":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email format.", message(t, rec))
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@storifal.test"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email and password are required.", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email format.", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"ghost@storifal.test","password":"Abc123!"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password.", message(t, rec))
}

func TestMeRequiresBearer(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgNotAuthorized, message(t, rec))

	rec = s.do(t, http.MethodGet, "/api/auth/me", "", "Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	vtok, err := s.tokens.IssueVerification("ada@storifal.test")
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/auth/me", "", "Authorization", "Bearer "+vtok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid token for a user that no longer exists
	atok, err := s.tokens.IssueAccess(&domain.User{ID: uuid.New(), Email: "gone@storifal.test"})
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/auth/me", "", "Authorization", "Bearer "+atok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found.", message(t, rec))
}

func TestContact(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/contact", `{"fullName":"Grace","email":"grace@storifal.test","message":"Hi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Contact form submitted successfully", body["message"])
	contact := body["contact"].(map[string]any)
	assert.Equal(t, "Grace", contact["fullName"])
	assert.NotEmpty(t, contact["id"])
	assert.NotEmpty(t, contact["createdAt"])

	rec = s.do(t, http.MethodPost, "/api/contact", `{"fullName":"Grace"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required", message(t, rec))

	var n int64
	require.NoError(t, s.st.DB.Model(&domain.Contact{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", "X-Request-ID", "abc")
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}
