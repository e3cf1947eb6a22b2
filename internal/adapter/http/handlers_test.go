package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	adapthttp "sucrelinda/internal/adapter/http"
	"sucrelinda/internal/adapter/memory"
	"sucrelinda/internal/app"
	"sucrelinda/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test-server helper
// ---------------------------------------------------------------------------

const (
	adminEmail    = "admin@example.com"
	adminPassword = "adminpass123"
)

type testEnv struct {
	ts   *httptest.Server
	db   *memory.DB
	auth *app.AuthService
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	db := memory.New()
	refresh := memory.NewRefreshTokenRepo(db)
	tokens, err := token.New("test-secret", time.Hour)
	require.NoError(t, err)

	authSvc := app.NewAuthService(db, refresh, tokens, 7*24*time.Hour)
	accountSvc := app.NewAccountService(db, refresh)
	require.NoError(t, authSvc.BootstrapAdmin(context.Background(), adminEmail, adminPassword))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(adapthttp.New(authSvc, accountSvc, nil, logger).Handler())
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, db: db, auth: authSvc}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func (e *testEnv) register(t *testing.T, name, email, password string) (userID, accessToken, refreshToken string) {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := body["user"].(map[string]any)
	return user["id"].(string), body["token"].(string), body["refreshToken"].(string)
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": adminEmail, "password": adminPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	e := newTestServer(t)

	resp, body := e.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
}

func TestRegisterThenSessionCheck(t *testing.T) {
	e := newTestServer(t)

	_, access, _ := e.register(t, "A", "a@b.com", "longenough1")

	resp, body := e.do(t, http.MethodGet, "/api/auth/session", access, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@b.com", user["email"])
}

func TestRegister_NeverLeaksPasswordHash(t *testing.T) {
	e := newTestServer(t)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{
		"name": "A", "email": "a@b.com", "password": "longenough1",
	}))
	resp, err := http.Post(e.ts.URL+"/api/auth/register", "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotContains(t, string(raw), "PasswordHash")
	assert.NotContains(t, string(raw), "passwordHash")
	assert.NotContains(t, string(raw), "$2a$") // bcrypt prefix
}

func TestRegister_BadInput(t *testing.T) {
	e := newTestServer(t)

	resp, _ := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "not-an-email", "password": "longenough1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@b.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newTestServer(t)
	e.register(t, "A", "a@b.com", "longenough1")

	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@b.com", "password": "different12",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "email already registered", body["error"])
}

func TestLogin_UnknownEmailIsGeneric(t *testing.T) {
	e := newTestServer(t)

	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "never@registered.com", "password": "whatever123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", body["error"])
	assert.Len(t, body, 1)
}

func TestLogin_WrongPasswordSameMessage(t *testing.T) {
	e := newTestServer(t)
	e.register(t, "A", "a@b.com", "longenough1")

	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@b.com", "password": "wrongpass99",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", body["error"])
}

func TestSession_MissingOrMalformedHeader(t *testing.T) {
	e := newTestServer(t)

	resp, _ := e.do(t, http.MethodGet, "/api/auth/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, e.ts.URL+"/api/auth/session", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Token abc")
	malformed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer malformed.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, malformed.StatusCode)
}

func TestDeactivatedAccountRejectedDespiteValidToken(t *testing.T) {
	e := newTestServer(t)
	admin := e.adminToken(t)
	userID, access, _ := e.register(t, "A", "a@b.com", "longenough1")

	resp, _ := e.do(t, http.MethodPatch, "/api/admin/accounts/"+userID, admin, map[string]any{
		"active": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The unexpired token must now be rejected with 403, not accepted.
	resp, body := e.do(t, http.MethodGet, "/api/auth/session", access, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "account is deactivated", body["error"])
}

func TestAdminEndpointRejectsUserRole(t *testing.T) {
	e := newTestServer(t)
	_, access, _ := e.register(t, "A", "a@b.com", "longenough1")

	resp, body := e.do(t, http.MethodGet, "/api/admin/accounts", access, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["error"])
}

func TestTamperedRoleClaimIsRejectedOutright(t *testing.T) {
	e := newTestServer(t)
	_, access, _ := e.register(t, "A", "a@b.com", "longenough1")

	parts := strings.Split(access, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(
		[]byte(strings.Replace(string(payload), `"USER"`, `"ADMIN"`, 1)))
	forged := strings.Join(parts, ".")

	// 401 from the verifier, not a 403 role mismatch.
	resp, _ := e.do(t, http.MethodGet, "/api/admin/accounts", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRotation(t *testing.T) {
	e := newTestServer(t)
	_, _, refresh := e.register(t, "A", "a@b.com", "longenough1")

	resp, body := e.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := body["refreshToken"].(string)
	assert.NotEqual(t, refresh, rotated)
	assert.NotEmpty(t, body["token"])

	// The consumed token no longer works.
	resp, _ = e.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	e := newTestServer(t)
	_, _, refresh := e.register(t, "A", "a@b.com", "longenough1")

	resp, _ := e.do(t, http.MethodPost, "/api/auth/logout", "", map[string]string{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateProfile(t *testing.T) {
	e := newTestServer(t)
	_, access, _ := e.register(t, "A", "a@b.com", "longenough1")

	resp, body := e.do(t, http.MethodPatch, "/api/me", access, map[string]string{
		"name": "Linda",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Linda", user["name"])

	resp, body = e.do(t, http.MethodGet, "/api/me", access, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Linda", body["user"].(map[string]any)["name"])
}

func TestAdminListAccounts(t *testing.T) {
	e := newTestServer(t)
	admin := e.adminToken(t)
	e.register(t, "A", "a@b.com", "longenough1")
	e.register(t, "B", "b@b.com", "longenough1")

	resp, body := e.do(t, http.MethodGet, "/api/admin/accounts?limit=2", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["total"]) // admin + two users
	assert.Len(t, body["accounts"], 2)
}

func TestAdminPromoteUser(t *testing.T) {
	e := newTestServer(t)
	admin := e.adminToken(t)
	userID, access, _ := e.register(t, "A", "a@b.com", "longenough1")

	resp, body := e.do(t, http.MethodPatch, "/api/admin/accounts/"+userID, admin, map[string]any{
		"role": "ADMIN",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ADMIN", body["user"].(map[string]any)["role"])

	// The promotion is effective with the user's existing token, because
	// authorization reads the live role rather than the token snapshot.
	resp, _ = e.do(t, http.MethodGet, "/api/admin/accounts", access, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminUpdate_BadInput(t *testing.T) {
	e := newTestServer(t)
	admin := e.adminToken(t)
	userID, _, _ := e.register(t, "A", "a@b.com", "longenough1")

	resp, _ := e.do(t, http.MethodPatch, "/api/admin/accounts/"+userID, admin, map[string]any{
		"role": "SUPERUSER",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPatch, "/api/admin/accounts/"+userID, admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPatch, "/api/admin/accounts/missing", admin, map[string]any{
		"active": false,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminDeleteAccount(t *testing.T) {
	e := newTestServer(t)
	admin := e.adminToken(t)
	userID, _, _ := e.register(t, "A", "a@b.com", "longenough1")

	resp, _ := e.do(t, http.MethodDelete, "/api/admin/accounts/"+userID, admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The deleted account can no longer log in, and the generic message
	// does not reveal that it ever existed.
	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@b.com", "password": "longenough1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", body["error"])
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	e := newTestServer(t)
	admin := e.adminToken(t)

	resp, body := e.do(t, http.MethodGet, "/api/me", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adminID := body["user"].(map[string]any)["id"].(string)

	resp, _ = e.do(t, http.MethodDelete, "/api/admin/accounts/"+adminID, admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSSODisabled(t *testing.T) {
	e := newTestServer(t)

	resp, _ := e.do(t, http.MethodGet, "/api/auth/sso/login", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
