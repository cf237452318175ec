package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk/pkg/admin"
	"github.com/coursedesk/coursedesk/pkg/adminstore"
	"github.com/coursedesk/coursedesk/pkg/courses"
	"github.com/coursedesk/coursedesk/pkg/gateway"
	"github.com/coursedesk/coursedesk/pkg/identity"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

type serverFixture struct {
	server  *Server
	admins  *adminstore.MemoryStore
	courses *courses.MemoryStore
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	provider := identity.NewStaticProvider(map[string]string{
		"admin@example.com":  "correct-password",
		"viewer@example.com": "viewer-password",
	}, time.Hour)
	admins := adminstore.NewMemoryStore()
	courseStore := courses.NewMemoryStore()
	logger := observability.NewLogger(observability.ErrorLevel, nil)

	verifier := identity.NewVerifier(identity.NewStaticFactory(provider), admins, logger, nil)
	gate := gateway.New(gateway.Config{}, provider, admins, logger, nil, nil)

	server := NewServer(Config{
		Logger:      logger,
		Gateway:     gate,
		Verifier:    verifier,
		AdminStore:  admins,
		CourseStore: courseStore,
	})

	return &serverFixture{server: server, admins: admins, courses: courseStore}
}

func (f *serverFixture) provision(t *testing.T, email string, active bool, perms map[string]bool) {
	t.Helper()
	require.NoError(t, f.admins.Put(context.Background(), &admin.Record{
		Email:       email,
		Active:      active,
		Role:        admin.RoleEditor,
		Permissions: perms,
	}))
}

func (f *serverFixture) request(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func (f *serverFixture) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := f.request(http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == gateway.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestLogin_Success(t *testing.T) {
	f := newServerFixture(t)
	f.provision(t, "admin@example.com", true, map[string]bool{admin.PermManageCourses: true})

	rec := f.request(http.MethodPost, "/api/auth/login", loginRequest{
		Email:    "admin@example.com",
		Password: "correct-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "admin@example.com", resp.Email)
	assert.True(t, resp.Permissions[admin.PermManageCourses])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, gateway.CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.NotContains(t, rec.Body.String(), cookie.Value, "token must not appear in the body")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newServerFixture(t)
	f.provision(t, "admin@example.com", true, nil)

	rec := f.request(http.MethodPost, "/api/auth/login", loginRequest{
		Email:    "admin@example.com",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid email or password")
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_NotProvisioned(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(http.MethodPost, "/api/auth/login", loginRequest{
		Email:    "viewer@example.com",
		Password: "viewer-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_InactiveRecord(t *testing.T) {
	f := newServerFixture(t)
	f.provision(t, "admin@example.com", false, map[string]bool{admin.PermManageCourses: true})

	rec := f.request(http.MethodPost, "/api/auth/login", loginRequest{
		Email:    "admin@example.com",
		Password: "correct-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(http.MethodPost, "/api/auth/login", loginRequest{Email: "admin@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	f := newServerFixture(t)
	f.provision(t, "admin@example.com", true, nil)
	session := f.login(t, "admin@example.com", "correct-password")

	rec := f.request(http.MethodPost, "/api/auth/logout", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestCurrentAdmin(t *testing.T) {
	f := newServerFixture(t)
	f.provision(t, "admin@example.com", true, map[string]bool{admin.PermManageBlog: true})
	session := f.login(t, "admin@example.com", "correct-password")

	rec := f.request(http.MethodGet, "/api/auth/me", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "admin@example.com", resp.Email)
	assert.Equal(t, admin.RoleEditor, resp.Role)

	rec = f.request(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Full flow: provision, log in, manage a course, get deactivated, and
// find both the session and a fresh login rejected.
func TestAdminLifecycle(t *testing.T) {
	f := newServerFixture(t)
	f.provision(t, "admin@example.com", true, map[string]bool{admin.PermManageCourses: true})
	session := f.login(t, "admin@example.com", "correct-password")

	rec := f.request(http.MethodPost, "/api/admin/courses", map[string]interface{}{
		"title":     "Operating Systems",
		"published": true,
	}, session)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, f.admins.SetActive(context.Background(), "admin@example.com", false))

	rec = f.request(http.MethodPost, "/api/admin/courses", map[string]interface{}{
		"title": "Another Course",
	}, session)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.request(http.MethodPost, "/api/auth/login", loginRequest{
		Email:    "admin@example.com",
		Password: "correct-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The published course stays publicly visible throughout.
	rec = f.request(http.MethodGet, "/api/courses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Operating Systems")
}
