package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

func newManagerFixture(t *testing.T) (*serverFixture, *http.Cookie) {
	t.Helper()
	f := newServerFixture(t)
	f.provision(t, "admin@example.com", true, map[string]bool{admin.PermManageAdmins: true})
	return f, f.login(t, "admin@example.com", "correct-password")
}

func TestAdminManagement_RequiresPermission(t *testing.T) {
	f := newServerFixture(t)
	f.provision(t, "admin@example.com", true, map[string]bool{admin.PermManageCourses: true})
	session := f.login(t, "admin@example.com", "correct-password")

	rec := f.request(http.MethodGet, "/api/admin/admins", nil, session)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), admin.PermManageAdmins)
}

func TestProvisionAdmin(t *testing.T) {
	f, session := newManagerFixture(t)

	rec := f.request(http.MethodPost, "/api/admin/admins", provisionRequest{
		Email:       "Support.Person@Example.com",
		Role:        admin.RoleSupport,
		Permissions: map[string]bool{admin.PermManageBlog: true},
	}, session)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created admin.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Active, "records default to active")
	assert.Equal(t, "support_person_example_com", created.Key)

	// Lookup is keyed by derived key, so any casing of the email works.
	stored, err := f.admins.Get(context.Background(), "support.person@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.RoleSupport, stored.Role)
}

func TestProvisionAdmin_Validation(t *testing.T) {
	f, session := newManagerFixture(t)

	rec := f.request(http.MethodPost, "/api/admin/admins", provisionRequest{Email: "  "}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.request(http.MethodPost, "/api/admin/admins", provisionRequest{Email: "not-an-email"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAdmin(t *testing.T) {
	f, session := newManagerFixture(t)

	rec := f.request(http.MethodGet, "/api/admin/admins/admin@example.com", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	var record admin.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "admin@example.com", record.Email)

	rec = f.request(http.MethodGet, "/api/admin/admins/nobody@example.com", nil, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAdmins(t *testing.T) {
	f, session := newManagerFixture(t)
	f.provision(t, "other@example.com", true, nil)

	rec := f.request(http.MethodGet, "/api/admin/admins", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Admins []*admin.Record `json:"admins"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Admins, 2)
}

func TestSetAdminActive(t *testing.T) {
	f, session := newManagerFixture(t)
	f.provision(t, "other@example.com", true, nil)

	rec := f.request(http.MethodPut, "/api/admin/admins/other@example.com/active",
		map[string]bool{"active": false}, session)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := f.admins.Get(context.Background(), "other@example.com")
	require.NoError(t, err)
	assert.False(t, stored.Active)

	rec = f.request(http.MethodPut, "/api/admin/admins/nobody@example.com/active",
		map[string]bool{"active": false}, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetAdminPermission(t *testing.T) {
	f, session := newManagerFixture(t)
	f.provision(t, "other@example.com", true, nil)

	rec := f.request(http.MethodPut, "/api/admin/admins/other@example.com/permissions",
		map[string]interface{}{"permission": admin.PermManageMedia, "granted": true}, session)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := f.admins.Get(context.Background(), "other@example.com")
	require.NoError(t, err)
	assert.True(t, stored.HasPermission(admin.PermManageMedia))

	rec = f.request(http.MethodPut, "/api/admin/admins/other@example.com/permissions",
		map[string]interface{}{"permission": "", "granted": true}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Self-deactivation is allowed and takes effect on the next request.
func TestSetAdminActive_Self(t *testing.T) {
	f, session := newManagerFixture(t)

	rec := f.request(http.MethodPut, "/api/admin/admins/admin@example.com/active",
		map[string]bool{"active": false}, session)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(http.MethodGet, "/api/admin/admins", nil, session)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
