package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/coursedesk/coursedesk/pkg/admin"
	"github.com/coursedesk/coursedesk/pkg/adminstore"
	"github.com/coursedesk/coursedesk/pkg/audit"
	"github.com/coursedesk/coursedesk/pkg/httputil"
)

// registerAdminRoutes mounts administrator management behind the
// manage_admins permission. Every write invalidates the verification
// cache for the affected record.
func (s *Server) registerAdminRoutes() {
	r := s.router.PathPrefix("/api/admin/admins").Subrouter()
	r.Use(s.gateway.Middleware, s.gateway.RequirePermission(admin.PermManageAdmins))

	r.HandleFunc("", s.listAdmins).Methods("GET")
	r.HandleFunc("", s.provisionAdmin).Methods("POST")
	r.HandleFunc("/{email}", s.getAdmin).Methods("GET")
	r.HandleFunc("/{email}/active", s.setAdminActive).Methods("PUT")
	r.HandleFunc("/{email}/permissions", s.setAdminPermission).Methods("PUT")
}

type provisionRequest struct {
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"permissions"`
	Active      *bool           `json:"active"`
}

// listAdmins handles GET /api/admin/admins
func (s *Server) listAdmins(w http.ResponseWriter, r *http.Request) {
	records, err := s.admins.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"admins": records})
}

// getAdmin handles GET /api/admin/admins/{email}
func (s *Server) getAdmin(w http.ResponseWriter, r *http.Request) {
	record, err := s.admins.Get(r.Context(), mux.Vars(r)["email"])
	if errors.Is(err, adminstore.ErrNotFound) {
		httputil.WriteNotFound(w, adminstore.ErrNotFound.Error())
		return
	} else if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, record)
}

// provisionAdmin handles POST /api/admin/admins. It creates or fully
// replaces the authorization record at the email's derived key.
func (s *Server) provisionAdmin(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		httputil.WriteBadRequest(w, "email is required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		httputil.WriteBadRequest(w, "email is not valid")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	record := &admin.Record{
		Email:       req.Email,
		Active:      active,
		Role:        req.Role,
		Permissions: req.Permissions,
	}
	if err := s.admins.Put(r.Context(), record); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.gateway.InvalidateRecord(req.Email)
	s.auditAuth(r, audit.EventTypeRecordProvisioned, audit.EventStatusSuccess, req.Email, "record provisioned")
	httputil.WriteCreated(w, record)
}

// setAdminActive handles PUT /api/admin/admins/{email}/active
func (s *Server) setAdminActive(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]

	var req struct {
		Active bool `json:"active"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := s.admins.SetActive(r.Context(), email, req.Active); errors.Is(err, adminstore.ErrNotFound) {
		httputil.WriteNotFound(w, adminstore.ErrNotFound.Error())
		return
	} else if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.gateway.InvalidateRecord(email)
	s.auditAuth(r, audit.EventTypeRecordUpdated, audit.EventStatusSuccess, email, "active toggled")
	httputil.WriteSuccess(w, map[string]interface{}{"email": email, "active": req.Active})
}

// setAdminPermission handles PUT /api/admin/admins/{email}/permissions
func (s *Server) setAdminPermission(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]

	var req struct {
		Permission string `json:"permission"`
		Granted    bool   `json:"granted"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if req.Permission == "" {
		httputil.WriteBadRequest(w, "permission is required")
		return
	}

	if err := s.admins.SetPermission(r.Context(), email, req.Permission, req.Granted); errors.Is(err, adminstore.ErrNotFound) {
		httputil.WriteNotFound(w, adminstore.ErrNotFound.Error())
		return
	} else if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.gateway.InvalidateRecord(email)
	s.auditAuth(r, audit.EventTypeRecordUpdated, audit.EventStatusSuccess, email, "permission "+req.Permission+" updated")
	httputil.WriteSuccess(w, map[string]interface{}{
		"email":      email,
		"permission": req.Permission,
		"granted":    req.Granted,
	})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if adminstore.IsUnavailable(err) {
		httputil.WriteServiceUnavailable(w, admin.ErrStoreUnavailable.Error())
		return
	}
	s.logger.WithError(err).Error("admin store operation failed")
	httputil.WriteInternalError(w, errors.New("store operation failed"))
}
