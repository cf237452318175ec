package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/coursedesk/coursedesk/pkg/admin"
	"github.com/coursedesk/coursedesk/pkg/audit"
	"github.com/coursedesk/coursedesk/pkg/gateway"
	"github.com/coursedesk/coursedesk/pkg/httputil"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

func (s *Server) registerAuthRoutes() {
	s.router.HandleFunc("/api/auth/login", s.login).Methods("POST")
	s.router.HandleFunc("/api/auth/logout", s.logout).Methods("POST")

	me := s.router.PathPrefix("/api/auth/me").Subrouter()
	me.Use(s.gateway.Middleware)
	me.HandleFunc("", s.currentAdmin).Methods("GET")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"permissions"`
}

// login handles POST /api/auth/login. A successful credential
// verification issues the session cookie; the signed token never
// appears in the response body.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "email and password are required")
		return
	}

	ident, token, err := s.verifier.Verify(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, admin.ErrInvalidCredentials):
		s.auditAuth(r, audit.EventTypeLoginFailed, audit.EventStatusFailure, req.Email, "invalid email or password")
		httputil.WriteUnauthorized(w, admin.ErrInvalidCredentials.Error())
		return
	case errors.Is(err, admin.ErrNotAuthorized):
		s.auditAuth(r, audit.EventTypeLoginFailed, audit.EventStatusDenied, req.Email, "not an administrator")
		httputil.WriteUnauthorized(w, admin.ErrNotAuthorized.Error())
		return
	case errors.Is(err, admin.ErrStoreUnavailable):
		httputil.WriteServiceUnavailable(w, admin.ErrStoreUnavailable.Error())
		return
	case err != nil:
		s.logger.WithError(err).Error("login failed")
		httputil.WriteInternalError(w, errors.New("login failed"))
		return
	}

	record, err := s.admins.Get(r.Context(), ident.Email)
	if err != nil {
		// The verifier already confirmed an active record; losing the
		// store between those two reads is a transient failure.
		httputil.WriteServiceUnavailable(w, admin.ErrStoreUnavailable.Error())
		return
	}

	s.gateway.Issue(w, token)
	s.auditAuth(r, audit.EventTypeLogin, audit.EventStatusSuccess, ident.Email, "")
	httputil.WriteSuccess(w, loginResponse{
		Email:       record.Email,
		Role:        record.Role,
		Permissions: record.Permissions,
	})
}

// logout handles POST /api/auth/logout. It always clears the cookie,
// authenticated or not.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	email := ""
	if record, err := s.gateway.Verify(r.Context(), r); err == nil {
		email = record.Email
	}

	s.gateway.Clear(w)
	s.auditAuth(r, audit.EventTypeLogout, audit.EventStatusSuccess, email, "")
	httputil.WriteSuccess(w, map[string]string{"status": "logged out"})
}

// currentAdmin handles GET /api/auth/me behind the gateway.
func (s *Server) currentAdmin(w http.ResponseWriter, r *http.Request) {
	record := gateway.GetAdmin(r)
	if record == nil {
		httputil.WriteUnauthorized(w, admin.ErrUnauthenticated.Error())
		return
	}
	httputil.WriteSuccess(w, loginResponse{
		Email:       record.Email,
		Role:        record.Role,
		Permissions: record.Permissions,
	})
}

func (s *Server) auditAuth(r *http.Request, eventType audit.EventType, status audit.EventStatus, email, message string) {
	event := audit.NewEvent(eventType, status)
	event.Email = email
	event.RequestID = observability.GetRequestID(r.Context())
	event.IPAddress = httputil.ClientIP(r)
	event.Method = r.Method
	event.Path = r.URL.Path
	event.Message = message

	if err := s.auditor.Log(r.Context(), event); err != nil {
		s.logger.WithError(err).Warn("failed to record audit event")
	}
}
