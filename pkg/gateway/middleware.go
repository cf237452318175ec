package gateway

import (
	"errors"
	"net/http"

	"github.com/coursedesk/coursedesk/pkg/admin"
	"github.com/coursedesk/coursedesk/pkg/audit"
	"github.com/coursedesk/coursedesk/pkg/contextkeys"
	"github.com/coursedesk/coursedesk/pkg/httputil"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

// Middleware verifies the admin session and stores the resolved record
// in the request context. Every privileged route runs behind it; each
// request is independently re-verified so a deactivated administrator
// is locked out on their very next request.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		record, err := g.Verify(r.Context(), r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		ctx := contextkeys.WithAdmin(r.Context(), record)
		ctx = observability.WithAdminEmail(ctx, record.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAdmin extracts the resolved admin record from a request handled
// behind Middleware.
func GetAdmin(r *http.Request) *admin.Record {
	record, ok := r.Context().Value(contextkeys.AdminKey).(*admin.Record)
	if !ok {
		return nil
	}
	return record
}

// RequirePermission gates an operation on a single permission name.
// Layered after Middleware: an active administrator can still lack the
// specific permission, and is denied before any mutation is attempted.
func (g *Gateway) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			record := GetAdmin(r)
			if record == nil {
				writeAuthError(w, admin.ErrUnauthenticated)
				return
			}

			if !record.HasPermission(permission) {
				if g.metrics != nil {
					g.metrics.PermissionDenialsTotal.WithLabelValues(permission).Inc()
				}
				g.auditRequest(r.Context(), r, audit.EventTypeAccessDenied, audit.EventStatusDenied,
					record.Email, "missing permission "+permission)
				httputil.WriteForbidden(w, admin.ErrForbiddenPermission.Error()+": "+permission)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError maps the auth error taxonomy to HTTP responses. The
// inactive-record and missing-permission 403s carry distinguishable
// messages for observability.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, admin.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, admin.ErrUnauthenticated.Error())
	case errors.Is(err, admin.ErrForbiddenInactive):
		httputil.WriteForbidden(w, admin.ErrForbiddenInactive.Error())
	case errors.Is(err, admin.ErrForbiddenPermission):
		httputil.WriteForbidden(w, admin.ErrForbiddenPermission.Error())
	case errors.Is(err, admin.ErrStoreUnavailable):
		httputil.WriteServiceUnavailable(w, admin.ErrStoreUnavailable.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}
