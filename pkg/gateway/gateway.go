// Package gateway issues and verifies the server-trusted admin session:
// a signed, httpOnly cookie exchanged for a verified identity, checked
// against the authorization store on every privileged request.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coursedesk/coursedesk/pkg/admin"
	"github.com/coursedesk/coursedesk/pkg/adminstore"
	"github.com/coursedesk/coursedesk/pkg/audit"
	"github.com/coursedesk/coursedesk/pkg/httputil"
	"github.com/coursedesk/coursedesk/pkg/identity"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

// CookieName is the fixed session cookie name.
const CookieName = "admin_session"

// DefaultCookieTTL bounds the cookie lifetime. The signed token inside
// carries its own expiry, verified by the provider on every request;
// the cookie TTL only controls browser retention.
const DefaultCookieTTL = 8 * time.Hour

// Config holds gateway settings.
type Config struct {
	// SecureCookie sets the Secure flag on issued cookies. Disable only
	// for plain-HTTP local development.
	SecureCookie bool

	// CookieTTL is the cookie max age; zero means DefaultCookieTTL.
	CookieTTL time.Duration

	// VerificationCacheTTL enables the opt-in verification cache when
	// positive. Zero (the default) keeps per-request re-verification.
	VerificationCacheTTL time.Duration
}

// Gateway verifies admin sessions on privileged requests.
type Gateway struct {
	provider identity.Provider
	store    adminstore.Store
	logger   *observability.Logger
	metrics  *observability.Metrics
	auditor  audit.Logger

	secureCookie bool
	cookieTTL    time.Duration
	cache        *verificationCache
}

// New creates a gateway. metrics may be nil; auditor may be nil, in
// which case events are discarded.
func New(cfg Config, provider identity.Provider, store adminstore.Store, logger *observability.Logger, metrics *observability.Metrics, auditor audit.Logger) *Gateway {
	if auditor == nil {
		auditor = audit.NopLogger{}
	}
	cookieTTL := cfg.CookieTTL
	if cookieTTL == 0 {
		cookieTTL = DefaultCookieTTL
	}

	g := &Gateway{
		provider:     provider,
		store:        store,
		logger:       logger,
		metrics:      metrics,
		auditor:      auditor,
		secureCookie: cfg.SecureCookie,
		cookieTTL:    cookieTTL,
	}
	if cfg.VerificationCacheTTL > 0 {
		g.cache = newVerificationCache(cfg.VerificationCacheTTL)
	}
	return g
}

// Issue sets the signed session token as an httpOnly cookie. The token
// must come from a completed credential verification; this is the only
// place a server-trusted session artifact is created.
func (g *Gateway) Issue(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   g.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (g *Gateway) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Verify authenticates a privileged request. It fails closed:
//   - no cookie, or token rejected by the provider -> admin.ErrUnauthenticated
//   - record absent or inactive -> admin.ErrForbiddenInactive
//   - transient store failure after one retry -> wrapped admin.ErrStoreUnavailable
//
// On success the returned record is the caller's resolved authorization.
func (g *Gateway) Verify(ctx context.Context, r *http.Request) (*admin.Record, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		g.countVerification("unauthenticated")
		return nil, admin.ErrUnauthenticated
	}

	if g.cache != nil {
		if record, ok := g.cache.get(cookie.Value); ok {
			if g.metrics != nil {
				g.metrics.VerificationCacheHitsTotal.Inc()
			}
			g.countVerification("ok")
			return record, nil
		}
		if g.metrics != nil {
			g.metrics.VerificationCacheMissesTotal.Inc()
		}
	}

	ident, err := g.provider.VerifyToken(ctx, cookie.Value)
	if err != nil {
		g.countVerification("unauthenticated")
		g.auditRequest(ctx, r, audit.EventTypeSessionRejected, audit.EventStatusFailure, "", "session token rejected")
		return nil, fmt.Errorf("%w", admin.ErrUnauthenticated)
	}

	record, err := g.fetchRecord(ctx, ident.Email)
	switch {
	case errors.Is(err, adminstore.ErrNotFound):
		g.countVerification("forbidden_inactive")
		g.auditRequest(ctx, r, audit.EventTypeAccessDenied, audit.EventStatusDenied, ident.Email, "no authorization record")
		return nil, admin.ErrForbiddenInactive
	case err != nil:
		g.countVerification("store_error")
		return nil, err
	case !record.Active:
		g.countVerification("forbidden_inactive")
		g.auditRequest(ctx, r, audit.EventTypeAccessDenied, audit.EventStatusDenied, ident.Email, "authorization record inactive")
		return nil, admin.ErrForbiddenInactive
	}

	if g.cache != nil {
		g.cache.put(cookie.Value, record)
	}

	g.countVerification("ok")
	return record, nil
}

// InvalidateRecord drops cached verification results for an email.
// Call after any authorization record write when the cache is enabled.
func (g *Gateway) InvalidateRecord(email string) {
	if g.cache != nil {
		g.cache.invalidate(admin.DeriveKey(email))
	}
}

// fetchRecord reads the authorization record with a single bounded
// retry on transient store failure.
func (g *Gateway) fetchRecord(ctx context.Context, email string) (*admin.Record, error) {
	start := time.Now()
	record, err := g.store.Get(ctx, email)
	if err != nil && adminstore.IsUnavailable(err) {
		g.logger.WithError(err).Warn("authorization store unavailable, retrying once")
		record, err = g.store.Get(ctx, email)
	}
	if g.metrics != nil {
		g.metrics.ObserveStoreOperation("get", err, time.Since(start))
	}
	return record, err
}

func (g *Gateway) countVerification(outcome string) {
	if g.metrics != nil {
		g.metrics.SessionVerificationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (g *Gateway) auditRequest(ctx context.Context, r *http.Request, eventType audit.EventType, status audit.EventStatus, email, message string) {
	event := audit.NewEvent(eventType, status)
	event.Email = email
	event.RequestID = observability.GetRequestID(ctx)
	event.IPAddress = httputil.ClientIP(r)
	event.Method = r.Method
	event.Path = r.URL.Path
	event.Message = message

	if err := g.auditor.Log(ctx, event); err != nil {
		g.logger.WithError(err).Warn("failed to record audit event")
	}
}
