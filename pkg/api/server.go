// Package api wires the HTTP surface: public course reads, the login
// and logout endpoints, and the privileged management routes behind the
// session gateway.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coursedesk/coursedesk/pkg/adminstore"
	"github.com/coursedesk/coursedesk/pkg/audit"
	"github.com/coursedesk/coursedesk/pkg/courses"
	"github.com/coursedesk/coursedesk/pkg/gateway"
	"github.com/coursedesk/coursedesk/pkg/httputil"
	"github.com/coursedesk/coursedesk/pkg/identity"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

// Server holds the HTTP API and its dependencies.
type Server struct {
	router   *mux.Router
	logger   *observability.Logger
	metrics  *observability.Metrics
	gateway  *gateway.Gateway
	verifier *identity.Verifier
	admins   adminstore.Store
	auditor  audit.Logger
}

// Config collects the server's dependencies.
type Config struct {
	Logger      *observability.Logger
	Metrics     *observability.Metrics
	Gateway     *gateway.Gateway
	Verifier    *identity.Verifier
	AdminStore  adminstore.Store
	CourseStore courses.Store
	Auditor     audit.Logger
}

// NewServer builds the router and registers all routes.
func NewServer(cfg Config) *Server {
	auditor := cfg.Auditor
	if auditor == nil {
		auditor = audit.NopLogger{}
	}

	s := &Server{
		router:   mux.NewRouter(),
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		gateway:  cfg.Gateway,
		verifier: cfg.Verifier,
		admins:   cfg.AdminStore,
		auditor:  auditor,
	}

	s.router.Use(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(cfg.Logger),
		httputil.RecoveryMiddleware(cfg.Logger),
	)
	if cfg.Metrics != nil {
		s.router.Use(cfg.Metrics.HTTPMiddleware(routePattern))
	}

	s.registerAuthRoutes()
	s.registerAdminRoutes()
	courses.NewHandlers(cfg.CourseStore, cfg.Logger).RegisterRoutes(s.router, cfg.Gateway)

	return s
}

// Router returns the configured handler for mounting on an http.Server.
func (s *Server) Router() http.Handler {
	return s.router
}

// routePattern resolves the mux route template for metrics labels so
// path parameters do not explode label cardinality.
func routePattern(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
