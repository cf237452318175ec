package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the admin API.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Credential verification outcomes: success, invalid_credentials,
	// not_authorized, provider_error
	LoginAttemptsTotal *prometheus.CounterVec

	// Session verification outcomes per privileged request:
	// ok, unauthenticated, forbidden_inactive
	SessionVerificationsTotal *prometheus.CounterVec

	// Permission gate denials by permission name
	PermissionDenialsTotal *prometheus.CounterVec

	// Verification cache (only populated when the cache is enabled)
	VerificationCacheHitsTotal   prometheus.Counter
	VerificationCacheMissesTotal prometheus.Counter

	// Document store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursedesk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coursedesk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursedesk_admin_login_attempts_total",
				Help: "Total admin credential verification attempts by outcome",
			},
			[]string{"outcome"},
		),
		SessionVerificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursedesk_admin_session_verifications_total",
				Help: "Total admin session verifications on privileged requests by outcome",
			},
			[]string{"outcome"},
		),
		PermissionDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursedesk_admin_permission_denials_total",
				Help: "Total permission gate denials by required permission",
			},
			[]string{"permission"},
		),
		VerificationCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "coursedesk_admin_verification_cache_hits_total",
				Help: "Total verification cache hits",
			},
		),
		VerificationCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "coursedesk_admin_verification_cache_misses_total",
				Help: "Total verification cache misses",
			},
		),
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coursedesk_store_operations_total",
				Help: "Total document store operations",
			},
			[]string{"operation", "status"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coursedesk_store_operation_duration_seconds",
				Help:    "Document store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginAttemptsTotal,
		m.SessionVerificationsTotal,
		m.PermissionDenialsTotal,
		m.VerificationCacheHitsTotal,
		m.VerificationCacheMissesTotal,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
	)

	return m
}

// ObserveStoreOperation records a store operation outcome and duration.
func (m *Metrics) ObserveStoreOperation(operation string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler returns the Prometheus scrape handler for the registry.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware instruments handlers with request count and duration.
// The route template (not the raw URL) should be used as the path label
// to keep cardinality bounded.
func (m *Metrics) HTTPMiddleware(pathLabel func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			path := pathLabel(r)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
