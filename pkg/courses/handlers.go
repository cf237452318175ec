package courses

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coursedesk/coursedesk/pkg/admin"
	"github.com/coursedesk/coursedesk/pkg/gateway"
	"github.com/coursedesk/coursedesk/pkg/httputil"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

// Handlers provides HTTP handlers for the course catalog.
type Handlers struct {
	store  Store
	logger *observability.Logger
}

// NewHandlers creates course catalog handlers.
func NewHandlers(store Store, logger *observability.Logger) *Handlers {
	return &Handlers{store: store, logger: logger}
}

// requestLogger enriches the handler logger with per-request context.
func (h *Handlers) requestLogger(ctx context.Context) *observability.Logger {
	logger := h.logger
	if requestID := observability.GetRequestID(ctx); requestID != "" {
		logger = logger.WithField("request_id", requestID)
	}
	if email := observability.GetAdminEmail(ctx); email != "" {
		logger = logger.WithField("admin_email", email)
	}
	return logger
}

// RegisterRoutes mounts the catalog. Reads are public and only return
// published courses; management routes sit behind the session gateway
// and the manage_courses permission.
func (h *Handlers) RegisterRoutes(r *mux.Router, gate *gateway.Gateway) {
	r.HandleFunc("/api/courses", h.ListPublished).Methods("GET")
	r.HandleFunc("/api/courses/{id}", h.GetPublished).Methods("GET")

	managed := r.PathPrefix("/api/admin/courses").Subrouter()
	managed.Use(gate.Middleware, gate.RequirePermission(admin.PermManageCourses))
	managed.HandleFunc("", h.ListAll).Methods("GET")
	managed.HandleFunc("", h.Create).Methods("POST")
	managed.HandleFunc("/{id}", h.GetAny).Methods("GET")
	managed.HandleFunc("/{id}", h.Update).Methods("PUT")
	managed.HandleFunc("/{id}", h.Delete).Methods("DELETE")
}

// ListPublished handles GET /api/courses
func (h *Handlers) ListPublished(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.List(r.Context())
	if err != nil {
		h.requestLogger(r.Context()).WithError(err).Error("failed to list courses")
		httputil.WriteInternalError(w, errors.New("failed to list courses"))
		return
	}

	published := make([]*Course, 0, len(all))
	for _, course := range all {
		if course.Published {
			published = append(published, course)
		}
	}
	httputil.WriteSuccess(w, map[string]interface{}{"courses": published})
}

// GetPublished handles GET /api/courses/{id}
func (h *Handlers) GetPublished(w http.ResponseWriter, r *http.Request) {
	course, err := h.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil || !course.Published {
		httputil.WriteNotFound(w, ErrNotFound.Error())
		return
	}
	httputil.WriteSuccess(w, course)
}

// ListAll handles GET /api/admin/courses
func (h *Handlers) ListAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.List(r.Context())
	if err != nil {
		h.requestLogger(r.Context()).WithError(err).Error("failed to list courses")
		httputil.WriteInternalError(w, errors.New("failed to list courses"))
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"courses": all})
}

// GetAny handles GET /api/admin/courses/{id}
func (h *Handlers) GetAny(w http.ResponseWriter, r *http.Request) {
	course, err := h.store.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrNotFound) {
		httputil.WriteNotFound(w, ErrNotFound.Error())
		return
	} else if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to read course"))
		return
	}
	httputil.WriteSuccess(w, course)
}

// Create handles POST /api/admin/courses
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	course := &Course{
		Title:       req.Title,
		Description: req.Description,
		Published:   req.Published,
	}
	if err := h.store.Create(r.Context(), course); err != nil {
		h.requestLogger(r.Context()).WithError(err).Error("failed to create course")
		httputil.WriteInternalError(w, errors.New("failed to create course"))
		return
	}

	h.requestLogger(r.Context()).WithFields(map[string]interface{}{
		"course_id": course.ID,
		"title":     course.Title,
	}).Info("course created")
	httputil.WriteCreated(w, course)
}

// Update handles PUT /api/admin/courses/{id}
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	course := &Course{
		ID:          mux.Vars(r)["id"],
		Title:       req.Title,
		Description: req.Description,
		Published:   req.Published,
	}
	if err := h.store.Update(r.Context(), course); errors.Is(err, ErrNotFound) {
		httputil.WriteNotFound(w, ErrNotFound.Error())
		return
	} else if err != nil {
		h.requestLogger(r.Context()).WithError(err).Error("failed to update course")
		httputil.WriteInternalError(w, errors.New("failed to update course"))
		return
	}
	httputil.WriteSuccess(w, course)
}

// Delete handles DELETE /api/admin/courses/{id}
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), mux.Vars(r)["id"]); errors.Is(err, ErrNotFound) {
		httputil.WriteNotFound(w, ErrNotFound.Error())
		return
	} else if err != nil {
		h.requestLogger(r.Context()).WithError(err).Error("failed to delete course")
		httputil.WriteInternalError(w, errors.New("failed to delete course"))
		return
	}
	httputil.WriteNoContent(w)
}
