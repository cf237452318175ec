// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application are defined here to
// prevent typos and make key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AdminKey contains the *admin.Record resolved for the request.
	// Set by: gateway.Middleware after session verification
	// Required by: permission gate, privileged handlers
	AdminKey Key = "admin_record"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: logger, audit trail
	RequestIDKey Key = "request_id"
)

// WithAdmin adds the resolved admin record to the context
func WithAdmin(ctx context.Context, record interface{}) context.Context {
	return context.WithValue(ctx, AdminKey, record)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
