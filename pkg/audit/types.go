// Package audit records security-relevant events in the admin auth
// flow: credential checks, session verification failures, and access
// denials.
package audit

import (
	"encoding/json"
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Credential verification
	EventTypeLogin       EventType = "auth.login"
	EventTypeLoginFailed EventType = "auth.login_failed"
	EventTypeLogout      EventType = "auth.logout"

	// Session verification on privileged requests
	EventTypeSessionRejected EventType = "auth.session_rejected"

	// Authorization
	EventTypeAccessDenied EventType = "authz.access_denied"

	// Record provisioning
	EventTypeRecordProvisioned EventType = "authz.record_provisioned"
	EventTypeRecordUpdated     EventType = "authz.record_updated"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event is a single audit log entry.
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor: the email involved, when known. For failed logins this is
	// the attempted email, not a verified identity.
	Email string `json:"email,omitempty"`

	// Request context
	RequestID string `json:"request_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`

	Message string `json:"message,omitempty"`
}

// ToJSON converts the event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
