// Package adminstore persists authorization records in the platform's
// document store, keyed by admin.DeriveKey of the owner's email.
//
// The store is the sole writer of records; every other component treats
// it as read-only. All access is point reads/writes by derived key,
// never scans (List exists only for the provisioning surface).
package adminstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

// ErrNotFound is returned when no record exists at the derived key.
var ErrNotFound = errors.New("authorization record not found")

// unavailableError wraps a transient transport failure so callers can
// distinguish "store down" from "record absent".
type unavailableError struct {
	err error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("store unavailable: %v", e.err)
}

func (e *unavailableError) Unwrap() error { return e.err }

// Is allows errors.Is(err, admin.ErrStoreUnavailable) to match.
func (e *unavailableError) Is(target error) bool {
	return target == admin.ErrStoreUnavailable
}

// markUnavailable wraps err as a transient store failure.
func markUnavailable(err error) error {
	return &unavailableError{err: err}
}

// IsUnavailable reports whether err is a transient store failure
// eligible for a single bounded retry at the call site.
func IsUnavailable(err error) bool {
	return errors.Is(err, admin.ErrStoreUnavailable)
}

// Store reads and writes authorization records.
type Store interface {
	// Get returns the record for an email, or ErrNotFound.
	Get(ctx context.Context, email string) (*admin.Record, error)

	// Put replaces the full record for record.Email. The key is always
	// re-derived from the email; a caller-supplied key is overwritten.
	Put(ctx context.Context, record *admin.Record) error

	// SetActive toggles the soft-disable switch on an existing record.
	SetActive(ctx context.Context, email string, active bool) error

	// SetPermission grants or revokes a single permission on an
	// existing record.
	SetPermission(ctx context.Context, email, permission string, granted bool) error

	// List returns all records, for the provisioning surface only.
	List(ctx context.Context) ([]*admin.Record, error)

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error

	// Close releases the underlying client.
	Close() error
}
