package admin

import "errors"

// Error taxonomy for the admin auth flow. Callers match with errors.Is;
// HTTP handlers map these to status codes in pkg/gateway.
var (
	// ErrInvalidCredentials means the identity provider rejected the
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotAuthorized means credentials were valid but no active
	// authorization record exists for the email.
	ErrNotAuthorized = errors.New("account is not authorized for administration")

	// ErrUnauthenticated means a privileged request carried no session
	// token, or one that failed signature/expiry verification.
	ErrUnauthenticated = errors.New("missing or invalid admin session")

	// ErrForbiddenInactive means the session verified but the
	// authorization record is absent or has active=false.
	ErrForbiddenInactive = errors.New("administrator account is inactive or not provisioned")

	// ErrForbiddenPermission means the record is active but lacks the
	// specific permission the operation requires.
	ErrForbiddenPermission = errors.New("missing required permission")

	// ErrStoreUnavailable wraps transient failures reaching the
	// document store or identity provider.
	ErrStoreUnavailable = errors.New("authorization store unavailable")
)
