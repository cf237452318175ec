// Package identity wraps the platform's external identity provider:
// password verification for admin login and signature/expiry validation
// of the signed session tokens the provider issues.
package identity

import (
	"context"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

// Provider is the identity provider collaborator. Authenticate performs
// a credential check and returns the provider's signed session token;
// VerifyToken validates a previously issued token server-side.
type Provider interface {
	// Authenticate verifies an email/password pair. On success it
	// returns the verified identity and a signed session token bound
	// to it, with a provider-determined bounded lifetime.
	// Invalid credentials map to admin.ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*admin.Identity, string, error)

	// VerifyToken validates a signed session token's signature and
	// expiry and returns the identity it is bound to. Any failure maps
	// to admin.ErrUnauthenticated.
	VerifyToken(ctx context.Context, rawToken string) (*admin.Identity, error)

	// Close releases any resources held by the client.
	Close() error
}

// ClientFactory builds provider clients. The ephemeral credential
// verifier uses it to get a throwaway client per verification call so
// the caller's real session state is never touched.
type ClientFactory interface {
	NewClient(ctx context.Context) (Provider, error)
}
