package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursedesk/coursedesk/pkg/admin"
	"github.com/coursedesk/coursedesk/pkg/adminstore"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

// Verifier performs ephemeral credential verification: it checks an
// email/password pair against the identity provider inside a throwaway
// client that is torn down afterward, then requires an active
// authorization record before reporting success.
//
// Must not be invoked concurrently for overlapping logins from the same
// caller; the UI disables its trigger while a call is outstanding.
type Verifier struct {
	factory ClientFactory
	store   adminstore.Store
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewVerifier creates a credential verifier. metrics may be nil.
func NewVerifier(factory ClientFactory, store adminstore.Store, logger *observability.Logger, metrics *observability.Metrics) *Verifier {
	return &Verifier{
		factory: factory,
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Verify authenticates the pair and resolves the authorization record.
// On success it returns the verified identity and the provider's signed
// session token. Outcomes:
//   - admin.ErrInvalidCredentials: provider rejected the pair
//   - admin.ErrNotAuthorized: credentials valid, record absent or inactive
//   - admin.ErrStoreUnavailable (wrapped): provider or store unreachable
func (v *Verifier) Verify(ctx context.Context, email, password string) (*admin.Identity, string, error) {
	client, err := v.factory.NewClient(ctx)
	if err != nil {
		v.countLogin("provider_error")
		return nil, "", fmt.Errorf("%w: %v", admin.ErrStoreUnavailable, err)
	}
	// Teardown runs regardless of outcome. A failed teardown is logged
	// and never masks the primary result.
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			v.logger.WithError(closeErr).Warn("failed to tear down verification client")
		}
	}()

	ident, token, err := client.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, admin.ErrInvalidCredentials) {
			v.countLogin("invalid_credentials")
			return nil, "", admin.ErrInvalidCredentials
		}
		v.countLogin("provider_error")
		return nil, "", fmt.Errorf("%w: %v", admin.ErrStoreUnavailable, err)
	}

	record, err := v.fetchRecord(ctx, ident.Email)
	switch {
	case errors.Is(err, adminstore.ErrNotFound):
		// Absent and inactive records are deliberately merged: both
		// mean "not an administrator".
		v.countLogin("not_authorized")
		return nil, "", admin.ErrNotAuthorized
	case err != nil:
		v.countLogin("store_error")
		return nil, "", err
	case !record.Active:
		v.countLogin("not_authorized")
		return nil, "", admin.ErrNotAuthorized
	}

	v.countLogin("success")
	return ident, token, nil
}

// fetchRecord reads the authorization record with a single bounded
// retry on transient store failure.
func (v *Verifier) fetchRecord(ctx context.Context, email string) (*admin.Record, error) {
	record, err := v.store.Get(ctx, email)
	if err != nil && adminstore.IsUnavailable(err) {
		v.logger.WithError(err).Warn("authorization store unavailable, retrying once")
		record, err = v.store.Get(ctx, email)
	}
	return record, err
}

func (v *Verifier) countLogin(outcome string) {
	if v.metrics != nil {
		v.metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}
