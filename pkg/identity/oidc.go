package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

// OIDCConfig holds identity provider settings.
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Validate checks the OIDC configuration.
func (c *OIDCConfig) Validate() error {
	if c.IssuerURL == "" {
		return fmt.Errorf("issuer_url is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if len(c.Scopes) == 0 {
		return fmt.Errorf("scopes are required")
	}
	hasOpenID := false
	for _, scope := range c.Scopes {
		if scope == "openid" {
			hasOpenID = true
			break
		}
	}
	if !hasOpenID {
		return fmt.Errorf("'openid' scope is required")
	}
	return nil
}

// OIDCProvider implements Provider against an OpenID Connect issuer.
// Password verification uses the resource-owner password grant; the ID
// token the grant returns doubles as the signed session token, verified
// server-side on each privileged request.
type OIDCProvider struct {
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
	httpClient   *http.Client
}

// NewOIDCProvider discovers the issuer and builds a provider client.
// The supplied http.Client is private to this provider instance: no
// cookie jar and no token cache are shared with any other client, which
// is what keeps credential verification free of session side effects.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig, httpClient *http.Client) (*OIDCProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid OIDC config: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	ctx = oidc.ClientContext(ctx, httpClient)
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		Scopes:       cfg.Scopes,
	}

	return &OIDCProvider{
		provider:     provider,
		verifier:     verifier,
		oauth2Config: oauth2Config,
		httpClient:   httpClient,
	}, nil
}

// Authenticate verifies the email/password pair via the password grant
// and returns the identity plus the signed ID token.
func (p *OIDCProvider) Authenticate(ctx context.Context, email, password string) (*admin.Identity, string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth2Config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
			(retrieveErr.Response.StatusCode == http.StatusBadRequest ||
				retrieveErr.Response.StatusCode == http.StatusUnauthorized) {
			return nil, "", admin.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("identity provider unreachable: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, "", fmt.Errorf("missing id_token in provider response")
	}

	ident, err := p.VerifyToken(ctx, rawIDToken)
	if err != nil {
		return nil, "", fmt.Errorf("provider returned unverifiable token: %w", err)
	}

	return ident, rawIDToken, nil
}

// VerifyToken validates signature and expiry of a signed session token.
func (p *OIDCProvider) VerifyToken(ctx context.Context, rawToken string) (*admin.Identity, error) {
	ctx = oidc.ClientContext(ctx, p.httpClient)

	idToken, err := p.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", admin.ErrUnauthenticated, err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", admin.ErrUnauthenticated, err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: token carries no email claim", admin.ErrUnauthenticated)
	}

	return &admin.Identity{
		Subject: idToken.Subject,
		Email:   claims.Email,
	}, nil
}

// Close releases idle connections held by the private HTTP client.
func (p *OIDCProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// OIDCFactory builds a fresh, isolated OIDCProvider per call. Each
// client gets its own http.Client so nothing is shared with the
// process-wide default transport or with previous verification calls.
type OIDCFactory struct {
	cfg OIDCConfig
}

// NewOIDCFactory creates a factory for ephemeral provider clients.
func NewOIDCFactory(cfg OIDCConfig) *OIDCFactory {
	return &OIDCFactory{cfg: cfg}
}

// NewClient builds a throwaway provider client.
func (f *OIDCFactory) NewClient(ctx context.Context) (Provider, error) {
	httpClient := &http.Client{
		Timeout:   15 * time.Second,
		Transport: &http.Transport{},
	}
	return NewOIDCProvider(ctx, f.cfg, httpClient)
}
