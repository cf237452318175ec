package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

// StaticProvider is an in-process Provider for local development and
// tests: a fixed email/password table and self-tracked session tokens.
// Never use it in production; tokens are opaque references, not signed
// artifacts.
type StaticProvider struct {
	mu        sync.Mutex
	passwords map[string]string
	tokens    map[string]staticToken
	tokenTTL  time.Duration
	now       func() time.Time

	closed bool
}

type staticToken struct {
	identity admin.Identity
	expires  time.Time
}

// NewStaticProvider creates a provider with the given email->password
// table and token lifetime.
func NewStaticProvider(passwords map[string]string, tokenTTL time.Duration) *StaticProvider {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &StaticProvider{
		passwords: passwords,
		tokens:    make(map[string]staticToken),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// SetClock overrides the provider's clock. Tests use it to expire tokens.
func (p *StaticProvider) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

func (p *StaticProvider) Authenticate(ctx context.Context, email, password string) (*admin.Identity, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	want, ok := p.passwords[email]
	if !ok || want != password {
		return nil, "", admin.ErrInvalidCredentials
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	ident := admin.Identity{Subject: "static|" + email, Email: email}
	p.tokens[token] = staticToken{
		identity: ident,
		expires:  p.now().Add(p.tokenTTL),
	}

	copied := ident
	return &copied, token, nil
}

func (p *StaticProvider) VerifyToken(ctx context.Context, rawToken string) (*admin.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.tokens[rawToken]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token", admin.ErrUnauthenticated)
	}
	if !p.now().Before(entry.expires) {
		delete(p.tokens, rawToken)
		return nil, fmt.Errorf("%w: token expired", admin.ErrUnauthenticated)
	}

	copied := entry.identity
	return &copied, nil
}

func (p *StaticProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// StaticFactory hands out the same StaticProvider to every caller.
// Close on the shared provider is a no-op beyond bookkeeping, so the
// ephemeral verifier can still tear its client down unconditionally.
type StaticFactory struct {
	provider *StaticProvider
}

// NewStaticFactory wraps a StaticProvider as a ClientFactory.
func NewStaticFactory(provider *StaticProvider) *StaticFactory {
	return &StaticFactory{provider: provider}
}

func (f *StaticFactory) NewClient(ctx context.Context) (Provider, error) {
	return &sharedClient{provider: f.provider}, nil
}

// sharedClient wraps the shared provider so closing one verification
// client does not shut the provider down for everyone else.
type sharedClient struct {
	provider *StaticProvider
}

func (c *sharedClient) Authenticate(ctx context.Context, email, password string) (*admin.Identity, string, error) {
	return c.provider.Authenticate(ctx, email, password)
}

func (c *sharedClient) VerifyToken(ctx context.Context, rawToken string) (*admin.Identity, error) {
	return c.provider.VerifyToken(ctx, rawToken)
}

func (c *sharedClient) Close() error { return nil }
