package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

func TestStaticProvider_Authenticate(t *testing.T) {
	provider := NewStaticProvider(map[string]string{"a@b.com": "pw"}, time.Hour)
	ctx := context.Background()

	ident, token, err := provider.Authenticate(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", ident.Email)
	assert.NotEmpty(t, token)

	verified, err := provider.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", verified.Email)
}

func TestStaticProvider_BadPassword(t *testing.T) {
	provider := NewStaticProvider(map[string]string{"a@b.com": "pw"}, time.Hour)

	_, _, err := provider.Authenticate(context.Background(), "a@b.com", "nope")
	assert.ErrorIs(t, err, admin.ErrInvalidCredentials)

	_, _, err = provider.Authenticate(context.Background(), "unknown@b.com", "pw")
	assert.ErrorIs(t, err, admin.ErrInvalidCredentials)
}

func TestStaticProvider_TokenExpiry(t *testing.T) {
	provider := NewStaticProvider(map[string]string{"a@b.com": "pw"}, time.Hour)
	ctx := context.Background()

	_, token, err := provider.Authenticate(ctx, "a@b.com", "pw")
	require.NoError(t, err)

	provider.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })

	_, err = provider.VerifyToken(ctx, token)
	assert.ErrorIs(t, err, admin.ErrUnauthenticated)
}

func TestStaticProvider_UnknownToken(t *testing.T) {
	provider := NewStaticProvider(nil, time.Hour)

	_, err := provider.VerifyToken(context.Background(), "forged")
	assert.ErrorIs(t, err, admin.ErrUnauthenticated)
}

func TestOIDCConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OIDCConfig
		wantErr bool
	}{
		{
			name: "valid",
			cfg: OIDCConfig{
				IssuerURL:    "https://id.example.com",
				ClientID:     "coursedesk",
				ClientSecret: "secret",
				Scopes:       []string{"openid", "email"},
			},
		},
		{
			name:    "missing issuer",
			cfg:     OIDCConfig{ClientID: "c", ClientSecret: "s", Scopes: []string{"openid"}},
			wantErr: true,
		},
		{
			name: "missing openid scope",
			cfg: OIDCConfig{
				IssuerURL:    "https://id.example.com",
				ClientID:     "c",
				ClientSecret: "s",
				Scopes:       []string{"email"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
