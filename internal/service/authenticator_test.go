package service

import (
	"context"
	"testing"
	"time"

	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_NoCredential(t *testing.T) {
	env := newTestEnv(t)

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic dXNlcjpwYXNz", "token-without-scheme"} {
		_, err := env.authn.Authenticate(context.Background(), header)
		assert.ErrorIs(t, err, ErrNoCredential, "header %q", header)
	}
}

func TestAuthenticate_SchemeIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "alice@x.com", "password123")

	principal, err := env.authn.Authenticate(context.Background(), "bearer "+registered.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.Account.ID, principal.Account.ID)
	assert.Equal(t, domain.TokenKindAccess, principal.Claims.Kind)
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "alice@x.com", "password123")

	expired, err := env.tokens.Issue(domain.Claims{Subject: registered.Account.ID}, domain.TokenKindAccess, -time.Minute)
	require.NoError(t, err)

	orphan, err := env.tokens.Issue(domain.Claims{Subject: "3f0e8b4c-6a52-4d8e-9a4e-3b1c2d3e4f50"}, domain.TokenKindAccess, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "refresh token", token: registered.Tokens.RefreshToken},
		{name: "expired", token: expired},
		{name: "unknown subject", token: orphan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.authn.Authenticate(context.Background(), "Bearer "+tt.token)
			requireCode(t, err, domain.CodeUnauthorized)
		})
	}
}

func TestGates(t *testing.T) {
	account := &domain.Account{Role: domain.RoleUser, IsVerified: false}

	requireCode(t, RequireVerified(account), domain.CodeForbidden)
	requireCode(t, RequireRole(account, domain.RoleAdmin), domain.CodeForbidden)

	account.IsVerified = true
	account.Role = domain.RoleAdmin
	assert.NoError(t, RequireVerified(account))
	assert.NoError(t, RequireRole(account, domain.RoleAdmin))
	requireCode(t, RequireRole(account, domain.RoleUser), domain.CodeForbidden)
}

func TestUserDirectory(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "alice@x.com", "password123")
	directory := NewUserDirectory(env.store)
	ctx := context.Background()

	account, err := directory.FindByID(ctx, registered.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", account.Email)

	_, err = directory.FindByID(ctx, "42")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	account, err = directory.FindByEmail(ctx, " ALICE@X.COM ")
	require.NoError(t, err)
	assert.Equal(t, registered.Account.ID, account.ID)

	emailTaken, usernameTaken, err := directory.ExistsWithEmailOrUsername(ctx, "Alice@x.com", nil)
	require.NoError(t, err)
	assert.True(t, emailTaken)
	assert.False(t, usernameTaken)
}
