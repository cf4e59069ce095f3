package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(t *testing.T, clock *fakeClock) *JWTManager {
	t.Helper()

	manager, err := NewJWTManager(testSecret, "HS256", 30*time.Minute, 7*24*time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return manager
}

func TestJWTManager_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	manager := newTestManager(t, clock)

	in := domain.Claims{Subject: "7b7f3f3e-0000-4000-8000-000000000001", Email: "alice@x.com"}

	for _, kind := range []domain.TokenKind{domain.TokenKindAccess, domain.TokenKindRefresh} {
		token, err := manager.Issue(in, kind, time.Hour)
		require.NoError(t, err)

		clock.Advance(59 * time.Minute)
		out, err := manager.Verify(token, kind)
		require.NoError(t, err)
		clock.Advance(-59 * time.Minute)

		assert.Equal(t, in.Subject, out.Subject)
		assert.Equal(t, in.Email, out.Email)
		assert.Equal(t, kind, out.Kind)
		assert.Empty(t, out.Purpose)
		assert.Equal(t, clock.now.Unix(), out.IssuedAt.Unix())
		assert.Equal(t, clock.now.Add(time.Hour).Unix(), out.ExpiresAt.Unix())
	}
}

func TestJWTManager_CarriesPurpose(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	manager := newTestManager(t, clock)

	token, err := manager.Issue(domain.Claims{Subject: "id", Email: "a@x.com", Purpose: domain.PurposePasswordReset}, domain.TokenKindAccess, time.Hour)
	require.NoError(t, err)

	claims, err := manager.Verify(token, domain.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, domain.PurposePasswordReset, claims.Purpose)
}

func TestJWTManager_Expired(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	manager := newTestManager(t, clock)

	token, err := manager.Issue(domain.Claims{Subject: "id", Email: "a@x.com"}, domain.TokenKindAccess, time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)
	_, err = manager.Verify(token, domain.TokenKindAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTManager_KindMismatch(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	manager := newTestManager(t, clock)

	access, err := manager.Issue(domain.Claims{Subject: "id", Email: "a@x.com"}, domain.TokenKindAccess, time.Minute)
	require.NoError(t, err)
	_, err = manager.Verify(access, domain.TokenKindRefresh)
	assert.ErrorIs(t, err, ErrTokenKindMismatch)

	refresh, err := manager.Issue(domain.Claims{Subject: "id", Email: "a@x.com"}, domain.TokenKindRefresh, time.Minute)
	require.NoError(t, err)
	_, err = manager.Verify(refresh, domain.TokenKindAccess)
	assert.ErrorIs(t, err, ErrTokenKindMismatch)
}

func TestJWTManager_Invalid(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	manager := newTestManager(t, clock)

	token, err := manager.Issue(domain.Claims{Subject: "id", Email: "a@x.com"}, domain.TokenKindAccess, time.Minute)
	require.NoError(t, err)

	other, err := NewJWTManager("another-secret-key-that-is-32-characters+", "HS256", time.Minute, time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "id", "type": "access", "iat": time.Now().Unix(), "exp": time.Now().Add(time.Hour).Unix(),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "id", "type": "access", "iat": time.Now().Unix(), "exp": time.Now().Add(time.Hour).Unix(),
	})
	otherAlg, err := hs512.SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "id", "type": "access", "iat": time.Now().Unix()})
	withoutExp, err := noExp.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":     "not.a.token",
		"empty":       "",
		"tampered":    token[:len(token)-2] + "xx",
		"none alg":    unsigned,
		"other alg":   otherAlg,
		"missing exp": withoutExp,
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := manager.Verify(tok, domain.TokenKindAccess)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}

	t.Run("foreign secret", func(t *testing.T) {
		_, err := other.Verify(token, domain.TokenKindAccess)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestJWTManager_IssuePair(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	manager := newTestManager(t, clock)

	pair, err := manager.IssuePair(&domain.Account{ID: "id", Email: "alice@x.com"})
	require.NoError(t, err)

	assert.Equal(t, domain.TokenTypeBearer, pair.TokenType)
	assert.Equal(t, 1800, pair.ExpiresIn)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, err := manager.Verify(pair.AccessToken, domain.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(30*time.Minute).Unix(), access.ExpiresAt.Unix())

	refresh, err := manager.Verify(pair.RefreshToken, domain.TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(7*24*time.Hour).Unix(), refresh.ExpiresAt.Unix())
}

func TestNewJWTManager_RejectsNonHMAC(t *testing.T) {
	_, err := NewJWTManager(testSecret, "RS256", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewJWTManager(testSecret, "nope", time.Minute, time.Hour)
	assert.Error(t, err)
}
