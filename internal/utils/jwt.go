package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/seekerapp/seeker-auth/internal/domain"
)

var (
	// ErrTokenInvalid is returned for malformed tokens, bad signatures and
	// unexpected algorithms.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrTokenExpired is returned once the exp claim has passed.
	ErrTokenExpired = errors.New("token is expired")

	// ErrTokenKindMismatch is returned when the type claim differs from the
	// kind the caller expects.
	ErrTokenKindMismatch = errors.New("token kind mismatch")
)

// tokenClaims is the wire form of domain.Claims.
type tokenClaims struct {
	Email   string           `json:"email"`
	Type    domain.TokenKind `json:"type"`
	Purpose string           `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies signed tokens with a process-wide secret.
type JWTManager struct {
	secret             []byte
	method             jwt.SigningMethod
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	now                func() time.Time
}

// JWTOption customizes a JWTManager.
type JWTOption func(*JWTManager)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) JWTOption {
	return func(j *JWTManager) {
		j.now = now
	}
}

// NewJWTManager creates a new JWT manager. algorithm must name an HMAC
// signing method such as HS256.
func NewJWTManager(secret, algorithm string, accessTokenExpiry, refreshTokenExpiry time.Duration, opts ...JWTOption) (*JWTManager, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm: %q", algorithm)
	}

	j := &JWTManager{
		secret:             []byte(secret),
		method:             method,
		accessTokenExpiry:  accessTokenExpiry,
		refreshTokenExpiry: refreshTokenExpiry,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

// Issue signs claims as a token of the given kind valid for ttl.
// IssuedAt and ExpiresAt of the input are ignored.
func (j *JWTManager) Issue(claims domain.Claims, kind domain.TokenKind, ttl time.Duration) (string, error) {
	now := j.now()

	token := jwt.NewWithClaims(j.method, tokenClaims{
		Email:   claims.Email,
		Type:    kind,
		Purpose: claims.Purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	})

	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return tokenString, nil
}

// Verify checks the signature, expiry and kind of a token and returns its
// claims.
func (j *JWTManager) Verify(tokenString string, expected domain.TokenKind) (*domain.Claims, error) {
	var wire tokenClaims

	_, err := jwt.ParseWithClaims(tokenString, &wire, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if wire.Subject == "" || wire.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing subject or iat", ErrTokenInvalid)
	}

	if wire.Type != expected {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrTokenKindMismatch, wire.Type, expected)
	}

	return &domain.Claims{
		Subject:   wire.Subject,
		Email:     wire.Email,
		Kind:      wire.Type,
		Purpose:   wire.Purpose,
		IssuedAt:  wire.IssuedAt.Time,
		ExpiresAt: wire.ExpiresAt.Time,
	}, nil
}

// IssuePair issues an access and a refresh token for the account.
func (j *JWTManager) IssuePair(account *domain.Account) (*domain.TokenPair, error) {
	claims := domain.Claims{Subject: account.ID, Email: account.Email}

	accessToken, err := j.Issue(claims, domain.TokenKindAccess, j.accessTokenExpiry)
	if err != nil {
		return nil, err
	}

	refreshToken, err := j.Issue(claims, domain.TokenKindRefresh, j.refreshTokenExpiry)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    domain.TokenTypeBearer,
		ExpiresIn:    j.AccessTokenExpiry(),
	}, nil
}

// AccessTokenExpiry returns the access token lifetime in seconds
func (j *JWTManager) AccessTokenExpiry() int {
	return int(j.accessTokenExpiry.Seconds())
}

// RefreshTokenExpiry returns the refresh token lifetime in seconds
func (j *JWTManager) RefreshTokenExpiry() int {
	return int(j.refreshTokenExpiry.Seconds())
}

// AccessTokenTTL returns the configured access token lifetime.
func (j *JWTManager) AccessTokenTTL() time.Duration {
	return j.accessTokenExpiry
}
