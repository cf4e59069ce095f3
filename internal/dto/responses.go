package dto

import (
	"time"

	"github.com/seekerapp/seeker-auth/internal/domain"
)

// SuccessResponse is the envelope of every successful API response.
type SuccessResponse struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse is the envelope of every failed API response.
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AccountSummary is the account as returned by register and login.
type AccountSummary struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    *string    `json:"username"`
	FirstName   *string    `json:"first_name"`
	LastName    *string    `json:"last_name"`
	DisplayName *string    `json:"display_name"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

func NewAccountSummary(a *domain.Account) AccountSummary {
	return AccountSummary{
		ID:          a.ID,
		Email:       a.Email,
		Username:    a.Username,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		DisplayName: a.DisplayName,
		IsVerified:  a.IsVerified,
		CreatedAt:   a.CreatedAt,
		LastLoginAt: a.LastLoginAt,
	}
}

// AccountProfile is the full view of the current account.
type AccountProfile struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Username        *string    `json:"username"`
	FirstName       *string    `json:"first_name"`
	LastName        *string    `json:"last_name"`
	DisplayName     *string    `json:"display_name"`
	Bio             *string    `json:"bio"`
	AvatarURL       *string    `json:"avatar_url"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"is_active"`
	IsVerified      bool       `json:"is_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func NewAccountProfile(a *domain.Account) AccountProfile {
	return AccountProfile{
		ID:              a.ID,
		Email:           a.Email,
		Username:        a.Username,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		DisplayName:     a.DisplayName,
		Bio:             a.Bio,
		AvatarURL:       a.AvatarURL,
		Role:            string(a.Role),
		IsActive:        a.IsActive,
		IsVerified:      a.IsVerified,
		EmailVerifiedAt: a.EmailVerifiedAt,
		LastLoginAt:     a.LastLoginAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	User   AccountSummary   `json:"user"`
	Tokens domain.TokenPair `json:"tokens"`
}

// TokenValidationResponse answers GET /auth/validate-token.
type TokenValidationResponse struct {
	Valid      bool      `json:"valid"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	ExpiresAt  time.Time `json:"expires_at"`
}
