package service

import (
	"context"

	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/dto"
)

// AuthService defines the account lifecycle operations. Each call is its
// own transaction boundary.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AccessGrant, error)

	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	VerifyEmail(ctx context.Context, id string) (bool, error)
	ConfirmEmail(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	Deactivate(ctx context.Context, id string) (bool, error)
	Reactivate(ctx context.Context, id string) (bool, error)

	RequestPasswordReset(ctx context.Context, email string) error
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
}
