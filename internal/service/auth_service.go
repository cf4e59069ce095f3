package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/dto"
	"github.com/seekerapp/seeker-auth/internal/notification"
	"github.com/seekerapp/seeker-auth/internal/repository"
	"github.com/seekerapp/seeker-auth/internal/utils"
	"github.com/seekerapp/seeker-auth/pkg/observability"
	"go.uber.org/zap"
)

// Client-facing messages shared by several operations.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidResetToken  = "Invalid reset token"
	msgInvalidVerifyToken = "Invalid verification token"
	msgExpiredToken       = "Invalid or expired token"
)

// Options holds the account policy knobs of the service.
type Options struct {
	MinPasswordLength    int
	PasswordResetTTL     time.Duration
	EmailVerificationTTL time.Duration
	FrontendURL          string
}

// authService implements AuthService interface
type authService struct {
	store     repository.Store
	directory *UserDirectory
	hasher    *utils.PasswordHasher
	tokens    *utils.JWTManager
	notifier  notification.Notifier
	metrics   *observability.AuthMetrics
	logger    *zap.Logger

	minPasswordLength    int
	passwordResetTTL     time.Duration
	emailVerificationTTL time.Duration
	frontendURL          string

	dummyHashOnce sync.Once
	dummyHash     string
}

// NewAuthService creates a new auth service
func NewAuthService(
	store repository.Store,
	hasher *utils.PasswordHasher,
	tokens *utils.JWTManager,
	notifier notification.Notifier,
	metrics *observability.AuthMetrics,
	logger *zap.Logger,
	opts Options,
) AuthService {
	return &authService{
		store:                store,
		directory:            NewUserDirectory(store),
		hasher:               hasher,
		tokens:               tokens,
		notifier:             notifier,
		metrics:              metrics,
		logger:               logger,
		minPasswordLength:    opts.MinPasswordLength,
		passwordResetTTL:     opts.PasswordResetTTL,
		emailVerificationTTL: opts.EmailVerificationTTL,
		frontendURL:          strings.TrimRight(opts.FrontendURL, "/"),
	}
}

// Register creates an account together with its zeroed stats record and
// signs the account in.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*AuthResult, error) {
	email := utils.NormalizeEmail(req.Email)
	if !utils.ValidateEmail(email) {
		return nil, domain.NewValidationError("Invalid email format")
	}

	username := optional(req.Username)
	if username != nil && !utils.ValidateUsername(*username) {
		return nil, domain.NewValidationError("Username must be 3-50 characters of letters, digits, '_', '.' or '-'")
	}

	emailTaken, usernameTaken, err := s.directory.ExistsWithEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if emailTaken {
		return nil, domain.NewConflictError("Email already registered")
	}
	if usernameTaken {
		return nil, domain.NewConflictError("Username already taken")
	}

	if err := s.validatePassword(req.Password, "Password"); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	firstName := optional(req.FirstName)
	displayName := firstName
	if displayName == nil {
		displayName = username
	}

	account := &domain.Account{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     optional(req.LastName),
		DisplayName:  displayName,
		Role:         domain.RoleUser,
		IsActive:     true,
		IsVerified:   false,
	}

	var result *AuthResult
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		if err := tx.Stats().Create(ctx, domain.NewAccountStats(account.ID)); err != nil {
			return err
		}

		var err error
		result, err = s.issueSession(account)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, domain.NewConflictError("Email already registered")
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, domain.NewConflictError("Username already taken")
		}
		return nil, fmt.Errorf("failed to register account: %w", err)
	}

	s.metrics.Registered(ctx)
	s.logger.Info("Account registered", zap.String("account_id", account.ID))

	s.sendVerification(ctx, account)

	return result, nil
}

// Login authenticates by email and password. Unknown email, wrong password
// and inactive account fail with the same message.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.authenticate(ctx, email, password)
	if err != nil {
		if domain.HasCode(err, domain.CodeAuthentication) {
			s.metrics.Login(ctx, observability.LoginFailed)
		}
		return nil, err
	}

	now := time.Now().UTC()

	var result *AuthResult
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Accounts().UpdateLastLogin(ctx, account.ID, now); err != nil {
			return err
		}
		account.LastLoginAt = &now

		var err error
		result, err = s.issueSession(account)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	s.metrics.Login(ctx, observability.LoginSucceeded)

	return result, nil
}

// Refresh exchanges a refresh token for a new access token. The account
// must still exist and be active.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.AccessGrant, error) {
	claims, err := s.tokens.Verify(refreshToken, domain.TokenKindRefresh)
	if err != nil {
		return nil, domain.NewUnauthorizedError("Invalid or expired refresh token", err)
	}

	account, err := s.directory.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, domain.NewUnauthorizedError("Invalid or expired refresh token", err)
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, domain.NewUnauthorizedError("Invalid or expired refresh token", errors.New("account is inactive"))
	}

	accessToken, err := s.tokens.Issue(domain.Claims{
		Subject: account.ID,
		Email:   account.Email,
	}, domain.TokenKindAccess, s.tokens.AccessTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &domain.AccessGrant{
		AccessToken: accessToken,
		TokenType:   domain.TokenTypeBearer,
		ExpiresIn:   s.tokens.AccessTokenExpiry(),
	}, nil
}

func (s *authService) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.directory.FindByID(ctx, id)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, domain.NewNotFoundError("Account not found")
	}
	return account, err
}

func (s *authService) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	account, err := s.directory.FindByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, domain.NewNotFoundError("Account not found")
	}
	return account, err
}

// VerifyEmail marks the account verified. It returns false for an unknown
// id. The welcome email goes out on the first verification only.
func (s *authService) VerifyEmail(ctx context.Context, id string) (bool, error) {
	var (
		verified      *domain.Account
		firstVerified bool
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		account, err := NewUserDirectory(tx).FindByID(ctx, id)
		if err != nil {
			return err
		}

		verified = account
		if account.IsVerified {
			return nil
		}

		now := time.Now().UTC()
		account.IsVerified = true
		account.EmailVerifiedAt = &now
		firstVerified = true

		return tx.Accounts().Update(ctx, account)
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify email: %w", err)
	}

	if firstVerified {
		s.logger.Info("Email verified", zap.String("account_id", verified.ID))
		if err := s.notifier.SendWelcome(ctx, verified.Email, verified.Name()); err != nil {
			s.logger.Error("Failed to send welcome email", zap.String("account_id", verified.ID), zap.Error(err))
		}
	}

	return true, nil
}

// ConfirmEmail verifies the account named by an email verification token.
func (s *authService) ConfirmEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token, domain.TokenKindAccess)
	if err != nil {
		return domain.NewUnauthorizedError("Invalid or expired verification token", err)
	}
	if claims.Purpose != domain.PurposeEmailVerification {
		return domain.NewValidationError(msgInvalidVerifyToken)
	}

	ok, err := s.VerifyEmail(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewValidationError(msgInvalidVerifyToken)
	}

	return nil
}

// ChangePassword re-authenticates with currentPassword before replacing the
// password hash.
func (s *authService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		account, err := NewUserDirectory(tx).FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return domain.NewAuthenticationError("Account not found")
			}
			return err
		}

		if !s.hasher.Verify(currentPassword, account.PasswordHash) {
			return domain.NewAuthenticationError("Current password is incorrect")
		}

		if err := s.validatePassword(newPassword, "New password"); err != nil {
			return err
		}

		return s.replacePassword(ctx, tx, account, newPassword)
	})
}

func (s *authService) Deactivate(ctx context.Context, id string) (bool, error) {
	return s.setActive(ctx, id, false)
}

func (s *authService) Reactivate(ctx context.Context, id string) (bool, error) {
	return s.setActive(ctx, id, true)
}

// RequestPasswordReset emails a reset link when the account exists. The
// result is the same either way.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	s.metrics.PasswordReset(ctx, observability.ResetRequested)

	account, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		return err
	}

	token, err := s.issuePurposeToken(account, domain.PurposePasswordReset, s.passwordResetTTL)
	if err != nil {
		return err
	}

	if err := s.notifier.SendPasswordReset(ctx, account.Email, s.frontendLink("/reset-password", token)); err != nil {
		s.logger.Error("Failed to send password reset email", zap.String("account_id", account.ID), zap.Error(err))
	}

	return nil
}

// CompletePasswordReset replaces the password of the account named by a
// password reset token. The token stays usable until it expires.
func (s *authService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.Verify(token, domain.TokenKindAccess)
	if err != nil {
		return domain.NewUnauthorizedError("Invalid or expired reset token", err)
	}
	if claims.Purpose != domain.PurposePasswordReset {
		return domain.NewValidationError(msgInvalidResetToken)
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		account, err := NewUserDirectory(tx).FindByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return domain.NewValidationError(msgInvalidResetToken)
			}
			return err
		}

		if err := s.validatePassword(newPassword, "Password"); err != nil {
			return err
		}

		return s.replacePassword(ctx, tx, account, newPassword)
	})
	if err != nil {
		return err
	}

	s.metrics.PasswordReset(ctx, observability.ResetCompleted)
	s.logger.Info("Password reset completed", zap.String("account_id", claims.Subject))

	return nil
}

// authenticate checks credentials without side effects.
func (s *authService) authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Spend the same bcrypt time as for a real account.
			s.hasher.Verify(password, s.fallbackHash())
			return nil, domain.NewAuthenticationError(msgInvalidCredentials)
		}
		return nil, err
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, domain.NewAuthenticationError(msgInvalidCredentials)
	}
	if !account.IsActive {
		return nil, domain.NewAuthenticationError(msgInvalidCredentials)
	}

	return account, nil
}

func (s *authService) setActive(ctx context.Context, id string, active bool) (bool, error) {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		account, err := NewUserDirectory(tx).FindByID(ctx, id)
		if err != nil {
			return err
		}
		if account.IsActive == active {
			return nil
		}

		account.IsActive = active
		return tx.Accounts().Update(ctx, account)
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update account status: %w", err)
	}

	s.logger.Info("Account status changed", zap.String("account_id", id), zap.Bool("active", active))
	return true, nil
}

func (s *authService) replacePassword(ctx context.Context, tx repository.Store, account *domain.Account, password string) error {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	account.PasswordHash = passwordHash
	if err := tx.Accounts().Update(ctx, account); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *authService) validatePassword(password, field string) error {
	if utils.ValidatePasswordLength(password, s.minPasswordLength) {
		return nil
	}
	if len(password) > utils.MaxPasswordBytes {
		return domain.NewValidationError(fmt.Sprintf("%s must be at most %d bytes long", field, utils.MaxPasswordBytes))
	}
	return domain.NewValidationError(fmt.Sprintf("%s must be at least %d characters long", field, s.minPasswordLength))
}

// sendVerification emails the verification link of a new account.
func (s *authService) sendVerification(ctx context.Context, account *domain.Account) {
	token, err := s.issuePurposeToken(account, domain.PurposeEmailVerification, s.emailVerificationTTL)
	if err != nil {
		s.logger.Error("Failed to issue verification token", zap.String("account_id", account.ID), zap.Error(err))
		return
	}

	if err := s.notifier.SendVerification(ctx, account.Email, s.frontendLink("/verify-email", token)); err != nil {
		s.logger.Error("Failed to send verification email", zap.String("account_id", account.ID), zap.Error(err))
	}
}

func (s *authService) fallbackHash() string {
	s.dummyHashOnce.Do(func() {
		hash, err := s.hasher.Hash("seeker-timing-equalizer")
		if err != nil {
			s.logger.Error("Failed to prepare fallback hash", zap.Error(err))
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// optional trims a request field and maps blank to nil.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
