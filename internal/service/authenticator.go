package service

import (
	"context"
	"errors"
	"strings"

	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/utils"
)

// ErrNoCredential means the request carried no bearer token. Optional-auth
// callers treat it as anonymous; required-auth callers as Unauthorized.
var ErrNoCredential = errors.New("no bearer credential")

// Principal is the authenticated caller of a request.
type Principal struct {
	Account *domain.Account
	Claims  *domain.Claims
}

// Authenticator resolves an Authorization header to an active account.
type Authenticator struct {
	tokens    *utils.JWTManager
	directory *UserDirectory
}

func NewAuthenticator(tokens *utils.JWTManager, directory *UserDirectory) *Authenticator {
	return &Authenticator{
		tokens:    tokens,
		directory: directory,
	}
}

// Authenticate verifies the bearer token in header as an access token and
// loads its account. Single-purpose tokens such as password reset links are
// not session credentials and are rejected.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Principal, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, ErrNoCredential
	}

	claims, err := a.tokens.Verify(token, domain.TokenKindAccess)
	if err != nil {
		return nil, domain.NewUnauthorizedError(msgExpiredToken, err)
	}
	if claims.Purpose != "" {
		return nil, domain.NewUnauthorizedError(msgExpiredToken, errors.New("purpose token used as session"))
	}

	account, err := a.directory.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, domain.NewUnauthorizedError("Account not found", err)
		}
		return nil, err
	}

	if !account.IsActive {
		return nil, domain.NewUnauthorizedError("Account is inactive", nil)
	}

	return &Principal{Account: account, Claims: claims}, nil
}

// RequireVerified fails with Forbidden unless the account email is verified.
func RequireVerified(account *domain.Account) error {
	if !account.IsVerified {
		return domain.NewForbiddenError("Email verification required")
	}
	return nil
}

// RequireRole fails with Forbidden unless the account has role.
func RequireRole(account *domain.Account, role domain.Role) error {
	if !account.HasRole(role) {
		return domain.NewForbiddenError("Insufficient permissions")
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
