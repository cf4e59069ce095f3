package service

import (
	"fmt"
	"net/url"
	"time"

	"github.com/seekerapp/seeker-auth/internal/domain"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Account *domain.Account
	Tokens  *domain.TokenPair
}

// issueSession issues the access/refresh pair for account.
func (s *authService) issueSession(account *domain.Account) (*AuthResult, error) {
	tokens, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	return &AuthResult{
		Account: account,
		Tokens:  tokens,
	}, nil
}

// issuePurposeToken issues a single-use access token, e.g. for a password
// reset link.
func (s *authService) issuePurposeToken(account *domain.Account, purpose string, ttl time.Duration) (string, error) {
	token, err := s.tokens.Issue(domain.Claims{
		Subject: account.ID,
		Email:   account.Email,
		Purpose: purpose,
	}, domain.TokenKindAccess, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to issue %s token: %w", purpose, err)
	}
	return token, nil
}

// frontendLink builds {FrontendURL}{path}?token=...
func (s *authService) frontendLink(path, token string) string {
	return s.frontendURL + path + "?" + url.Values{"token": []string{token}}.Encode()
}
