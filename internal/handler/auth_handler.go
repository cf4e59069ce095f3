package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/dto"
	"github.com/seekerapp/seeker-auth/internal/service"
	"go.uber.org/zap"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth/refresh"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService        service.AuthService
	refreshTokenMaxAge int
	secureCookies      bool
}

// NewAuthHandler creates a new auth handler. refreshTokenMaxAge is the
// refresh cookie lifetime in seconds.
func NewAuthHandler(authService service.AuthService, refreshTokenMaxAge int, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:        authService,
		refreshTokenMaxAge: refreshTokenMaxAge,
		secureCookies:      secureCookies,
	}
}

// Register handles account registration
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.Tokens.RefreshToken)
	respond(c, http.StatusCreated, authResponse(result), "Account registered successfully")
}

// Login handles account login
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.Tokens.RefreshToken)
	respond(c, http.StatusOK, authResponse(result), "Login successful")
}

// Refresh exchanges a refresh token for a new access token
// @Summary Refresh the access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshRequest false "Refresh token, defaults to the refresh_token cookie"
// @Success 200 {object} domain.AccessGrant
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(refreshCookieName)
	}
	if req.RefreshToken == "" {
		respondError(c, domain.NewValidationError("Refresh token is required"))
		return
	}

	grant, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, grant, "Token refreshed successfully")
}

// Logout acknowledges a logout. Tokens are not revoked server-side; the
// client discards them and the refresh cookie is cleared.
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if principal, ok := CurrentPrincipal(c); ok {
		zap.L().Info("Account logged out",
			zap.String("account_id", principal.Account.ID),
			zap.String("request_id", RequestID(c)),
		)
	}

	h.clearRefreshCookie(c)
	respond(c, http.StatusOK, gin.H{"logged_out": true}, "Please discard your tokens")
}

// Me returns the current account profile
// @Summary Current account
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.AccountProfile
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	respond(c, http.StatusOK, dto.NewAccountProfile(mustPrincipal(c).Account), "Account retrieved successfully")
}

// VerifyEmail consumes the token of a verification link
// @Summary Verify email address
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyEmailRequest true "Verification token"
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ConfirmEmail(c.Request.Context(), req.Token); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"verified": true}, "Email verified successfully")
}

// ChangePassword changes the password of the current account
// @Summary Change password
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	account := mustPrincipal(c).Account
	if err := h.authService.ChangePassword(c.Request.Context(), account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"changed": true}, "Password changed successfully")
}

// Deactivate deactivates the current account
// @Summary Deactivate account
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /auth/deactivate [post]
func (h *AuthHandler) Deactivate(c *gin.Context) {
	account := mustPrincipal(c).Account

	ok, err := h.authService.Deactivate(c.Request.Context(), account.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, domain.NewNotFoundError("Account not found"))
		return
	}

	h.clearRefreshCookie(c)
	respond(c, http.StatusOK, gin.H{"deactivated": true}, "Account deactivated successfully")
}

// ForgotPassword starts a password reset. The answer does not reveal
// whether the email is registered.
// @Summary Request a password reset link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} dto.SuccessResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"sent": true}, "If the email exists, a password reset link has been sent")
}

// ResetPassword completes a password reset
// @Summary Reset password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.CompletePasswordReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"reset": true}, "Password reset successfully")
}

// ValidateToken reports on the presented access token
// @Summary Validate the access token
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.TokenValidationResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/validate-token [get]
func (h *AuthHandler) ValidateToken(c *gin.Context) {
	principal := mustPrincipal(c)

	respond(c, http.StatusOK, dto.TokenValidationResponse{
		Valid:      true,
		UserID:     principal.Account.ID,
		Email:      principal.Account.Email,
		IsVerified: principal.Account.IsVerified,
		ExpiresAt:  principal.Claims.ExpiresAt,
	}, "Token is valid")
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	h.writeRefreshCookie(c, token, h.refreshTokenMaxAge)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	h.writeRefreshCookie(c, "", -1)
}

// writeRefreshCookie keeps setting and clearing on identical attributes.
func (h *AuthHandler) writeRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, value, maxAge, refreshCookiePath, "", h.secureCookies, true)
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User:   dto.NewAccountSummary(result.Account),
		Tokens: *result.Tokens,
	}
}
