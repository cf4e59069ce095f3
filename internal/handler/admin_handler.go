package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/service"
	"go.uber.org/zap"
)

// AdminHandler exposes account moderation to admins.
type AdminHandler struct {
	authService service.AuthService
}

func NewAdminHandler(authService service.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

// DeactivateAccount handles POST /admin/accounts/:id/deactivate
func (h *AdminHandler) DeactivateAccount(c *gin.Context) {
	h.apply(c, "deactivated", h.authService.Deactivate)
}

// ReactivateAccount handles POST /admin/accounts/:id/reactivate
func (h *AdminHandler) ReactivateAccount(c *gin.Context) {
	h.apply(c, "reactivated", h.authService.Reactivate)
}

// VerifyAccount handles POST /admin/accounts/:id/verify
func (h *AdminHandler) VerifyAccount(c *gin.Context) {
	h.apply(c, "verified", h.authService.VerifyEmail)
}

func (h *AdminHandler) apply(c *gin.Context, action string, op func(ctx context.Context, id string) (bool, error)) {
	id := c.Param("id")

	ok, err := op(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, domain.NewNotFoundError("Account not found"))
		return
	}

	zap.L().Info("Admin account action",
		zap.String("action", action),
		zap.String("account_id", id),
		zap.String("admin_id", mustPrincipal(c).Account.ID),
		zap.String("request_id", RequestID(c)),
	)

	respond(c, http.StatusOK, gin.H{"id": id, action: true}, "Account "+action)
}
