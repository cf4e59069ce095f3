package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/seekerapp/seeker-auth/internal/config"
	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/handler"
	"github.com/seekerapp/seeker-auth/internal/notification"
	"github.com/seekerapp/seeker-auth/internal/repository"
	"github.com/seekerapp/seeker-auth/internal/service"
	"github.com/seekerapp/seeker-auth/internal/utils"
	"github.com/seekerapp/seeker-auth/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	serviceName     = "seeker-auth"
	shutdownTimeout = 5 * time.Second
)

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

// routeDeps is everything setupRoutes mounts.
type routeDeps struct {
	authHandler   *handler.AuthHandler
	adminHandler  *handler.AdminHandler
	authenticator *service.Authenticator
	rateLimiter   *service.RateLimiter
	healthChecker *HealthChecker
	metrics       http.Handler
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	store := repository.NewStore(infra.Postgres().DB)

	jwtManager, err := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.Algorithm,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT manager: %w", err)
	}

	metrics, err := observability.NewAuthMetrics(infra.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	authService := service.NewAuthService(
		store,
		utils.NewPasswordHasher(cfg.Security.BCryptCost),
		jwtManager,
		newNotifier(cfg, infra.Logger()),
		metrics,
		infra.Logger(),
		service.Options{
			MinPasswordLength:    cfg.Security.MinPasswordLength,
			PasswordResetTTL:     cfg.JWT.PasswordResetExpiry.Duration,
			EmailVerificationTTL: cfg.JWT.EmailVerificationExpiry.Duration,
			FrontendURL:          cfg.App.FrontendURL,
		},
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.RequestIDMiddleware())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS))

	setupRoutes(router, cfg, routeDeps{
		authHandler:   handler.NewAuthHandler(authService, jwtManager.RefreshTokenExpiry(), cfg.Env == "production"),
		adminHandler:  handler.NewAdminHandler(authService),
		authenticator: service.NewAuthenticator(jwtManager, service.NewUserDirectory(store)),
		rateLimiter:   service.NewRateLimiter(infra.Redis()),
		healthChecker: NewHealthChecker(infra),
		metrics:       infra.MetricsHandler(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// newNotifier delivers mail over SMTP when it is configured and only logs
// otherwise.
func newNotifier(cfg *config.Config, logger *zap.Logger) notification.Notifier {
	if !cfg.SMTP.Enabled() {
		logger.Warn("SMTP is not configured, emails will not be sent")
		return notification.NewLogNotifier(logger)
	}

	dialer := notification.NewSMTPDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password)
	return notification.NewSMTPNotifier(dialer, notification.SMTPOptions{
		From:                 cfg.SMTP.From,
		AppName:              cfg.App.Name,
		FrontendURL:          cfg.App.FrontendURL,
		PasswordResetTTL:     cfg.JWT.PasswordResetExpiry.Duration,
		EmailVerificationTTL: cfg.JWT.EmailVerificationExpiry.Duration,
	}, logger)
}

func setupRoutes(router *gin.Engine, cfg *config.Config, deps routeDeps) {
	router.GET("/metrics", observability.PrometheusHandler(deps.metrics))
	router.GET("/health", deps.healthChecker.Handler)

	rateLimited := handler.RateLimitMiddleware(
		deps.rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.RouteAndIPKey,
	)
	requireAuth := handler.RequireAuth(deps.authenticator)
	requireVerified := handler.RequireVerified()

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", rateLimited, deps.authHandler.Register)
			auth.POST("/login", rateLimited, deps.authHandler.Login)
			auth.POST("/refresh", deps.authHandler.Refresh)
			auth.POST("/logout", handler.OptionalAuth(deps.authenticator), deps.authHandler.Logout)
			auth.GET("/me", requireAuth, deps.authHandler.Me)
			auth.GET("/validate-token", requireAuth, deps.authHandler.ValidateToken)
			auth.POST("/verify-email", deps.authHandler.VerifyEmail)
			auth.POST("/change-password", requireAuth, requireVerified, deps.authHandler.ChangePassword)
			auth.POST("/deactivate", requireAuth, requireVerified, deps.authHandler.Deactivate)
			auth.POST("/forgot-password", rateLimited, deps.authHandler.ForgotPassword)
			auth.POST("/reset-password", deps.authHandler.ResetPassword)
		}

		admin := api.Group("/admin", requireAuth, requireVerified, handler.RequireRole(domain.RoleAdmin))
		{
			admin.POST("/accounts/:id/deactivate", deps.adminHandler.DeactivateAccount)
			admin.POST("/accounts/:id/reactivate", deps.adminHandler.ReactivateAccount)
			admin.POST("/accounts/:id/verify", deps.adminHandler.VerifyAccount)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
			zap.String("env", a.config.Env),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop taking requests before the pools they use are closed.
	if err := a.server.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("HTTP server shutdown failed", zap.Error(err))
		return errors.Join(err, a.infra.Shutdown(ctx))
	}

	if err := a.infra.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
