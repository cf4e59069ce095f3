package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/seekerapp/seeker-auth"

// Login outcomes and password reset stages used as metric attributes.
const (
	LoginSucceeded = "success"
	LoginFailed    = "failure"

	ResetRequested = "requested"
	ResetCompleted = "completed"
)

// AuthMetrics counts account lifecycle events.
type AuthMetrics struct {
	registrations  metric.Int64Counter
	logins         metric.Int64Counter
	passwordResets metric.Int64Counter
}

// NewAuthMetrics creates the auth counters on provider.
func NewAuthMetrics(provider metric.MeterProvider) (*AuthMetrics, error) {
	meter := provider.Meter(meterName)

	registrations, err := meter.Int64Counter("auth_registrations_total",
		metric.WithDescription("Number of accounts registered"))
	if err != nil {
		return nil, fmt.Errorf("failed to create registrations counter: %w", err)
	}

	logins, err := meter.Int64Counter("auth_logins_total",
		metric.WithDescription("Number of login attempts by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	passwordResets, err := meter.Int64Counter("auth_password_resets_total",
		metric.WithDescription("Number of password reset requests and completions"))
	if err != nil {
		return nil, fmt.Errorf("failed to create password resets counter: %w", err)
	}

	return &AuthMetrics{
		registrations:  registrations,
		logins:         logins,
		passwordResets: passwordResets,
	}, nil
}

func (m *AuthMetrics) Registered(ctx context.Context) {
	m.registrations.Add(ctx, 1)
}

func (m *AuthMetrics) Login(ctx context.Context, result string) {
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *AuthMetrics) PasswordReset(ctx context.Context, stage string) {
	m.passwordResets.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}
