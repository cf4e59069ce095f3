package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/seekerapp/seeker-auth/internal/config"
	"github.com/seekerapp/seeker-auth/pkg/database"
	"github.com/seekerapp/seeker-auth/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

type testInfra struct {
	postgres       *database.Postgres
	redis          *database.Redis
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

func (i *testInfra) Postgres() *database.Postgres         { return i.postgres }
func (i *testInfra) Redis() *database.Redis               { return i.redis }
func (i *testInfra) Logger() *zap.Logger                  { return zap.NewNop() }
func (i *testInfra) MetricsHandler() http.Handler         { return i.metricsHandler }
func (i *testInfra) MeterProvider() *metric.MeterProvider { return i.meterProvider }
func (i *testInfra) Shutdown(context.Context) error       { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Seeker", FrontendURL: "https://seeker.com"},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "0",
			ReadTimeout:  config.Duration{Duration: 15 * time.Second},
			WriteTimeout: config.Duration{Duration: 15 * time.Second},
		},
		JWT: config.JWTConfig{
			Secret:                  "test-secret-key-that-is-at-least-32-characters-long",
			Algorithm:               "HS256",
			AccessTokenExpiry:       config.Duration{Duration: 30 * time.Minute},
			RefreshTokenExpiry:      config.Duration{Duration: 7 * 24 * time.Hour},
			PasswordResetExpiry:     config.Duration{Duration: time.Hour},
			EmailVerificationExpiry: config.Duration{Duration: 24 * time.Hour},
		},
		Security: config.SecurityConfig{
			BCryptCost:        4,
			MinPasswordLength: 8,
			RateLimitRequests: 2,
			RateLimitWindow:   config.Duration{Duration: time.Minute},
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		},
		Env: "test",
	}
}

func newTestApp(t *testing.T) (*App, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	provider, metricsHandler, err := observability.InitTelemetry("seeker-auth-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	application, err := NewApp(&testInfra{
		postgres:       &database.Postgres{DB: db},
		redis:          &database.Redis{Client: client},
		metricsHandler: metricsHandler,
		meterProvider:  provider,
	}, testConfig())
	require.NoError(t, err)

	return application, mock, mr
}

func serve(a *App, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

type healthBody struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func TestHealth(t *testing.T) {
	application, mock, mr := newTestApp(t)

	mock.ExpectPing()
	w := serve(application, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body healthBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pass", body.Status)
	assert.Equal(t, map[string]string{"postgres": "pass", "redis": "pass"}, body.Components)

	mr.Close()
	mock.ExpectPing()
	w = serve(application, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "fail", body.Status)
	assert.Equal(t, "pass", body.Components["postgres"])
	assert.Equal(t, "fail", body.Components["redis"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsEndpoint(t *testing.T) {
	application, _, _ := newTestApp(t)

	w := serve(application, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	application, _, _ := newTestApp(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/auth/validate-token"},
		{http.MethodPost, "/api/v1/auth/change-password"},
		{http.MethodPost, "/api/v1/auth/deactivate"},
		{http.MethodPost, "/api/v1/admin/accounts/123/deactivate"},
	} {
		w := serve(application, route.method, route.path, "{}")
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), route.path)
	}

	w := serve(application, http.MethodPost, "/api/v1/auth/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitedRoutes(t *testing.T) {
	application, _, _ := newTestApp(t)

	// Invalid bodies are rejected before any database access.
	for range 2 {
		w := serve(application, http.MethodPost, "/api/v1/auth/login", `{"email":"nope"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	}

	w := serve(application, http.MethodPost, "/api/v1/auth/login", `{"email":"nope"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = serve(application, http.MethodPost, "/api/v1/auth/register", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "limits are kept per route")
}

func TestNewAppRejectsUnknownAlgorithm(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	cfg.JWT.Algorithm = "RS256"

	_, err = NewApp(&testInfra{
		postgres:      &database.Postgres{DB: db},
		redis:         &database.Redis{Client: redis.NewClient(&redis.Options{Addr: "localhost:0"})},
		meterProvider: metric.NewMeterProvider(),
	}, cfg)
	assert.Error(t, err)
}
