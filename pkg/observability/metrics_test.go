package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string][]metricdata.DataPoint[int64] {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string][]metricdata.DataPoint[int64])
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				sums[m.Name] = sum.DataPoints
			}
		}
	}
	return sums
}

func TestAuthMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewAuthMetrics(provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.Registered(ctx)
	m.Login(ctx, LoginSucceeded)
	m.Login(ctx, LoginFailed)
	m.Login(ctx, LoginFailed)
	m.PasswordReset(ctx, ResetRequested)

	sums := collectSums(t, reader)

	require.Len(t, sums["auth_registrations_total"], 1)
	assert.Equal(t, int64(1), sums["auth_registrations_total"][0].Value)

	logins := map[string]int64{}
	for _, dp := range sums["auth_logins_total"] {
		result, ok := dp.Attributes.Value(attribute.Key("result"))
		require.True(t, ok)
		logins[result.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{LoginSucceeded: 1, LoginFailed: 2}, logins)

	require.Len(t, sums["auth_password_resets_total"], 1)
	stage, _ := sums["auth_password_resets_total"][0].Attributes.Value(attribute.Key("stage"))
	assert.Equal(t, ResetRequested, stage.AsString())
}

func TestPrometheusHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	_, handler, err := InitTelemetry("seeker-auth-test")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/metrics", PrometheusHandler(handler))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	router = gin.New()
	router.GET("/metrics", PrometheusHandler(nil))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
