package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

const (
	statusPass = "pass"
	statusFail = "fail"
)

type HealthChecker struct {
	infra Infrastructure
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{
		infra: infra,
	}
}

// check pings every dependency concurrently and returns the error of each
// by component name.
func (h *HealthChecker) check(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	probes := map[string]func(context.Context) error{
		"postgres": h.infra.Postgres().Ping,
		"redis":    h.infra.Redis().Ping,
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]error, len(probes))
	)
	for name, ping := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ping(ctx)

			mu.Lock()
			results[name] = err
			mu.Unlock()
		}()
	}
	wg.Wait()

	return results
}

func (h *HealthChecker) Handler(c *gin.Context) {
	results := h.check(c.Request.Context())

	components := make(gin.H, len(results))
	var failed []error
	for name, err := range results {
		if err != nil {
			components[name] = statusFail
			failed = append(failed, err)
			continue
		}
		components[name] = statusPass
	}

	if len(failed) > 0 {
		h.infra.Logger().Warn("Health check failed", zap.Error(errors.Join(failed...)))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     statusFail,
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     statusPass,
		"components": components,
	})
}
