package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_Check(t *testing.T) {
	registry := NewHealthRegistry(time.Second)
	registry.Register("database", func(context.Context) error { return nil })
	registry.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	results, healthy := registry.Check(context.Background())

	assert.False(t, healthy)
	require.Len(t, results, 2)
	assert.Equal(t, HealthStatusHealthy, results["database"].Status)
	assert.Equal(t, HealthStatusUnhealthy, results["redis"].Status)
	assert.Equal(t, "connection refused", results["redis"].Message)
}

func TestHealthRegistry_CheckRespectsTimeout(t *testing.T) {
	registry := NewHealthRegistry(20 * time.Millisecond)
	registry.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	results, healthy := registry.Check(context.Background())

	assert.False(t, healthy)
	assert.Equal(t, HealthStatusUnhealthy, results["slow"].Status)
}

func TestHealthRegistry_Handler(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		registry := NewHealthRegistry(time.Second)
		registry.Register("database", func(context.Context) error { return nil })

		rec := httptest.NewRecorder()
		registry.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("not ready", func(t *testing.T) {
		registry := NewHealthRegistry(time.Second)
		registry.Register("database", func(context.Context) error { return errors.New("down") })

		rec := httptest.NewRecorder()
		registry.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
